package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

var (
	appendSession    string
	appendSource     string
	appendModality   string
	appendTimestamp  float64
	appendLevel      string
	appendDetections []string
	appendPeople     int
	appendWeapon     string
)

var appendCmd = &cobra.Command{
	Use:   "append <description>",
	Short: "Append one observation to a session",
	Long: `Append a single observation record to a session's temporal log.

Examples:
  hearthwatch append "person at the front door" --session home-1 --source cam-1 --timestamp 12.5
  hearthwatch append "smoke over the stove" --session home-1 --source smoke-1 --modality sensor \
      --timestamp 40.2 --level high --detections smoke`,
	Args: cobra.ExactArgs(1),
	RunE: runAppend,
}

func init() {
	appendCmd.Flags().StringVar(&appendSession, "session", "", "session ID (required)")
	appendCmd.Flags().StringVar(&appendSource, "source", "", "producer ID, e.g. cam-1 (required)")
	appendCmd.Flags().StringVar(&appendModality, "modality", "vision", "producer modality: vision or sensor")
	appendCmd.Flags().Float64VarP(&appendTimestamp, "timestamp", "t", 0, "session time in seconds")
	appendCmd.Flags().StringVar(&appendLevel, "level", "none", "producer-local threat level")
	appendCmd.Flags().StringSliceVarP(&appendDetections, "detections", "d", nil, "detection tags, e.g. smoke,audio_alarm")
	appendCmd.Flags().IntVar(&appendPeople, "people", 0, "people count in frame")
	appendCmd.Flags().StringVar(&appendWeapon, "weapon", "", "weapon type when a weapon was detected")
	_ = appendCmd.MarkFlagRequired("session")
	_ = appendCmd.MarkFlagRequired("source")
}

func runAppend(cmd *cobra.Command, args []string) error {
	detections := make([]models.Detection, 0, len(appendDetections))
	for _, d := range appendDetections {
		detections = append(detections, models.Detection(d))
	}

	rec := models.InsightRecord{
		SessionID:   appendSession,
		SourceID:    appendSource,
		Modality:    models.Modality(appendModality),
		Timestamp:   appendTimestamp,
		ThreatLevel: models.ThreatLevel(appendLevel),
		Detections:  detections,
		Description: args[0],
		PeopleCount: appendPeople,
		WeaponType:  appendWeapon,
	}

	id, err := api.AppendInsight(context.Background(), rec)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}

	fmt.Printf("Appended %s (session %s, t=%.1fs)\n", id, appendSession, appendTimestamp)
	return nil
}

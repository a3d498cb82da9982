package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

var querySession string

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Query a session's log with plain language",
	Long: `Query a session's observation log. Time ranges and threat levels are
recognized directly; anything else runs a semantic search.

Examples:
  hearthwatch query "what happened between 10 and 40 seconds" --session home-1
  hearthwatch query "any high-threat events" --session home-1
  hearthwatch query "someone falling down" --session home-1`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&querySession, "session", "", "session ID (required)")
	_ = queryCmd.MarkFlagRequired("session")
}

func runQuery(cmd *cobra.Command, args []string) error {
	result, err := api.Query(context.Background(), querySession, args[0])
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if result.KeywordFallback {
		fmt.Println("(embedding unavailable, matched by keywords)")
	}
	fmt.Printf("%s\n\n", result.Interpretation)

	if len(result.Records) == 0 {
		fmt.Println("No matching records.")
		return nil
	}

	for i, rec := range result.Records {
		printRecord(i+1, rec, scoreAt(result.Scores, i))
	}
	return nil
}

func scoreAt(scores []float64, i int) float64 {
	if i < len(scores) {
		return scores[i]
	}
	return 0
}

// printRecord renders one record as a numbered list entry.
func printRecord(n int, rec models.InsightRecord, score float64) {
	fmt.Printf("%d. [%7.1fs] %s/%s", n, rec.Timestamp, rec.SourceID, rec.ThreatLevel)
	if score > 0 {
		fmt.Printf(" (%.2f)", score)
	}
	fmt.Println()
	if rec.Description != "" {
		fmt.Printf("   %s\n", rec.Description)
	}
	if verbose && len(rec.Detections) > 0 {
		fmt.Printf("   Detections: %v\n", rec.Detections)
	}
}

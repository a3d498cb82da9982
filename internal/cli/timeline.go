package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var timelineSource string

var timelineCmd = &cobra.Command{
	Use:   "timeline <session>",
	Short: "Show a session's observations in time order",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeline,
}

func init() {
	timelineCmd.Flags().StringVar(&timelineSource, "source", "", "filter to a single producer, e.g. cam-1")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	records, err := api.Timeline(context.Background(), args[0], timelineSource)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No records.")
		return nil
	}

	for i, rec := range records {
		printRecord(i+1, rec, 0)
	}
	return nil
}

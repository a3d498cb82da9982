package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List monitored sessions",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	sessions, err := api.Sessions(context.Background())
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Printf("- %s [%s] %d records\n", s.ID, s.Status, s.Records)
		if verbose && len(s.Sources) > 0 {
			fmt.Printf("  Sources: %v\n", s.Sources)
		}
	}
	return nil
}

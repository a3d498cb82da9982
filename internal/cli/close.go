package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close <session>",
	Short: "Close a session and cancel its pending escalations",
	Args:  cobra.ExactArgs(1),
	RunE:  runClose,
}

func runClose(cmd *cobra.Command, args []string) error {
	if err := api.CloseSession(context.Background(), args[0]); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	fmt.Printf("Session %s closed.\n", args[0])
	return nil
}

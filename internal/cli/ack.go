package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

var ackCmd = &cobra.Command{
	Use:   "ack <session> <scenario>",
	Short: "Acknowledge an escalating scenario alert",
	Long: `Acknowledge a scenario alert, cancelling its pending escalation ladder.

Examples:
  hearthwatch ack home-1 fall
  hearthwatch ack home-1 suspicious`,
	Args: cobra.ExactArgs(2),
	RunE: runAck,
}

func runAck(cmd *cobra.Command, args []string) error {
	kind := models.ScenarioKind(args[1])
	if !kind.Valid() {
		return fmt.Errorf("unknown scenario %q (use fire, intrusion, fall or suspicious)", args[1])
	}

	acknowledged, err := api.Acknowledge(context.Background(), args[0], kind)
	if err != nil {
		return fmt.Errorf("acknowledge: %w", err)
	}

	if acknowledged {
		fmt.Printf("Acknowledged %s on session %s, escalation cancelled.\n", kind, args[0])
	} else {
		fmt.Printf("Nothing to acknowledge: %s is not escalating on session %s.\n", kind, args[0])
	}
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios <session>",
	Short: "Show a session's scenario states",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarios,
}

func runScenarios(cmd *cobra.Command, args []string) error {
	states, err := api.ScenarioStates(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("scenarios: %w", err)
	}

	if len(states) == 0 {
		fmt.Println("No scenario activity.")
		return nil
	}

	for _, st := range states {
		fmt.Printf("- %s: %s", st.Kind, st.Status)
		if st.LadderStep > 0 {
			fmt.Printf(" (ladder step %d)", st.LadderStep)
		}
		fmt.Println()
		if verbose && len(st.Evidence) > 0 {
			fmt.Printf("  Evidence: %v\n", st.Evidence)
		}
	}
	return nil
}

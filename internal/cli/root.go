// Package cli provides the command-line interface for hearthwatch.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/hearthwatch/hearthwatch/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// API client, created before every command runs.
	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hearthwatch",
	Short: "Home threat monitoring client",
	Long: `Hearthwatch watches a home through its cameras and sensors: every
observation lands in a per-session temporal log, correlated scenarios
(fire, intrusion, fall, suspicious activity) escalate through timed
action ladders, and the log is searchable with plain language.

This client talks to a running hearthwatch-server.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		api = client.New(serverURL)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server base URL (default $HEARTHWATCH_SERVER_URL or http://localhost:8590)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tailCmd)
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthwatch/hearthwatch/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := api.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	fmt.Println("Server Statistics")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Uptime:          %.0fs\n", stats.Operations.UptimeSeconds)
	fmt.Printf("Sessions:        %d (%d active)\n", stats.Sessions, stats.ActiveSessions)
	fmt.Printf("Records:         %d\n", stats.Records)
	fmt.Println()

	printOp("Append", stats.Operations.Append)
	printOp("Evaluate", stats.Operations.Evaluate)
	printOp("Embedding", stats.Operations.Embedding)
	printOp("Semantic search", stats.Operations.SemanticSearch)
	printOp("Archive write", stats.Operations.ArchiveWrite)
	return nil
}

func printOp(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Printf("%-16s %d calls, avg %.1fms (min %dms, max %dms)\n",
		name+":", op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

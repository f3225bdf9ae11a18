package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of a running server",
	Long: `Show runtime statistics and index status of a running server.

Examples:
  adapted stats
  adapted stats --server http://learn.internal:8000`,
	Annotations: map[string]string{remoteAnnotation: "true"},
	RunE:        runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := remoteClient()

	stats, err := c.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get server stats from %s: %w", c.Endpoint(), err)
	}
	out := cmd.OutOrStdout()
	printServerStats(out, stats)
	fmt.Fprintln(out)

	status, err := c.IndexStatus(ctx)
	if err != nil {
		return fmt.Errorf("get index status: %w", err)
	}
	printIndexStatus(out, status, isTerminal(os.Stdout))
	return nil
}

// printServerStats displays server runtime statistics.
func printServerStats(w io.Writer, stats *metrics.Snapshot) {
	fmt.Fprintf(w, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	ops := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"Embeddings", stats.Embedding},
		{"LLM Generate", stats.LLMGenerate},
		{"Index Rebuild", stats.IndexRebuild},
		{"Retrieve", stats.Retrieve},
		{"Rank", stats.Rank},
		{"Generate", stats.Generate},
	}
	for _, o := range ops {
		if o.op == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", o.name)
		printOpStats(w, o.op)
		printTokenStats(w, o.op)
	}

	if len(stats.Counters) > 0 {
		names := make([]string, 0, len(stats.Counters))
		for name := range stats.Counters {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintf(w, "\nEvents:\n")
		for _, name := range names {
			fmt.Fprintf(w, "  %-22s %d\n", name, stats.Counters[name])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(w io.Writer, op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgInputTokens)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgOutputTokens)
	}
	fmt.Fprintln(w)
}

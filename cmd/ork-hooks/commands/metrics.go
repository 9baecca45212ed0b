package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/health"
)

var (
	metricsJQ    string
	metricsLimit int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Memory metric snapshots",
	Long: `Collect and inspect aggregate memory metrics.

'show' derives current metrics from the stores and includes the most
recent appended snapshots. 'append' writes one snapshot to the metrics
store, which is how a cron entry builds history.`,
}

var metricsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current metrics and recent snapshots",
	RunE:  runMetricsShow,
}

var metricsAppendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a metrics snapshot to the store",
	RunE:  runMetricsAppend,
}

func init() {
	metricsShowCmd.Flags().StringVar(&metricsJQ, "jq", "", "Filter the JSON output with a jq expression")
	metricsShowCmd.Flags().IntVar(&metricsLimit, "limit", 10, "How many recent snapshots to include")

	metricsCmd.AddCommand(metricsShowCmd)
	metricsCmd.AddCommand(metricsAppendCmd)
}

func runMetricsShow(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}

	history, skipped := health.ReadSnapshots(st)
	if metricsLimit > 0 && len(history) > metricsLimit {
		history = history[len(history)-metricsLimit:]
	}

	out := struct {
		Current health.Snapshot   `json:"current"`
		History []health.Snapshot `json:"history"`
		Skipped int               `json:"skipped,omitempty"`
	}{health.Collect(st), history, skipped}

	return printJSON(cmd.OutOrStdout(), out, metricsJQ)
}

func runMetricsAppend(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}

	snap := health.Collect(st)
	if err := health.AppendSnapshot(st, snap); err != nil {
		return err
	}

	fmt.Printf("Appended snapshot: %d decisions, %d graph + %d mem0 queued\n",
		snap.Decisions.Total, snap.Queues.Graph, snap.Queues.Mem0)
	return nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/health"
)

var (
	healthWatch bool
	healthJSON  bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report memory store health",
	Long: `Report the health of the memory stores under .ork/state.

A missing state directory is unavailable, a backlogged queue or a store
with too many corrupt lines is degraded, everything else is healthy.
With --watch the command keeps running and prints each transition.`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVarP(&healthWatch, "watch", "w", false, "Keep watching and print status transitions")
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Print the report as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}

	rep := health.Check(st)
	if healthJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		printHealthReport(cmd.OutOrStdout(), rep)
	}

	if !healthWatch {
		return nil
	}

	watcher, err := health.NewWatcher(st, func(rep health.Report) {
		printHealthReport(cmd.OutOrStdout(), rep)
	})
	if err != nil {
		return err
	}
	watcher.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return watcher.Stop()
}

func printHealthReport(w io.Writer, rep health.Report) {
	fmt.Fprintf(w, "%s  checked %s\n",
		statusColor(rep.Status).Add(color.Bold).Sprint(rep.Status),
		rep.CheckedAt.Format(time.RFC3339))

	for _, sh := range rep.Stores {
		detail := fmt.Sprintf("%d lines", sh.File.Lines)
		if sh.File.CorruptLines > 0 {
			detail += fmt.Sprintf(", %d corrupt", sh.File.CorruptLines)
		}
		if !sh.File.Exists {
			detail = "missing"
		}
		if sh.Reason != "" {
			detail += "  (" + sh.Reason + ")"
		}
		// Pad inside the color wrapper so ANSI codes do not skew columns.
		fmt.Fprintf(w, "  %-22s %s %s\n",
			sh.File.Name, statusColor(sh.Status).Sprintf("%-12s", sh.Status), detail)
	}
}

func statusColor(status string) *color.Color {
	switch status {
	case health.StatusHealthy:
		return color.New(color.FgGreen)
	case health.StatusDegraded:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

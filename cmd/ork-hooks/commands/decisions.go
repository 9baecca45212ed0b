package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/extract"
)

var (
	decisionsCategory string
	decisionsType     string
	decisionsSession  string
	decisionsLimit    int
	decisionsJQ       string
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Inspect extracted decision records",
}

var decisionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decision records, oldest first",
	Long: `List the decision records extracted from tool output.

Filters combine; --limit keeps the newest records after filtering.
With --jq the filtered records are printed as JSON through the given
expression instead of the human rendering.

Examples:
  ork-hooks decisions list --category security
  ork-hooks decisions list --jq '.decisions[].content.what'`,
	RunE: runDecisionsList,
}

func init() {
	decisionsListCmd.Flags().StringVar(&decisionsCategory, "category", "", "Filter by category")
	decisionsListCmd.Flags().StringVar(&decisionsType, "type", "", "Filter by record type (decision|preference|pattern)")
	decisionsListCmd.Flags().StringVar(&decisionsSession, "session", "", "Filter by session ID")
	decisionsListCmd.Flags().IntVar(&decisionsLimit, "limit", 20, "Keep only the newest N records")
	decisionsListCmd.Flags().StringVar(&decisionsJQ, "jq", "", "Filter the JSON output with a jq expression")

	decisionsCmd.AddCommand(decisionsListCmd)
}

func runDecisionsList(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}

	decisions, skipped := extract.ReadDecisions(st)
	var kept []extract.Decision
	for _, d := range decisions {
		if decisionsCategory != "" && d.Metadata.Category != decisionsCategory {
			continue
		}
		if decisionsType != "" && string(d.Type) != decisionsType {
			continue
		}
		if decisionsSession != "" && d.Metadata.SessionID != decisionsSession {
			continue
		}
		kept = append(kept, d)
	}

	total := len(kept)
	if decisionsLimit > 0 && len(kept) > decisionsLimit {
		kept = kept[len(kept)-decisionsLimit:]
	}

	if decisionsJQ != "" {
		out := struct {
			Decisions []extract.Decision `json:"decisions"`
			Total     int                `json:"total"`
			Skipped   int                `json:"skipped,omitempty"`
		}{kept, total, skipped}
		return printJSON(cmd.OutOrStdout(), out, decisionsJQ)
	}

	printDecisions(cmd.OutOrStdout(), kept, total, skipped)
	return nil
}

func printDecisions(w io.Writer, decisions []extract.Decision, total, skipped int) {
	if len(decisions) == 0 {
		fmt.Fprintln(w, "No decision records.")
		return
	}

	dim := color.New(color.FgHiBlack)
	for _, d := range decisions {
		fmt.Fprintf(w, "%s %s [%s/%s]\n",
			dim.Sprint(d.Metadata.Timestamp.Format("2006-01-02 15:04")),
			color.New(color.FgCyan).Sprint(d.ID),
			d.Type, d.Metadata.Category)
		fmt.Fprintf(w, "  %s\n", d.Content.What)
		if d.Content.Why != "" {
			fmt.Fprintf(w, "  %s %s\n", dim.Sprint("why:"), d.Content.Why)
		}
		if len(d.Entities) > 0 {
			fmt.Fprintf(w, "  %s %s\n", dim.Sprint("entities:"), strings.Join(d.Entities, ", "))
		}
	}

	fmt.Fprintf(w, "\n%d of %d records", len(decisions), total)
	if skipped > 0 {
		fmt.Fprintf(w, " (%d corrupt lines skipped)", skipped)
	}
	fmt.Fprintln(w)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/guard"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Manage learned command patterns",
	Long: `Manage the learned command prefixes that clear the permission prompt.

A learned pattern never overrides the security catalog: the catalog runs
first on every check, and 'learn add' refuses prefixes the catalog would
deny outright.`,
}

var learnAddCmd = &cobra.Command{
	Use:   "add <prefix>",
	Short: "Add a command prefix to the learned patterns",
	Args:  cobra.ExactArgs(1),
	RunE:  runLearnAdd,
}

var learnListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned patterns",
	RunE:  runLearnList,
}

var learnRemoveCmd = &cobra.Command{
	Use:   "remove <prefix>",
	Short: "Remove a learned pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runLearnRemove,
}

func init() {
	learnCmd.AddCommand(learnAddCmd)
	learnCmd.AddCommand(learnListCmd)
	learnCmd.AddCommand(learnRemoveCmd)
}

func runLearnAdd(cmd *cobra.Command, args []string) error {
	pattern := args[0]

	if det := guard.DetectDangerous(pattern); det.Matches {
		return fmt.Errorf("refusing to learn %q: the security catalog denies it (%s)", pattern, det.Pattern)
	}

	_, st, err := projectStore()
	if err != nil {
		return err
	}
	if err := guard.AddPattern(st, pattern); err != nil {
		return err
	}

	fmt.Printf("Learned %q\n", pattern)
	return nil
}

func runLearnList(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}

	patterns, err := guard.ListPatterns(st)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		fmt.Println("No learned patterns.")
		return nil
	}
	for _, p := range patterns {
		fmt.Println(p)
	}
	return nil
}

func runLearnRemove(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}

	removed, err := guard.RemovePattern(st, args[0])
	if err != nil {
		return err
	}
	if !removed {
		if near, _, ok := guard.NearestPattern(st, args[0]); ok {
			return fmt.Errorf("pattern %q not found (closest is %q)", args[0], near)
		}
		return fmt.Errorf("pattern %q not found", args[0])
	}

	fmt.Printf("Removed %q\n", args[0])
	return nil
}

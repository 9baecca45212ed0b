package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/browse"
	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/guard"
	"github.com/ork-ai/orkhooks/internal/hook"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

var gateExplain bool

var gateCmd = &cobra.Command{
	Use:   "gate [command...]",
	Short: "Evaluate a PreToolUse event from stdin",
	Long: `Evaluate one PreToolUse event: JSON on stdin, decision JSON on stdout.

Bash commands and file writes go through the command and write policies.
Browser navigation tools go through the URL blocklist, the rate limiter,
and the robots check. Tools with no policy pass through quietly.

With --explain, the positional arguments are evaluated as a Bash command
and the verdict is printed for humans instead. Nothing is recorded.

Examples:
  ork-hooks gate < event.json
  ork-hooks gate --explain -- git push --force origin main`,
	RunE: runGate,
}

func init() {
	gateCmd.Flags().BoolVar(&gateExplain, "explain", false, "Explain the verdict for a Bash command given as arguments")
}

func runGate(cmd *cobra.Command, args []string) error {
	if gateExplain {
		return explainCommand(cmd.OutOrStdout(), strings.Join(args, " "))
	}

	runner := hook.NewRunner("gate", func(ctx context.Context, in *hook.Input) *hook.Result {
		cfg, err := config.Load(projectDirOf(in))
		if err != nil {
			logging.Warn().Err(err).Msg("Config load failed, allowing")
			return hook.Allow()
		}
		st := store.New(cfg.StateDir)

		unsubscribe := guard.RegisterAudit(st)
		defer unsubscribe()

		if bg := browse.New(cfg, st); bg.Handles(in.ToolName) {
			return bg.Check(ctx, in)
		}
		return guard.New(cfg, st).Check(in)
	})
	return runner.Run(cmd.Context())
}

// projectDirOf resolves the project directory for one event, falling back
// to the process working directory when the host sent neither path.
func projectDirOf(in *hook.Input) string {
	if in.ProjectDir != "" {
		return in.ProjectDir
	}
	if in.Cwd != "" {
		return in.Cwd
	}
	wd, _ := os.Getwd()
	return wd
}

// explainCommand runs a command through a dry-run gate and prints the
// verdict. Exit status is 0 either way; the command under test is not the
// one being judged for the shell.
func explainCommand(w io.Writer, command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command required. Usage: ork-hooks gate --explain -- <command>")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}
	st := store.New(cfg.StateDir)

	in := &hook.Input{
		ToolName:   "Bash",
		ToolInput:  hook.ToolInput{Command: command},
		ProjectDir: workDir,
	}
	printVerdict(w, command, guard.NewDryRun(cfg, st).Check(in))
	return nil
}

func printVerdict(w io.Writer, command string, res *hook.Result) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgHiBlack).Sprint("$"), command)

	switch {
	case res.Blocked():
		fmt.Fprintln(w, color.New(color.FgRed, color.Bold).Sprint("denied"))
	case res.HookSpecificOutput != nil && res.HookSpecificOutput.PermissionDecision == "allow":
		fmt.Fprintf(w, "%s %s\n",
			color.New(color.FgGreen, color.Bold).Sprint("allowed"),
			color.New(color.FgHiBlack).Sprint("(learned pattern)"))
	default:
		fmt.Fprintln(w, color.New(color.FgGreen, color.Bold).Sprint("allowed"))
	}

	if res.SystemMessage != "" {
		for _, line := range strings.Split(res.SystemMessage, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if res.HookSpecificOutput != nil && res.HookSpecificOutput.PermissionDecisionReason != "" {
		fmt.Fprintf(w, "  %s\n", res.HookSpecificOutput.PermissionDecisionReason)
	}
}

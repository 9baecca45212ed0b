package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/extract"
	"github.com/ork-ai/orkhooks/internal/guard"
	"github.com/ork-ai/orkhooks/internal/hook"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Process a PostToolUse event from stdin",
	Long: `Process one PostToolUse event: JSON on stdin, result JSON on stdout.

Tool output is scanned for decisions, preferences, and patterns. Records
that clear the confidence bar are appended to the decision store and
queued for the knowledge-graph and mem0 pipelines. The tool call itself
is never blocked; extraction failures collapse to a quiet allow.`,
	RunE: runObserve,
}

func runObserve(cmd *cobra.Command, args []string) error {
	runner := hook.NewRunner("observe", func(ctx context.Context, in *hook.Input) *hook.Result {
		projectDir := projectDirOf(in)
		cfg, err := config.Load(projectDir)
		if err != nil {
			logging.Warn().Err(err).Msg("Config load failed, allowing")
			return hook.Allow()
		}
		st := store.New(cfg.StateDir)

		unsubscribe := guard.RegisterAudit(st)
		defer unsubscribe()

		return extract.NewObserver(st, extract.LoadVocabulary(projectDir)).Observe(in)
	})
	return runner.Run(cmd.Context())
}

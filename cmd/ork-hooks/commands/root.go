// Package commands provides the CLI commands for ork-hooks.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

// Set through ldflags at release build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

var (
	printLogs bool
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "ork-hooks",
	Short: "ork-hooks - tool-call gating and decision memory for agent sessions",
	Long: `ork-hooks gates agent tool calls and captures the decisions they surface.

Wire 'ork-hooks gate' as a PreToolUse hook and 'ork-hooks observe' as a
PostToolUse hook. The remaining commands inspect and maintain the state
the hooks accumulate under .ork/state.`,
	Version: Version,
	// Runtime failures are not usage errors; keep cobra's usage dump and
	// duplicate error print out of hook transcripts. main reports the
	// error once.
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env next to the caller is optional.
		_ = godotenv.Load()
		initLogging(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Pretty-print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("ork-hooks %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(
		gateCmd,
		observeCmd,
		learnCmd,
		queueCmd,
		healthCmd,
		metricsCmd,
		decisionsCmd,
		serveCmd,
		mcpCmd,
	)
}

// initLogging configures the global logger from the persistent flags.
// ORK_LOG_LEVEL applies when --log-level is left at its default, so a
// hook wiring can raise verbosity without editing the hook command line.
func initLogging(cmd *cobra.Command) {
	level := logLevel
	if !cmd.Flags().Changed("log-level") {
		if env := os.Getenv("ORK_LOG_LEVEL"); env != "" {
			level = env
		}
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(level)
	cfg.Pretty = printLogs
	logging.Init(cfg)
}

// Execute dispatches the command line.
func Execute() error {
	return rootCmd.Execute()
}

// GetWorkDir resolves the directory a command operates on: the flag
// value when given, otherwise the current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

// projectStore loads configuration for the current working directory and
// opens its state store. Most inspection commands start here.
func projectStore() (*config.Config, *store.Store, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store.New(cfg.StateDir), nil
}

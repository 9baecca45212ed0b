package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/guard"
	"github.com/ork-ai/orkhooks/internal/health"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/server"
	"github.com/ork-ai/orkhooks/internal/store"
	"github.com/ork-ai/orkhooks/internal/vcs"
)

var (
	servePort int
	serveDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local hooks API server",
	Long: `Start a local HTTP server over the project's hook state.

The server exposes read-only JSON endpoints for health, metrics,
decisions, queues, and the audit trail, an SSE stream of gate and
health events, and a dry-run POST /check endpoint. Nothing it serves
mutates the stores.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from settings)")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Project directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}
	appConfig, err := config.Load(workDir)
	if err != nil {
		return err
	}
	st := store.New(appConfig.StateDir)

	// Record every verdict and transition that crosses the bus while the
	// server runs; /events streams the same traffic live.
	unsubscribe := guard.RegisterAudit(st)
	defer unsubscribe()

	healthWatcher, err := health.NewWatcher(st, func(rep health.Report) {
		logging.Info().Str("status", rep.Status).Msg("Memory health changed")
	})
	if err != nil {
		return err
	}
	healthWatcher.Start()
	defer healthWatcher.Stop()

	// Branch events are optional; the server runs without them when the
	// directory has no repository or inotify is unavailable.
	branchWatcher, err := vcs.NewWatcher(workDir)
	if err != nil {
		logging.Debug().Err(err).Msg("Branch watcher unavailable")
	} else {
		branchWatcher.Start()
		defer branchWatcher.Stop()
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = appConfig.Serve.Port
	serverConfig.EnableCORS = appConfig.Serve.EnableCORS
	if servePort > 0 {
		serverConfig.Port = servePort
	}
	srv := server.New(serverConfig, appConfig, st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Int("port", serverConfig.Port).
			Str("dir", workDir).
			Msg("Server listening")
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		// The listener failed before any signal arrived, a busy port
		// most likely. Surface it through the command so the watchers
		// above still unwind.
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Server shutdown error")
	}
	return nil
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/guard"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

// Config carries the listener settings the serve command maps from flags
// and settings.json.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the stock listener settings: port 8080, CORS on,
// and no write timeout so SSE connections can stay open.
func DefaultConfig() *Config {
	return &Config{
		Port:        8080,
		EnableCORS:  true,
		ReadTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server. Every endpoint reads the same stores the
// CLI reads; the only POST route evaluates a tool call against a dry-run
// gate that records nothing.
type Server struct {
	router *chi.Mux
	srv    *http.Server
	st     *store.Store
	gate   *guard.Gate
}

// New assembles the router, middleware, and listener from cfg. The
// listener binds loopback only; nothing this API serves is meant to
// leave the machine.
func New(cfg *Config, appCfg *config.Config, st *store.Store) *Server {
	s := &Server{
		router: chi.NewRouter(),
		st:     st,
		gate:   guard.NewDryRun(appCfg, st),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		s.router.Use(cors.Handler(corsPolicy))
	}
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// corsPolicy admits browser dashboards served from other local origins.
// The API carries no credentials and no Authorization header.
var corsPolicy = cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	ExposedHeaders: []string{"X-Request-ID"},
	MaxAge:         300,
}

// requestLogger traces each request through the process logger and
// echoes the request ID so clients can correlate responses with the log
// stream.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}

// Start begins serving and blocks until the listener fails or Shutdown
// runs. A clean shutdown surfaces as http.ErrServerClosed.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops the listener and waits out in-flight requests until ctx
// expires. Open SSE streams never go idle, so the deadline is what ends
// them here.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Router exposes the chi mux so tests can drive handlers without a
// listener.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Package server provides the HTTP server behind the serve command.
//
// The server is a local, read-only window onto the state directory: the
// same JSONL stores the gate and the extractor write are exposed as JSON
// endpoints, and the in-process event bus is exposed as an SSE stream.
// It holds no state of its own; every request re-reads the stores, so the
// responses always reflect what the hooks most recently wrote.
//
// # Endpoints
//
//   - GET /health: store health report (503 when the state directory is gone)
//   - GET /metrics: current metrics snapshot plus appended history
//   - GET /decisions: stored decisions with category/type/session filters
//   - GET /queues: depth and post-aggregation size of both sync queues
//   - GET /audit: tail of the audit trail
//   - POST /check: dry-run gate evaluation of a tool-use event
//   - GET /events: event bus over SSE
//
// # Dry-run Checks
//
// POST /check runs the same command pipeline the PreToolUse hook runs, but
// against a gate constructed with guard.NewDryRun: the verdict comes back
// in the response body and nothing is recorded. Denial history, the event
// bus, and the audit trail all stay untouched, so probing a command never
// changes how the live gate treats it later.
//
// # Event Stream
//
// GET /events subscribes the connection to every bus event the process
// publishes and writes each as an SSE message shaped
// {"type": "...", "properties": {...}}. A heartbeat comment goes out every
// 30 seconds; slow clients lose events rather than stall publishers.
//
// # Usage Example
//
//	cfg := server.DefaultConfig()
//	cfg.Port = settings.Serve.Port
//	cfg.EnableCORS = settings.Serve.EnableCORS
//
//	srv := server.New(cfg, settings, st)
//	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
//		log.Fatal(err)
//	}
package server

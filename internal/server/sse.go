package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/logging"
)

// StreamEvent is the wire shape of one streamed bus event:
// {"type": "...", "properties": {...}}.
type StreamEvent struct {
	Type       event.EventType `json:"type"`
	Properties any             `json:"properties"`
}

// heartbeatInterval paces the SSE keepalive comments.
const heartbeatInterval = 30 * time.Second

// stream is one client's SSE connection.
type stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// openStream prepares w for event streaming. Rejects writers that cannot
// flush, before any body bytes go out.
func openStream(w http.ResponseWriter) (*stream, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, fmt.Errorf("streaming unsupported by connection")
	}
	return &stream{w: w, rc: http.NewResponseController(w)}, nil
}

// send writes one message frame carrying ev and flushes it to the client.
func (s *stream) send(ev StreamEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: message\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return s.rc.Flush()
}

// beat writes the keepalive comment.
func (s *stream) beat() {
	fmt.Fprint(s.w, ": heartbeat\n\n")
	s.rc.Flush()
}

// streamEvents bridges the event bus onto an SSE stream. Every bus event the
// running process publishes, gate verdicts and health transitions included,
// reaches every connected client until it disconnects.
func (srv *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	s, err := openStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Proxies must not buffer the stream.
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The greeting lets a client tell a live stream from a stalled
	// connect before any real traffic arrives.
	if err := s.send(StreamEvent{Type: "server.connected", Properties: map[string]any{}}); err != nil {
		return
	}

	// A slow client sheds events instead of stalling publishers.
	feed := make(chan event.Event, 10)
	unsub := event.SubscribeAll(func(e event.Event) {
		select {
		case feed <- e:
		default:
			logging.Warn().
				Str("eventType", string(e.Type)).
				Msg("SSE event dropped: client too slow")
		}
	})
	defer unsub()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-feed:
			if err := s.send(StreamEvent{Type: e.Type, Properties: e.Data}); err != nil {
				return
			}
		case <-ticker.C:
			s.beat()
		}
	}
}

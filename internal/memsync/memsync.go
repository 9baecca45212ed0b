// Package memsync drains the mem0 queue into an external memory MCP
// server. Entries are deduplicated first, pushed one tool call at a
// time, and the queue file is archived only after every surviving entry
// landed; a partial failure leaves the queue intact for the next run.
package memsync

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/queue"
	"github.com/ork-ai/orkhooks/internal/store"
)

const (
	addMemoryTool  = "add_memory"
	connectTimeout = 5 * time.Second
	callTimeout    = 10 * time.Second
	retryDelay     = 500 * time.Millisecond
	maxRetries     = 1
)

// toolCaller is the slice of an MCP client session the syncer uses.
type toolCaller interface {
	CallTool(ctx context.Context, params *sdkmcp.CallToolParams) (*sdkmcp.CallToolResult, error)
	Close() error
}

// Syncer pushes queued memories to the configured memory server.
type Syncer struct {
	st  *store.Store
	cfg config.MemoryConfig

	// connect is swapped out in tests.
	connect func(ctx context.Context) (toolCaller, error)
}

// New creates a Syncer over the given store and memory-server config.
func New(st *store.Store, cfg config.MemoryConfig) *Syncer {
	s := &Syncer{st: st, cfg: cfg}
	s.connect = s.connectStdio
	return s
}

// Result summarizes one sync run.
type Result struct {
	Read    int    `json:"read"`
	Deduped int    `json:"deduped"`
	Synced  int    `json:"synced"`
	Skipped int    `json:"skipped"`
	Archive string `json:"archive,omitempty"`
}

// Sync reads the mem0 queue, deduplicates it, and calls add_memory once
// per surviving entry. The queue is archived only when every call
// succeeded; corrupt lines are counted, logged, and archived with the
// rest so a poison line cannot wedge the queue forever.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var res Result
	if !s.st.Exists(store.Mem0QueueFile) {
		return res, nil
	}

	entries, skipped := queue.ReadMem0Queue(s.st)
	res.Read = len(entries)
	res.Skipped = skipped

	deduped := queue.Deduplicate(entries)
	res.Deduped = len(deduped)

	event.PublishSync(event.Event{
		Type: event.QueueProcessed,
		Data: event.QueueProcessedData{Queue: "mem0", Read: res.Read, Kept: res.Deduped, Corrupt: skipped},
	})

	if len(deduped) > 0 {
		client, err := s.connect(ctx)
		if err != nil {
			return res, fmt.Errorf("failed to reach memory server: %w", err)
		}
		defer client.Close()

		for _, entry := range deduped {
			if err := s.push(ctx, client, entry); err != nil {
				return res, fmt.Errorf("sync stopped after %d of %d entries: %w",
					res.Synced, len(deduped), err)
			}
			res.Synced++
		}
	}

	dst, err := queue.Archive(s.st, store.Mem0QueueFile)
	if err != nil {
		return res, fmt.Errorf("entries synced but queue not archived: %w", err)
	}
	res.Archive = dst

	logging.Info().
		Int("synced", res.Synced).
		Int("skipped", res.Skipped).
		Str("archive", dst).
		Msg("Memory queue synced")
	event.PublishSync(event.Event{
		Type: event.QueueSynced,
		Data: event.QueueSyncedData{Queue: "mem0", Synced: res.Synced, Archive: dst},
	})
	return res, nil
}

// push sends one entry, retrying once on failure.
func (s *Syncer) push(ctx context.Context, client toolCaller, entry queue.Mem0Entry) error {
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		args := map[string]any{
			"text":    entry.Text,
			"user_id": entry.UserID,
		}
		if entry.Metadata != nil {
			args["metadata"] = entry.Metadata
		}

		result, err := client.CallTool(callCtx, &sdkmcp.CallToolParams{
			Name:      addMemoryTool,
			Arguments: args,
		})
		if err != nil {
			return err
		}
		if result.IsError {
			return fmt.Errorf("%s: %s", addMemoryTool, resultText(result))
		}
		return nil
	}

	return backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), maxRetries), ctx))
}

// connectStdio launches the configured memory server and opens an MCP
// session over its stdio.
func (s *Syncer) connectStdio(ctx context.Context) (toolCaller, error) {
	if s.cfg.Command == "" {
		return nil, errors.New("no memory server configured (settings: memory.command)")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "ork-hooks",
		Version: "1.0.0",
	}, nil)

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	session, err := client.Connect(connectCtx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func resultText(result *sdkmcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	if b.Len() == 0 {
		return "tool call failed"
	}
	return b.String()
}

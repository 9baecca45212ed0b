package memstore

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ork-ai/orkhooks/internal/health"
)

// connectClient wires a stdio MCP server to an in-process SDK client
// over io.Pipe and returns the connected session. The SDK client is the
// same one the sync worker uses against external memory servers, so this
// exercises the full wire protocol.
func connectClient(t *testing.T, ctx context.Context, mcpServer *server.MCPServer) *sdkmcp.ClientSession {
	t.Helper()

	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	go func() {
		// Listen returns once ctx ends or the pipes close.
		_ = server.NewStdioServer(mcpServer).Listen(ctx, serverIn, serverOut)
	}()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "memstore-test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.IOTransport{Reader: clientIn, Writer: clientOut}, nil)
	require.NoError(t, err, "client should connect over the pipe transport")

	t.Cleanup(func() {
		session.Close()
		clientOut.Close()
		serverOut.Close()
	})
	return session
}

// callText invokes one tool and decodes its text content into out.
func callText(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "call %s", name)
	require.False(t, result.IsError, "%s should succeed", name)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "%s should return text content", name)
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func TestMemstoreServer_MCPClient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st := newTestStore(t)
	seedDecision(t, st, "d1", "PostgreSQL over SQLite", "s1", "data", "postgresql", "sqlite")
	seedDecision(t, st, "d2", "chi over gorilla", "s1", "architecture", "chi")

	session := connectClient(t, ctx, NewServer(st))

	listResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range listResult.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"search_decisions", "memory_health", "queue_status"} {
		assert.True(t, names[want], "%s should be registered", want)
	}

	var res searchResult
	callText(t, ctx, session, "search_decisions", map[string]any{"query": "postgresql"}, &res)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "d1", res.Decisions[0].ID)

	var rep health.Report
	callText(t, ctx, session, "memory_health", nil, &rep)
	assert.Equal(t, health.StatusHealthy, rep.Status)

	var qs queueStatus
	callText(t, ctx, session, "queue_status", nil, &qs)
	assert.Zero(t, qs.Graph.Depth, "nothing was queued")
	assert.Zero(t, qs.Mem0.Depth)
}

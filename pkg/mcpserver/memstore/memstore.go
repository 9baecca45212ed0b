// Package memstore provides an MCP server over the local memory stores.
// Assistant sessions query decisions, health, and queue state through it
// without shelling out to the CLI.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ork-ai/orkhooks/internal/extract"
	"github.com/ork-ai/orkhooks/internal/health"
	"github.com/ork-ai/orkhooks/internal/queue"
	"github.com/ork-ai/orkhooks/internal/store"
)

// defaultSearchLimit bounds search_decisions results so a broad query does
// not flood the calling session.
const defaultSearchLimit = 10

// NewServer creates a new MCP server exposing the given store.
func NewServer(st *store.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"ork-memstore",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	searchTool := mcp.NewTool("search_decisions",
		mcp.WithDescription("Searches stored project decisions, newest first"),
		mcp.WithString("query",
			mcp.Description("Substring matched case-insensitively against what, why, and entities"),
		),
		mcp.WithString("category",
			mcp.Description("Restrict to one category (architecture, data, security, process, tooling)"),
		),
		mcp.WithString("type",
			mcp.Description("Restrict to one record type (decision, preference, pattern)"),
		),
		mcp.WithString("session",
			mcp.Description("Restrict to decisions captured in one session"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 10)"),
		),
	)
	s.AddTool(searchTool, searchHandler(st))

	healthTool := mcp.NewTool("memory_health",
		mcp.WithDescription("Reports the health of the memory stores"),
	)
	s.AddTool(healthTool, healthHandler(st))

	queueTool := mcp.NewTool("queue_status",
		mcp.WithDescription("Reports depth and aggregate size of both sync queues"),
	)
	s.AddTool(queueTool, queueHandler(st))

	return s
}

// searchResult is the JSON payload search_decisions returns.
type searchResult struct {
	Decisions []extract.Decision `json:"decisions"`
	Total     int                `json:"total"`
}

// searchHandler handles the search_decisions tool call.
func searchHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		query := stringArg(args, "query")
		category := stringArg(args, "category")
		recordType := stringArg(args, "type")
		session := stringArg(args, "session")

		limit := defaultSearchLimit
		if raw, ok := args["limit"]; ok {
			n, ok := raw.(float64)
			if !ok || n < 1 {
				return mcp.NewToolResultError("limit must be a positive number"), nil
			}
			limit = int(n)
		}

		all, _ := extract.ReadDecisions(st)

		var matched []extract.Decision
		for _, d := range all {
			if category != "" && d.Metadata.Category != category {
				continue
			}
			if recordType != "" && string(d.Type) != recordType {
				continue
			}
			if session != "" && d.Metadata.SessionID != session {
				continue
			}
			if query != "" && !matchesQuery(d, query) {
				continue
			}
			matched = append(matched, d)
		}

		total := len(matched)

		// Newest first, capped.
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
		if len(matched) > limit {
			matched = matched[:limit]
		}

		return jsonResult(searchResult{Decisions: matched, Total: total})
	}
}

// matchesQuery reports whether a decision mentions the query in its what,
// why, or entity list.
func matchesQuery(d extract.Decision, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(d.Content.What), q) {
		return true
	}
	if strings.Contains(strings.ToLower(d.Content.Why), q) {
		return true
	}
	for _, e := range d.Entities {
		if strings.Contains(strings.ToLower(e), q) {
			return true
		}
	}
	return false
}

// healthHandler handles the memory_health tool call.
func healthHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(health.Check(st))
	}
}

// queueStatus is the JSON payload queue_status returns.
type queueStatus struct {
	Graph graphStatus `json:"graph"`
	Mem0  mem0Status  `json:"mem0"`
}

type graphStatus struct {
	Depth        int `json:"depth"`
	Corrupt      int `json:"corrupt"`
	Entities     int `json:"entities"`
	Relations    int `json:"relations"`
	Observations int `json:"observations"`
}

type mem0Status struct {
	Depth   int `json:"depth"`
	Corrupt int `json:"corrupt"`
	Deduped int `json:"deduped"`
}

// queueHandler handles the queue_status tool call.
func queueHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ops, graphSkipped := queue.ReadGraphQueue(st)
		agg := queue.Aggregate(ops)

		entries, memSkipped := queue.ReadMem0Queue(st)
		deduped := queue.Deduplicate(entries)

		return jsonResult(queueStatus{
			Graph: graphStatus{
				Depth:        len(ops),
				Corrupt:      graphSkipped,
				Entities:     len(agg.Entities),
				Relations:    len(agg.Relations),
				Observations: len(agg.Observations),
			},
			Mem0: mem0Status{
				Depth:   len(entries),
				Corrupt: memSkipped,
				Deduped: len(deduped),
			},
		})
	}
}

// stringArg reads an optional string argument.
func stringArg(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// jsonResult marshals a payload into a text tool result.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

package commands

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/pkg/mcpserver/memstore"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the memory store over MCP stdio",
	Long: `Serve the project's memory stores as MCP tools over stdio.

Assistant sessions connect here to search decision records, check
memory health, and read queue depth without shelling out. Stdout
carries the protocol, so all logging stays on stderr.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}
	return server.ServeStdio(memstore.NewServer(st))
}

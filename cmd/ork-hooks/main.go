// Command ork-hooks gates agent tool calls and captures the decisions
// they surface. See the commands package for the subcommand surface.
package main

import (
	"fmt"
	"os"

	"github.com/ork-ai/orkhooks/cmd/ork-hooks/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ork-hooks:", err)
		os.Exit(1)
	}
}

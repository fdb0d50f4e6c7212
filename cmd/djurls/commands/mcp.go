package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [path]",
	Short: "Serve the routes to AI assistants over MCP",
	Long: `Start a Model Context Protocol server on stdio. Assistants can list
namespaces and routes, look up a route by reverse name and ask for
reverse(), {% url %} or redirect() snippets.

Example configuration (Claude Desktop, Cursor, ...):
  {
    "mcpServers": {
      "djurls": {"command": "djurls", "args": ["mcp", "/path/to/project"]}
    }
  }`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	server := mcp.NewServer(projectDir(args, 0),
		mcp.WithConfigFile(configFile),
		mcp.WithLogger(newLogger()),
	)
	if err := server.Serve(); err != nil {
		// stdout belongs to the protocol
		fmt.Fprintf(os.Stderr, "djurls mcp: %v\n", err)
		os.Exit(1)
	}
}

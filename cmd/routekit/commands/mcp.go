package commands

import (
	"os"

	"github.com/abdul-hamid-achik/routekit/pkg/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve route tools over MCP (stdio)",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
route table to LLM agents.

Tools:
  list_routes     list routes, optionally under a URL prefix
  find_route      resolve a request path
  generate_path   fill parameters into a route template
  navigation      navigation tree under a URL prefix

Example MCP client config:
  {"command": "routekit", "args": ["mcp"]}`,
	Run: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		exitWithError(err)
	}

	if err := mcp.NewServer(wd, cfg).ServeStdio(); err != nil {
		exitWithError(err)
	}
}

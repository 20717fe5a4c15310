// Package mcp exposes a site's route table to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/routekit/internal/config"
	"github.com/abdul-hamid-achik/routekit/internal/version"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server answers route questions about the site in workdir.
type Server struct {
	workdir   string
	cfg       *config.Config
	mcpServer *server.MCPServer
}

// NewServer creates a server for workdir. A nil cfg loads routekit.yaml
// from workdir, falling back to the defaults.
func NewServer(workdir string, cfg *config.Config) *Server {
	if cfg == nil {
		loaded, err := config.Load(workdir, "")
		if err != nil {
			loaded = config.Default()
		}
		cfg = loaded
	}

	s := &Server{
		workdir: workdir,
		cfg:     cfg,
		mcpServer: server.NewMCPServer(
			"routekit",
			version.GetVersion(),
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio serves MCP requests on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_routes",
		mcp.WithDescription("List every route of the site with its URL, stem and parameters"),
		mcp.WithString("prefix",
			mcp.Description("Only list routes whose URL starts with this prefix"),
		),
	), s.handleListRoutes)

	s.mcpServer.AddTool(mcp.NewTool("find_route",
		mcp.WithDescription("Resolve a request path to the route serving it and the captured parameters"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Request path, e.g. /blog/hello-world"),
		),
	), s.handleFindRoute)

	s.mcpServer.AddTool(mcp.NewTool("generate_path",
		mcp.WithDescription("Build a concrete URL from a route template and parameter values"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Route URL template, stem or file id, e.g. /blog/:slug.html"),
		),
		mcp.WithObject("params",
			mcp.Description("Parameter values; splat parameters take an array"),
		),
	), s.handleGeneratePath)

	s.mcpServer.AddTool(mcp.NewTool("navigation",
		mcp.WithDescription("Build the navigation tree of routes under a URL prefix"),
		mcp.WithString("prefix",
			mcp.Description("URL prefix (default: /)"),
		),
	), s.handleNavigation)
}

// loadTable scans the site on every call.
func (s *Server) loadTable(ctx context.Context) (*table.Table, error) {
	t := s.cfg.NewTable(nil)
	if err := t.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}
	return t, nil
}

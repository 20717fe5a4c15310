package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleListRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.loadTable(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prefix := request.GetString("prefix", "")
	routes := make([]table.RouteInfo, 0, t.Len())
	for _, info := range t.Infos() {
		if strings.HasPrefix(info.URL, prefix) {
			routes = append(routes, info)
		}
	}

	return jsonResult(map[string]any{
		"total":  len(routes),
		"routes": routes,
	})
}

func (s *Server) handleFindRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}

	t, err := s.loadTable(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, params, ok := t.Match(path)
	if !ok {
		return jsonResult(map[string]any{
			"found": false,
			"path":  path,
		})
	}
	if params == nil {
		params = route.Params{}
	}

	return jsonResult(map[string]any{
		"found":  true,
		"path":   path,
		"route":  table.Info(r),
		"params": params,
	})
}

func (s *Server) handleGeneratePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil
	}

	params := route.Params{}
	if raw, ok := request.GetArguments()["params"].(map[string]any); ok {
		for k, v := range raw {
			params[k] = v
		}
	}

	t, err := s.loadTable(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err := t.GeneratePath(url, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"success": true,
		"url":     url,
		"path":    path,
	})
}

func (s *Server) handleNavigation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.loadTable(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	nodes, err := t.Navigation(request.GetString("prefix", ""), table.Meta(s.cfg.Meta))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(nodes)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

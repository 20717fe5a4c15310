package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// Helper to create a CallToolRequest with arguments
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// newSiteServer creates a server over a small site in a temp dir.
func newSiteServer(t *testing.T) *Server {
	t.Helper()
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "pages/index.md", "# Home")
	writeFile(t, tmpDir, "pages/about.md", "# About")
	writeFile(t, tmpDir, "pages/blog/$slug.md", "# Post")
	writeFile(t, tmpDir, "pages/docs/getting-started.md", "# Start")
	writeFile(t, tmpDir, "pages/docs/[lang]/intro.md", "# Intro")
	writeFile(t, tmpDir, "pages/files/*.md", "# Files")
	return NewServer(tmpDir, nil)
}

// Helper to extract text from CallToolResult
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}

	return ""
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if result == nil {
		t.Fatal("Expected non-nil result")
	}
	if result.IsError {
		t.Fatalf("Unexpected error result: %s", getResultText(result))
	}
	if err := json.Unmarshal([]byte(getResultText(result)), v); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
}

func TestHandleListRoutes(t *testing.T) {
	server := newSiteServer(t)

	result, err := server.handleListRoutes(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleListRoutes failed: %v", err)
	}

	var out struct {
		Total  int `json:"total"`
		Routes []struct {
			ID        string   `json:"id"`
			URL       string   `json:"url"`
			IsDynamic bool     `json:"isDynamic"`
			Params    []string `json:"params"`
		} `json:"routes"`
	}
	decodeResult(t, result, &out)

	if out.Total != 6 {
		t.Errorf("total = %d, want 6", out.Total)
	}

	found := false
	for _, r := range out.Routes {
		if r.ID == "pages/blog/$slug.md" {
			found = true
			if !r.IsDynamic {
				t.Error("Expected blog/$slug to be dynamic")
			}
			if len(r.Params) != 1 || r.Params[0] != "slug" {
				t.Errorf("params = %v, want [slug]", r.Params)
			}
		}
	}
	if !found {
		t.Error("Expected pages/blog/$slug.md in routes")
	}
}

func TestHandleListRoutes_Prefix(t *testing.T) {
	server := newSiteServer(t)

	result, err := server.handleListRoutes(context.Background(), makeRequest(map[string]any{
		"prefix": "/docs",
	}))
	if err != nil {
		t.Fatalf("handleListRoutes failed: %v", err)
	}

	var out struct {
		Total int `json:"total"`
	}
	decodeResult(t, result, &out)

	if out.Total != 2 {
		t.Errorf("total = %d, want 2", out.Total)
	}
}

func TestHandleListRoutes_MissingDir(t *testing.T) {
	server := NewServer(t.TempDir(), nil)

	result, err := server.handleListRoutes(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleListRoutes failed: %v", err)
	}

	if !result.IsError {
		t.Error("Expected IsError to be true for a project without a pages dir")
	}
	if !strings.Contains(getResultText(result), "failed to load routes") {
		t.Errorf("unexpected error text: %s", getResultText(result))
	}
}

func TestHandleFindRoute(t *testing.T) {
	server := newSiteServer(t)

	tests := []struct {
		name      string
		path      string
		wantFound bool
		wantID    string
		wantParam string
	}{
		{"static", "/about", true, "pages/about.md", ""},
		{"dynamic", "/blog/hello-world", true, "pages/blog/$slug.md", "hello-world"},
		{"optional", "/docs/intro", true, "pages/docs/[lang]/intro.md", ""},
		{"missing", "/nope/nested/deep", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleFindRoute(context.Background(), makeRequest(map[string]any{
				"path": tt.path,
			}))
			if err != nil {
				t.Fatalf("handleFindRoute failed: %v", err)
			}

			var out struct {
				Found bool `json:"found"`
				Route struct {
					ID string `json:"id"`
				} `json:"route"`
				Params map[string]any `json:"params"`
			}
			decodeResult(t, result, &out)

			if out.Found != tt.wantFound {
				t.Fatalf("found = %v, want %v", out.Found, tt.wantFound)
			}
			if out.Route.ID != tt.wantID {
				t.Errorf("route.id = %q, want %q", out.Route.ID, tt.wantID)
			}
			if tt.wantParam != "" && out.Params["slug"] != tt.wantParam {
				t.Errorf("params = %v", out.Params)
			}
		})
	}
}

func TestHandleFindRoute_MissingPath(t *testing.T) {
	server := newSiteServer(t)

	result, err := server.handleFindRoute(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleFindRoute failed: %v", err)
	}

	if !result.IsError {
		t.Error("Expected IsError to be true for missing path")
	}
}

func TestHandleGeneratePath(t *testing.T) {
	server := newSiteServer(t)

	tests := []struct {
		name   string
		args   map[string]any
		want   string
		errSub string
	}{
		{
			name: "required param",
			args: map[string]any{"url": "/blog/:slug.html", "params": map[string]any{"slug": "hello"}},
			want: "/blog/hello.html",
		},
		{
			name: "optional omitted",
			args: map[string]any{"url": "docs/:lang?/intro"},
			want: "/docs/intro.html",
		},
		{
			name: "splat array",
			args: map[string]any{"url": "pages/files/*.md", "params": map[string]any{"splats": []any{"a", "b"}}},
			want: "/files/a/b.html",
		},
		{
			name: "static route",
			args: map[string]any{"url": "/about.html"},
			want: "/about.html",
		},
		{
			name:   "missing param",
			args:   map[string]any{"url": "/blog/:slug.html"},
			errSub: "missing required parameter",
		},
		{
			name:   "unknown route",
			args:   map[string]any{"url": "/nope"},
			errSub: "no matching route",
		},
		{
			name:   "missing url",
			args:   map[string]any{},
			errSub: "url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleGeneratePath(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handleGeneratePath failed: %v", err)
			}

			if tt.errSub != "" {
				if !result.IsError {
					t.Fatalf("Expected error result, got: %s", getResultText(result))
				}
				if !strings.Contains(getResultText(result), tt.errSub) {
					t.Errorf("error = %q, want substring %q", getResultText(result), tt.errSub)
				}
				return
			}

			var out struct {
				Success bool   `json:"success"`
				Path    string `json:"path"`
			}
			decodeResult(t, result, &out)

			if !out.Success {
				t.Error("Expected success")
			}
			if out.Path != tt.want {
				t.Errorf("path = %q, want %q", out.Path, tt.want)
			}
		})
	}
}

func TestHandleNavigation(t *testing.T) {
	server := newSiteServer(t)

	result, err := server.handleNavigation(context.Background(), makeRequest(map[string]any{
		"prefix": "/docs",
	}))
	if err != nil {
		t.Fatalf("handleNavigation failed: %v", err)
	}

	var nodes []struct {
		Stem     string `json:"stem"`
		Text     string `json:"text"`
		Children []struct {
			Stem string `json:"stem"`
		} `json:"children"`
	}
	decodeResult(t, result, &nodes)

	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}

	content := getResultText(result)
	if !strings.Contains(content, "Getting started") {
		t.Errorf("Expected sentence-cased text in result, got: %s", content)
	}
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.File() != "" {
		t.Errorf("File() = %q, want empty", cfg.File())
	}
	if cfg.Workdir() != dir {
		t.Errorf("Workdir() = %q, want %q", cfg.Workdir(), dir)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"dir", cfg.Dir, "pages"},
		{"extensions", cfg.Extensions, []string{".html", ".md"}},
		{"url_prefix", cfg.URLPrefix, "/"},
		{"url_suffix", cfg.URLSuffix, ".html"},
		{"cache", cfg.Cache, true},
		{"concurrency", cfg.Concurrency, 8},
		{"fallback_route", cfg.FallbackRoute, "/404"},
		{"data.dir", cfg.Data.Dir, "data"},
		{"data.local_suffix", cfg.Data.LocalSuffix, ".data"},
		{"data.extensions", cfg.Data.Extensions, []string{".json", ".yml", ".yaml"}},
		{"data.merge", cfg.Data.Merge, true},
		{"server.host", cfg.Server.Host, "localhost"},
		{"server.port", cfg.Server.Port, 3000},
		{"server.page_cache", cfg.Server.PageCache, 256},
		{"log.level", cfg.Log.Level, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Dir != "pages" || cfg.URLSuffix != ".html" || cfg.Workdir() != "." {
		t.Errorf("Default() = %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "routekit.yaml"), `
dir: content
url_suffix: ""
extensions: [.md]
data:
  merge: false
server:
  port: 8080
meta:
  docs:
    icon: book
`)

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !strings.HasSuffix(cfg.File(), "routekit.yaml") {
		t.Errorf("File() = %q", cfg.File())
	}
	if cfg.Dir != "content" {
		t.Errorf("Dir = %q, want content", cfg.Dir)
	}
	if cfg.URLSuffix != "" {
		t.Errorf("URLSuffix = %q, want empty", cfg.URLSuffix)
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{".md"}) {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if cfg.Data.Merge {
		t.Error("Data.Merge should be false")
	}
	if cfg.Data.Dir != "data" {
		t.Errorf("Data.Dir = %q, want default", cfg.Data.Dir)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Meta["docs"]["icon"] != "book" {
		t.Errorf("Meta = %v", cfg.Meta)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "dir: site\n")

	cfg, err := Load(dir, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dir != "site" {
		t.Errorf("Dir = %q, want site", cfg.Dir)
	}

	if _, err := Load(dir, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "routekit.yaml"), "dir: [unclosed\n")

	_, err := Load(dir, "")
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
	if !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ROUTEKIT_SERVER_PORT", "4000")
	t.Setenv("ROUTEKIT_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.LoggerConfig().Level != logger.LevelDebug {
		t.Errorf("LoggerConfig().Level = %v, want debug", cfg.LoggerConfig().Level)
	}
}

func TestConfig_LoggerConfigDev(t *testing.T) {
	t.Setenv("ROUTEKIT_DEV", "true")

	cfg := Default()
	cfg.Log.Level = "error"
	if got := cfg.LoggerConfig().Level; got != logger.LevelDebug {
		t.Errorf("LoggerConfig().Level = %v, want debug", got)
	}
}

func TestConfig_Path(t *testing.T) {
	cfg, err := Load("/srv/site", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Path("pages"); got != filepath.Join("/srv/site", "pages") {
		t.Errorf("Path() = %q", got)
	}
	if got := cfg.Path("/abs"); got != "/abs" {
		t.Errorf("Path() = %q", got)
	}
}

func TestConfig_ScannerOptions(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 2

	opts := cfg.ScannerOptions()
	if opts.Dir != "pages" || opts.URLSuffix != ".html" || opts.Concurrency != 2 {
		t.Errorf("ScannerOptions() = %+v", opts)
	}
	if opts.Cache == nil {
		t.Error("Cache should be set when cache is enabled")
	}
	if opts.FS == nil {
		t.Error("FS should be set")
	}

	cfg.Cache = false
	if cfg.ScannerOptions().Cache != nil {
		t.Error("Cache should be nil when cache is disabled")
	}
}

func TestConfig_NewTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "about.md"), "# About")
	writeFile(t, filepath.Join(dir, "pages", "blog", "$slug.md"), "# Post")
	writeFile(t, filepath.Join(dir, "data", "site.yml"), "name: routekit\n")

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tbl := cfg.NewTable(nil)
	if err := tbl.Load(context.Background()); err != nil {
		t.Fatalf("table Load() error = %v", err)
	}

	r := tbl.Get("/about")
	if r == nil {
		t.Fatal("expected /about to resolve")
	}
	if r.ID != "pages/about.md" {
		t.Errorf("ID = %q, want pages/about.md", r.ID)
	}
	if r.URL != "/about.html" {
		t.Errorf("URL = %q, want /about.html", r.URL)
	}
	if !tbl.Exists("/blog/hello") {
		t.Error("expected /blog/hello to resolve")
	}
	if !tbl.Data().Has("data/site.yml") {
		t.Error("expected data/site.yml to be loaded")
	}
}

func TestLoad_ExampleSite(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "site"), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File() == "" {
		t.Fatal("expected examples/site/routekit.yaml to be read")
	}

	tbl := cfg.NewTable(nil)
	if err := tbl.Load(context.Background()); err != nil {
		t.Fatalf("table Load() error = %v", err)
	}

	for _, url := range []string{"/", "/blog/index", "/blog/first-post", "/docs/intro", "/docs/en/intro", "/docs/guide/advanced-usage"} {
		if !tbl.Exists(url) {
			t.Errorf("expected %s to resolve", url)
		}
	}

	if fb := tbl.Fallback(); fb == nil || fb.ID != "pages/404.md" {
		t.Errorf("Fallback() = %v", fb)
	}

	site, ok := tbl.Data().Join()["site"].(map[string]any)
	if !ok || site["name"] != "Example" {
		t.Errorf("Join()[site] = %v", tbl.Data().Join()["site"])
	}

	if cfg.Meta["docs/guide"]["icon"] != "book" {
		t.Errorf("Meta = %v", cfg.Meta)
	}
}

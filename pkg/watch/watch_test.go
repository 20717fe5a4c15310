package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/routekit/pkg/cache"
	"github.com/abdul-hamid-achik/routekit/pkg/datastore"
	"github.com/abdul-hamid-achik/routekit/pkg/scanner"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/fsnotify/fsnotify"
)

type site struct {
	root   string
	pages  string
	data   string
	table  *table.Table
	cache  *cache.Routes
	events []Event
	mu     sync.Mutex
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func newSite(t *testing.T, configure ...func(*table.Options)) *site {
	t.Helper()
	root := t.TempDir()
	s := &site{
		root:  root,
		pages: filepath.ToSlash(filepath.Join(root, "pages")),
		data:  filepath.ToSlash(filepath.Join(root, "data")),
		cache: cache.NewRoutes(),
	}

	writeFile(t, filepath.Join(s.pages, "index.md"), "# Home")
	writeFile(t, filepath.Join(s.pages, "about.md"), "# About")
	writeFile(t, filepath.Join(s.data, "site.json"), `{"name": "routekit"}`)

	opts := table.Options{
		Dir:       s.pages,
		URLSuffix: ".html",
		Cache:     s.cache,
		Exclude:   scanner.NewGitignore(),
		Data:      datastore.New(datastore.Options{Dir: s.data, LocalDir: s.pages}),
	}
	for _, fn := range configure {
		fn(&opts)
	}
	s.table = table.New(opts)
	if err := s.table.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func (s *site) watcher(t *testing.T, opts Options) *Watcher {
	t.Helper()
	opts.OnChange = func(e Event) {
		s.mu.Lock()
		s.events = append(s.events, e)
		s.mu.Unlock()
	}
	w, err := New(s.table, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func (s *site) changes() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestNew_WatchesDirectories(t *testing.T) {
	s := newSite(t)
	writeFile(t, filepath.Join(s.pages, "blog", "post.md"), "# Post")
	writeFile(t, filepath.Join(s.pages, ".git", "HEAD"), "ref")

	w := s.watcher(t, Options{Dirs: []string{filepath.Join(s.root, "missing")}})

	watched := map[string]bool{}
	for _, d := range w.Watched() {
		watched[filepath.ToSlash(d)] = true
	}

	for _, want := range []string{s.pages, s.pages + "/blog", s.data} {
		if !watched[want] {
			t.Errorf("expected %s to be watched, got %v", want, w.Watched())
		}
	}
	if watched[s.pages+"/.git"] {
		t.Error("hidden directory should not be watched")
	}
}

func TestApply_Route(t *testing.T) {
	s := newSite(t)
	w := s.watcher(t, Options{})

	contact := filepath.Join(s.pages, "contact.md")
	writeFile(t, contact, "# Contact")

	s.cache.Set(s.pages, nil)
	event, ok := w.apply(contact, fsnotify.Create)
	if !ok {
		t.Fatal("expected route change to apply")
	}
	if event.Kind != KindRoute || event.Removed {
		t.Errorf("event = %+v", event)
	}
	if !s.table.Exists("/contact") {
		t.Error("expected /contact to be added")
	}
	if _, ok := s.cache.Get(s.pages); ok {
		t.Error("expected route cache to be invalidated")
	}

	event, ok = w.apply(contact, fsnotify.Remove)
	if !ok || !event.Removed {
		t.Fatalf("remove not applied: %+v", event)
	}
	if s.table.Exists("/contact") {
		t.Error("expected /contact to be removed")
	}

	if got := len(s.changes()); got != 2 {
		t.Errorf("OnChange called %d times, want 2", got)
	}
}

func TestApply_Data(t *testing.T) {
	s := newSite(t)
	w := s.watcher(t, Options{})
	data := s.table.Data()

	site := filepath.Join(s.data, "site.json")
	writeFile(t, site, `{"name": "changed"}`)

	event, ok := w.apply(site, fsnotify.Write)
	if !ok || event.Kind != KindData {
		t.Fatalf("event = %+v, ok = %v", event, ok)
	}
	v, _ := data.Get(filepath.ToSlash(site))
	if v.(map[string]any)["name"] != "changed" {
		t.Errorf("data not reloaded: %v", v)
	}

	local := filepath.Join(s.pages, "pages.data.yml")
	writeFile(t, local, "root: true\n")
	if event, ok := w.apply(local, fsnotify.Create); !ok || event.Kind != KindData {
		t.Errorf("local data event = %+v, ok = %v", event, ok)
	}
	if s.table.Exists("/pages.data") {
		t.Error("local data file must not become a route")
	}

	if _, ok := w.apply(site, fsnotify.Remove); !ok {
		t.Fatal("expected data removal to apply")
	}
	if data.Has(filepath.ToSlash(site)) {
		t.Error("expected data entry to be deleted")
	}
}

func TestApply_InvalidData(t *testing.T) {
	s := newSite(t)
	w := s.watcher(t, Options{})

	bad := filepath.Join(s.data, "bad.json")
	writeFile(t, bad, `{`)

	if _, ok := w.apply(bad, fsnotify.Write); ok {
		t.Error("invalid data must not apply")
	}
	if len(s.changes()) != 0 {
		t.Error("OnChange called for a failed reload")
	}
}

func TestApply_Layout(t *testing.T) {
	s := newSite(t)
	w := s.watcher(t, Options{})

	event, ok := w.apply(filepath.Join(s.root, "layouts", "base.html"), fsnotify.Write)
	if !ok || event.Kind != KindLayout {
		t.Errorf("event = %+v, ok = %v", event, ok)
	}
}

func TestApply_Ignored(t *testing.T) {
	s := newSite(t)
	w := s.watcher(t, Options{})

	for _, p := range []string{
		filepath.Join(s.root, "main.go"),
		filepath.Join(s.pages, "image.png"),
	} {
		if _, ok := w.apply(p, fsnotify.Write); ok {
			t.Errorf("expected %s to be ignored", p)
		}
	}
}

func TestApply_ExcludedRoute(t *testing.T) {
	s := newSite(t, func(o *table.Options) {
		o.Exclude = scanner.NewGitignore("*.draft.md", "drafts/")
		o.Filter = func(e scanner.Entry) bool {
			return !strings.HasPrefix(e.Name, "_")
		}
	})
	w := s.watcher(t, Options{})

	tests := []struct {
		name string
		file string
		url  string
	}{
		{"ignored file", "post.draft.md", "/post.draft"},
		{"ignored directory", "drafts/post.md", "/drafts/post"},
		{"filtered file", "_partial.md", "/_partial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(s.pages, filepath.FromSlash(tt.file))
			writeFile(t, p, "# Draft")
			if event, ok := w.apply(p, fsnotify.Create); ok {
				t.Errorf("expected %s to be skipped, got %+v", tt.file, event)
			}
			if s.table.Exists(tt.url) {
				t.Errorf("expected %s not to be added", tt.url)
			}
		})
	}

	if err := s.table.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, tt := range tests {
		if s.table.Exists(tt.url) {
			t.Errorf("Load added %s", tt.url)
		}
	}

	contact := filepath.Join(s.pages, "contact.md")
	writeFile(t, contact, "# Contact")
	if _, ok := w.apply(contact, fsnotify.Create); !ok {
		t.Error("expected an accepted route to apply")
	}
	if len(s.changes()) != 1 {
		t.Errorf("OnChange called %d times, want 1", len(s.changes()))
	}
}

func TestRun_DebouncedEvents(t *testing.T) {
	s := newSite(t)
	w := s.watcher(t, Options{Debounce: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	page := filepath.Join(s.pages, "news.md")
	for i := 0; i < 3; i++ {
		writeFile(t, page, "# News")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !s.table.Exists("/news") && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !s.table.Exists("/news") {
		t.Fatal("expected /news to be added by the watcher")
	}

	time.Sleep(200 * time.Millisecond)
	routeEvents := 0
	for _, e := range s.changes() {
		if e.Kind == KindRoute {
			routeEvents++
		}
	}
	if routeEvents != 1 {
		t.Errorf("got %d route changes, want 1 after debouncing", routeEvents)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Run did not stop after cancel")
	}
}

func TestRun_NewDirectory(t *testing.T) {
	s := newSite(t)
	w := s.watcher(t, Options{Debounce: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	staging := filepath.Join(s.root, "staging", "guides")
	writeFile(t, filepath.Join(staging, "intro.md"), "# Intro")
	if err := os.Rename(filepath.Join(s.root, "staging"), filepath.Join(s.pages, "docs")); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !s.table.Exists("/docs/guides/intro") && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !s.table.Exists("/docs/guides/intro") {
		t.Error("expected files in a moved-in directory to be added")
	}
}

// Package table maintains the live route table of a site: the sorted route
// list, the data store feeding route contexts, and the lookups a dev server
// or watcher performs against them.
package table

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/pkg/cache"
	"github.com/abdul-hamid-achik/routekit/pkg/datastore"
	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/abdul-hamid-achik/routekit/pkg/scanner"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// MarkupExtensions are the extensions of files rendered as pages.
var MarkupExtensions = []string{".md", ".mdx", ".html"}

// Options configures a Table.
type Options struct {
	// Dir is the routes directory (default: "pages").
	Dir string

	// Extensions lists accepted route file extensions (default: .html, .md).
	Extensions []string

	// URLPrefix is prepended to every URL (default: "/").
	URLPrefix string

	// URLSuffix is appended to every URL and to lookups missing it.
	URLSuffix string

	// FallbackRoute is served when nothing matches (default: "/404").
	FallbackRoute string

	// Concurrency caps the concurrent scan fan-out.
	Concurrency int

	// Data feeds route contexts. Nil disables data.
	Data *datastore.Store

	// Cache memoizes scans. Load always rescans and refreshes it.
	Cache *cache.Routes

	Filter  scanner.FilterFunc
	Exclude scanner.Excluder
	FS      billy.Filesystem
	Logger  *logger.Logger
}

// Table is a concurrency-safe, sorted route list.
type Table struct {
	mu        sync.RWMutex
	opts      Options
	routes    []*route.Route
	routeOpts route.Options
	fallback  string
	log       *logger.Logger
}

// New creates an empty table. Call Load to populate it.
func New(opts Options) *Table {
	if opts.Dir == "" {
		opts.Dir = "pages"
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = scanner.DefaultExtensions
	}
	if opts.FallbackRoute == "" {
		opts.FallbackRoute = "/404"
	}
	opts.Dir = path.Clean(filepath.ToSlash(opts.Dir))

	root := opts.Dir
	if root == "." {
		root = ""
	}

	t := &Table{
		opts:      opts,
		routeOpts: route.Options{Root: root, URLPrefix: opts.URLPrefix, URLSuffix: opts.URLSuffix},
		log:       opts.Logger,
	}
	t.fallback = t.normalize(opts.FallbackRoute)
	return t
}

// Options returns the effective options.
func (t *Table) Options() Options {
	return t.opts
}

// Data returns the data store, which may be nil.
func (t *Table) Data() *datastore.Store {
	return t.opts.Data
}

// ScannerOptions returns the scan options derived from the table.
func (t *Table) ScannerOptions() scanner.Options {
	return scanner.Options{
		Dir:         t.opts.Dir,
		Extensions:  t.opts.Extensions,
		URLPrefix:   t.opts.URLPrefix,
		URLSuffix:   t.opts.URLSuffix,
		Cache:       t.opts.Cache,
		Filter:      t.opts.Filter,
		Exclude:     t.opts.Exclude,
		FS:          t.opts.FS,
		Concurrency: t.opts.Concurrency,
		Logger:      t.opts.Logger,
	}
}

// Load initializes the data store, rescans the routes directory and
// replaces the table wholesale. On error the table is left unchanged.
func (t *Table) Load(ctx context.Context) error {
	if t.opts.Data != nil {
		if err := t.opts.Data.Init(); err != nil {
			return fmt.Errorf("failed to load data: %w", err)
		}
	}

	if t.opts.Cache != nil {
		t.opts.Cache.Invalidate(t.opts.Dir)
	}

	routes, err := scanner.CreateRoutes(ctx, t.ScannerOptions())
	if err != nil {
		return err
	}

	table := make([]*route.Route, len(routes))
	for i, r := range routes {
		c := r.Clone()
		if c.Context == nil {
			c.Context = map[string]any{}
		}
		table[i] = c
	}

	t.mu.Lock()
	t.routes = table
	t.mu.Unlock()

	t.log.Info("routes loaded", "dir", t.opts.Dir, "count", len(table))
	return nil
}

// NewRoute compiles id with the table's root, prefix and suffix.
func (t *Table) NewRoute(id string) (*route.Route, error) {
	r, err := route.Compile(path.Clean(filepath.ToSlash(id)), t.routeOpts)
	if err != nil {
		return nil, err
	}
	r.Context = map[string]any{}
	return r, nil
}

// normalize maps "/" to "/index", trims trailing slashes and appends the
// URL suffix when missing.
func (t *Table) normalize(url string) string {
	if url == "" || url == "/" {
		url = "/index"
	} else {
		url = strings.TrimRight(url, "/")
	}
	if !strings.HasSuffix(url, t.opts.URLSuffix) {
		url += t.opts.URLSuffix
	}
	return url
}

// Get returns the first route matching the normalized url, or nil.
func (t *Table) Get(url string) *route.Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return route.Find(t.normalize(url), t.routes)
}

// Match is Get plus the parameters captured by a dynamic route.
func (t *Table) Match(url string) (*route.Route, route.Params, bool) {
	normalized := t.normalize(url)

	t.mu.RLock()
	r := route.Find(normalized, t.routes)
	t.mu.RUnlock()

	if r == nil {
		return nil, nil, false
	}
	if p, ok := r.Pattern(); ok {
		params, _ := p.MatchParams(normalized)
		return r, params, true
	}
	return r, route.Params{}, true
}

// Exists reports whether url resolves to a route.
func (t *Table) Exists(url string) bool {
	return t.Get(url) != nil
}

// Fallback returns the fallback route, or nil when the table has none.
func (t *Table) Fallback() *route.Route {
	return t.Get(t.fallback)
}

// Routes returns a copy of the route list.
func (t *Table) Routes() []*route.Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*route.Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// Set adds or replaces a route and returns its position. A route with the
// same ID, or a static route at the same URL, is replaced in place;
// otherwise r is inserted after every route that does not sort after it.
func (t *Table) Set(r *route.Route) int {
	if r.Context == nil {
		r.Context = map[string]any{}
	}

	t.mu.Lock()
	pos := t.indexOf(r)
	if pos >= 0 {
		t.routes[pos] = r
	} else {
		pos = t.insertPosition(r)
		t.routes = append(t.routes, nil)
		copy(t.routes[pos+1:], t.routes[pos:])
		t.routes[pos] = r
	}
	t.mu.Unlock()

	t.log.Action(r.URL, logger.ActionSet)
	return pos
}

// indexOf finds the slot r replaces. Callers hold the lock.
func (t *Table) indexOf(r *route.Route) int {
	for i, existing := range t.routes {
		if existing.ID == r.ID {
			return i
		}
	}

	existing := route.Find(t.normalize(r.URL), t.routes)
	if existing == nil || existing.IsDynamic() {
		return -1
	}
	for i, x := range t.routes {
		if x == existing {
			return i
		}
	}
	return -1
}

func (t *Table) insertPosition(r *route.Route) int {
	pos := 0
	for i, x := range t.routes {
		if route.CompareNatural(x, r) <= 0 {
			pos = i + 1
		}
	}
	return pos
}

// Delete removes r, matched by ID or else by URL, and returns its former
// position, or -1 when it is not in the table.
func (t *Table) Delete(r *route.Route) int {
	t.mu.Lock()
	pos := -1
	for i, x := range t.routes {
		if x.ID == r.ID {
			pos = i
			break
		}
	}
	if pos < 0 {
		pos = route.FindIndex(t.normalize(r.URL), t.routes)
	}
	if pos >= 0 {
		t.routes = append(t.routes[:pos], t.routes[pos+1:]...)
	}
	t.mu.Unlock()

	if pos >= 0 {
		t.log.Action(r.URL, logger.ActionDelete)
	}
	return pos
}

// IsWatchable reports whether a change to id can affect the table.
func (t *Table) IsWatchable(id string) bool {
	id = filepath.ToSlash(id)
	if within(id, t.opts.Dir) {
		return true
	}
	return t.opts.Data != nil && within(id, t.opts.Data.Options().Dir)
}

func within(id, dir string) bool {
	return dir == "." || id == dir || strings.HasPrefix(id, dir+"/")
}

// IsIgnored reports whether a full Load would skip the file id: the file or
// one of its directories below Dir is excluded, or rejected by Filter.
func (t *Table) IsIgnored(id string) bool {
	id = filepath.ToSlash(id)

	exclude := t.opts.Exclude
	if exclude == nil {
		fs := t.opts.FS
		if fs == nil {
			fs = osfs.New("")
		}
		g, err := scanner.ReadGitignore(fs, ".gitignore")
		if err != nil {
			t.log.Warn("failed to read ignore rules", "err", err)
			g = scanner.NewGitignore()
		}
		exclude = g
	}

	entries := []scanner.Entry{{Name: path.Base(id), Path: id}}
	for dir := path.Dir(id); dir != t.opts.Dir && within(dir, t.opts.Dir) && dir != "." && dir != "/"; dir = path.Dir(dir) {
		entries = append(entries, scanner.Entry{Name: path.Base(dir), Path: dir, IsDir: true})
	}

	for _, e := range entries {
		if exclude.IsExcluded(e.Path, e.IsDir) {
			return true
		}
		if t.opts.Filter != nil && !t.opts.Filter(e) {
			return true
		}
	}
	return false
}

// IsMarkup reports whether id is a markup page.
func (t *Table) IsMarkup(id string) bool {
	ext := path.Ext(id)
	for _, e := range MarkupExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IsRoute reports whether id is a route file of this table.
func (t *Table) IsRoute(id string) bool {
	id = filepath.ToSlash(id)
	if !within(id, t.opts.Dir) {
		return false
	}
	ext := path.Ext(id)
	for _, e := range t.opts.Extensions {
		if e == "*" || e == ext {
			return true
		}
	}
	return false
}

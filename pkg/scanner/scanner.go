package scanner

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sourcegraph/conc/pool"
)

// Scanner discovers routes below a root directory.
type Scanner struct {
	opts       Options
	root       string
	routeOpts  route.Options
	extensions map[string]bool
	anyExt     bool
	exclude    Excluder
	log        *logger.Logger
}

// New creates a Scanner, applying defaults to opts. The ignore file is read
// here, so an unreadable .gitignore is reported before any listing happens.
func New(opts Options) (*Scanner, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.FS == nil {
		opts.FS = defaultFS()
	}

	s := &Scanner{
		opts:       opts,
		root:       cleanPath(opts.Dir),
		extensions: make(map[string]bool, len(opts.Extensions)),
		exclude:    opts.Exclude,
		log:        opts.Logger,
	}

	for _, ext := range opts.Extensions {
		if ext == "*" {
			s.anyExt = true
		}
		s.extensions[ext] = true
	}

	if s.exclude == nil {
		g, err := ReadGitignore(opts.FS, ".gitignore")
		if err != nil {
			return nil, err
		}
		s.exclude = g
	}

	// Route IDs keep the root as written; "." is stripped implicitly.
	root := s.root
	if root == "." {
		root = ""
	}
	s.routeOpts = route.Options{Root: root, URLPrefix: opts.URLPrefix, URLSuffix: opts.URLSuffix}

	return s, nil
}

// defaultFS returns the OS filesystem. An empty base resolves relative paths
// against the working directory and keeps absolute paths unchanged.
func defaultFS() billy.Filesystem {
	return osfs.New("")
}

// cleanPath converts p to a clean slash-separated path.
func cleanPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// Root returns the cleaned scan root.
func (s *Scanner) Root() string {
	return s.root
}

// RouteOptions returns the options used to compile routes, so that callers
// can compile single files consistently with a scan.
func (s *Scanner) RouteOptions() route.Options {
	return s.routeOpts
}

// Scan walks the root sequentially and returns the routes in traversal order.
func (s *Scanner) Scan(ctx context.Context) ([]*route.Route, error) {
	var routes []*route.Route
	if err := s.visit(ctx, s.root, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func (s *Scanner) visit(ctx context.Context, dir string, routes *[]*route.Route) error {
	entries, err := s.list(ctx, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !s.accept(entry) {
			continue
		}

		if entry.IsDir {
			if err := s.visit(ctx, entry.Path, routes); err != nil {
				return err
			}
			continue
		}

		r, err := s.compile(ctx, entry)
		if err != nil {
			return err
		}
		if r != nil {
			*routes = append(*routes, r)
		}
	}

	return nil
}

// ScanConcurrent walks the root, dispatching the entries of each directory
// level concurrently. The result holds the same routes as Scan, in an
// unspecified order.
func (s *Scanner) ScanConcurrent(ctx context.Context) ([]*route.Route, error) {
	return s.visitConcurrent(ctx, s.root)
}

func (s *Scanner) visitConcurrent(ctx context.Context, dir string) ([]*route.Route, error) {
	entries, err := s.list(ctx, dir)
	if err != nil {
		return nil, err
	}

	results := make([][]*route.Route, len(entries))
	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(s.opts.Concurrency)

	for i, entry := range entries {
		p.Go(func(ctx context.Context) error {
			if !s.accept(entry) {
				return nil
			}

			if entry.IsDir {
				children, err := s.visitConcurrent(ctx, entry.Path)
				if err != nil {
					return err
				}
				results[i] = children
				return nil
			}

			r, err := s.compile(ctx, entry)
			if err != nil {
				return err
			}
			if r != nil {
				results[i] = []*route.Route{r}
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	var routes []*route.Route
	for _, rs := range results {
		routes = append(routes, rs...)
	}
	return routes, nil
}

// list reads a directory, failing with a *ScanError when it cannot be listed.
func (s *Scanner) list(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := s.opts.FS.Stat(dir)
	if err != nil {
		return nil, &ScanError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Path: dir, Err: ErrNotDirectory}
	}

	infos, err := s.opts.FS.ReadDir(dir)
	if err != nil {
		return nil, &ScanError{Path: dir, Err: err}
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, Entry{
			Name:  fi.Name(),
			Path:  joinPath(dir, fi.Name()),
			IsDir: fi.IsDir(),
			Info:  fi,
		})
	}
	return entries, nil
}

func joinPath(dir, name string) string {
	if dir == "." {
		return name
	}
	return path.Join(dir, name)
}

// accept applies the exclusion predicate, then the caller's filter.
func (s *Scanner) accept(entry Entry) bool {
	if s.exclude.IsExcluded(entry.Path, entry.IsDir) {
		return false
	}
	if s.opts.Filter != nil && !s.opts.Filter(entry) {
		return false
	}
	return true
}

// compile turns an accepted file into a route. It returns nil for files with
// an unaccepted extension or an excluded full path.
func (s *Scanner) compile(ctx context.Context, entry Entry) (*route.Route, error) {
	if !s.anyExt && !s.extensions[path.Ext(entry.Name)] {
		return nil, nil
	}

	id := cleanPath(entry.Path)
	if s.exclude.IsExcluded(id, false) {
		return nil, nil
	}

	r, err := route.Compile(id, s.routeOpts)
	if err != nil {
		return nil, err
	}

	if s.opts.Handler != nil {
		if err := s.opts.Handler(ctx, r, s.root); err != nil {
			return nil, fmt.Errorf("handle route %s: %w", id, err)
		}
	}

	s.log.Debug("found route", "id", r.ID, "url", r.URL, "dynamic", r.IsDynamic())
	return r, nil
}

// CreateRoutes scans opts.Dir concurrently and returns the routes sorted by
// ID. With opts.Cache set, a cached result for the same Dir is returned
// verbatim without listing anything, and a fresh result is stored. A failed
// scan returns no routes and caches nothing.
func CreateRoutes(ctx context.Context, opts Options) ([]*route.Route, error) {
	return createRoutes(ctx, opts, (*Scanner).ScanConcurrent)
}

// CreateRoutesSync is CreateRoutes with a sequential walk.
func CreateRoutesSync(ctx context.Context, opts Options) ([]*route.Route, error) {
	return createRoutes(ctx, opts, (*Scanner).Scan)
}

func createRoutes(ctx context.Context, opts Options, walk func(*Scanner, context.Context) ([]*route.Route, error)) ([]*route.Route, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}

	scan := func() ([]*route.Route, error) {
		s, err := New(opts)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		routes, err := walk(s, ctx)
		if err != nil {
			return nil, err
		}
		route.SortByID(routes)

		s.log.Debug("scanned", "dir", s.root, "routes", len(routes), "took", time.Since(start).Round(time.Microsecond))
		return routes, nil
	}

	if opts.Cache == nil {
		return scan()
	}
	return opts.Cache.Load(opts.Dir, scan)
}

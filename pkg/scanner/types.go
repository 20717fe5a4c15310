// Package scanner walks a content directory and turns every accepted file
// into a route. It supports a blocking walk, a concurrent walk that fans out
// per directory level, and cached route creation keyed by scan root.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/pkg/cache"
	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/go-git/go-billy/v5"
)

// DefaultExtensions are the file extensions accepted when none are configured.
var DefaultExtensions = []string{".html", ".md"}

// DefaultConcurrency caps in-flight entries per directory level in ScanConcurrent.
const DefaultConcurrency = 8

// Entry is a directory entry passed to a FilterFunc.
type Entry struct {
	// Name is the base name of the entry.
	Name string
	// Path is the slash-separated path of the entry, including the scan root.
	Path string
	// IsDir is true for directories.
	IsDir bool
	// Info is the underlying file info.
	Info os.FileInfo
}

// FilterFunc decides whether an entry is visited. It must be safe for
// concurrent use when passed to ScanConcurrent.
type FilterFunc func(entry Entry) bool

// HandlerFunc is called for each compiled route before it is appended to the
// result. It may mutate the route, e.g. to attach loaded content to Context.
// A returned error aborts the scan.
type HandlerFunc func(ctx context.Context, r *route.Route, root string) error

// Options configures a scan.
type Options struct {
	// Dir is the directory to scan (default: ".").
	Dir string

	// Extensions lists accepted file extensions; "*" accepts any (default: .html, .md).
	Extensions []string

	// URLPrefix is prepended to every route URL (default: "/").
	URLPrefix string

	// URLSuffix is appended to every route URL, e.g. ".html".
	URLSuffix string

	// Cache memoizes sorted results keyed by Dir. Nil disables caching.
	Cache *cache.Routes

	// Filter skips entries for which it returns false.
	Filter FilterFunc

	// Handler enriches each route.
	Handler HandlerFunc

	// Exclude is the ignore-rule predicate. Nil loads the working directory's .gitignore.
	Exclude Excluder

	// FS is the filesystem to list. Nil uses the OS filesystem.
	FS billy.Filesystem

	// Concurrency caps in-flight entries per directory level (default: 8).
	Concurrency int

	// Logger receives debug output for each discovered route.
	Logger *logger.Logger
}

// ErrNotDirectory is wrapped by ScanError when the scan path is a file.
var ErrNotDirectory = errors.New("not a directory")

// ScanError reports a directory that could not be listed.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

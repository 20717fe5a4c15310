// Package datastore loads global and route-local data files and exposes
// them to route contexts.
//
// Global data lives under a data directory and is nested by path segments
// in Join. Local data lives beside routes, named after the segment it
// belongs to plus a suffix, for example pages/blog/blog.data.yml.
package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/pkg/cache"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedExtension is returned when loading a file with an extension
// the store does not decode.
var ErrUnsupportedExtension = errors.New("unsupported data file extension")

// DefaultExtensions are the decodable data file extensions.
var DefaultExtensions = []string{".json", ".yml", ".yaml"}

// Options configures a Store.
type Options struct {
	// Dir holds global data files (default: "data").
	Dir string `json:"dir"`

	// LocalDir is the routes directory holding local data files. Empty
	// disables local data.
	LocalDir string `json:"localDir"`

	// LocalSuffix marks local data files (default: ".data").
	LocalSuffix string `json:"localSuffix"`

	// Extensions lists accepted extensions (default: DefaultExtensions).
	Extensions []string `json:"extensions"`

	// Merge deep-merges maps that land on the same key in Join.
	Merge bool `json:"merge"`

	FS     billy.Filesystem `json:"-"`
	Logger *logger.Logger   `json:"-"`
}

// Store holds decoded data files keyed by file path.
type Store struct {
	opts    Options
	entries *cache.Store[any]
	log     *logger.Logger
}

// New creates a Store with defaults applied.
func New(opts Options) *Store {
	if opts.Dir == "" {
		opts.Dir = "data"
	}
	if opts.LocalSuffix == "" {
		opts.LocalSuffix = ".data"
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.FS == nil {
		opts.FS = osfs.New("")
	}
	opts.Dir = cleanDir(opts.Dir)
	opts.LocalDir = cleanDir(opts.LocalDir)

	return &Store{
		opts:    opts,
		entries: cache.NewStore[any](),
		log:     opts.Logger,
	}
}

func cleanDir(dir string) string {
	if dir == "" {
		return ""
	}
	return path.Clean(filepath.ToSlash(dir))
}

// Options returns the effective options.
func (s *Store) Options() Options {
	return s.opts
}

// Sources returns the source patterns scanned by Init.
func (s *Store) Sources() []string {
	exts := make([]string, 0, len(s.opts.Extensions))
	for _, ext := range s.opts.Extensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	group := "{" + strings.Join(exts, ",") + "}"

	sources := []string{s.opts.Dir + "/**/*." + group}
	if s.opts.LocalDir != "" {
		sources = append(sources, s.opts.LocalDir+"/**/*"+s.opts.LocalSuffix+"."+group)
	}
	return sources
}

// DataSources lists the data files currently on disk, sorted.
func (s *Store) DataSources() ([]string, error) {
	var ids []string
	for _, dir := range []string{s.opts.Dir, s.opts.LocalDir} {
		if dir == "" {
			continue
		}
		if _, err := s.opts.FS.Stat(dir); errors.Is(err, os.ErrNotExist) {
			continue
		}

		err := util.Walk(s.opts.FS, dir, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			id := filepath.ToSlash(p)
			if !info.IsDir() && s.IsDataSource(id) {
				ids = append(ids, id)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list data sources in %s: %w", dir, err)
		}
	}

	sort.Strings(ids)
	return dedupe(ids), nil
}

func dedupe(ids []string) []string {
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || ids[i-1] != id {
			out = append(out, id)
		}
	}
	return out
}

// Init clears the store and loads every data source.
func (s *Store) Init() error {
	ids, err := s.DataSources()
	if err != nil {
		return err
	}

	s.entries.Clear()
	for _, id := range ids {
		v, err := s.Load(id)
		if err != nil {
			return err
		}
		s.Set(id, v)
	}
	return nil
}

// Load reads and decodes a data file without storing it.
func (s *Store) Load(id string) (any, error) {
	ext := path.Ext(id)
	if !s.hasValidExtension(id) {
		return nil, fmt.Errorf("%s: %w", id, ErrUnsupportedExtension)
	}

	data, err := util.ReadFile(s.opts.FS, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}

	var v any
	switch ext {
	case ".json":
		err = json.Unmarshal(data, &v)
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &v)
	default:
		return nil, fmt.Errorf("%s: %w", id, ErrUnsupportedExtension)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", id, err)
	}
	return v, nil
}

// Reload loads id from disk and stores it.
func (s *Store) Reload(id string) error {
	v, err := s.Load(id)
	if err != nil {
		return err
	}
	s.Set(id, v)
	return nil
}

// Set stores a value for id.
func (s *Store) Set(id string, v any) {
	s.entries.Set(id, v)
	s.log.Action(id, logger.ActionSet)
}

// Get returns a copy of the value stored for id.
func (s *Store) Get(id string) (any, bool) {
	v, ok := s.entries.Get(id)
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

// Has reports whether id is stored.
func (s *Store) Has(id string) bool {
	return s.entries.Has(id)
}

// Delete removes id from the store.
func (s *Store) Delete(id string) bool {
	ok := s.entries.Delete(id)
	s.log.Action(id, logger.ActionDelete)
	return ok
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return s.entries.Len()
}

func (s *Store) hasValidExtension(id string) bool {
	ext := path.Ext(id)
	for _, e := range s.opts.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IsDataSource reports whether id is a global or local data file.
func (s *Store) IsDataSource(id string) bool {
	return s.IsGlobal(id) || s.IsLocal(id)
}

// IsGlobal reports whether id is a data file under the data directory.
func (s *Store) IsGlobal(id string) bool {
	return under(id, s.opts.Dir) && s.hasValidExtension(id)
}

// IsLocal reports whether id is a local data file under the routes directory.
func (s *Store) IsLocal(id string) bool {
	if s.opts.LocalDir == "" || !under(id, s.opts.LocalDir) || !s.hasValidExtension(id) {
		return false
	}
	base := strings.TrimSuffix(path.Base(id), path.Ext(id))
	return strings.HasSuffix(base, s.opts.LocalSuffix)
}

func under(id, dir string) bool {
	if dir == "" {
		return false
	}
	if dir == "." {
		return !strings.HasPrefix(id, "../") && !strings.HasPrefix(id, "/")
	}
	return strings.HasPrefix(id, dir+"/")
}

// Join nests every global entry under its path segments relative to the
// data directory, so data/site/menu.yml is found at site.menu.
func (s *Store) Join() map[string]any {
	out := map[string]any{}
	for _, id := range s.entries.Keys() {
		if !s.IsGlobal(id) {
			continue
		}
		v, _ := s.entries.Get(id)
		setPath(out, segments(id, s.opts.Dir), deepCopy(v), s.opts.Merge)
	}
	return out
}

// segments returns the key path of a global data file.
func segments(id, dir string) []string {
	rel := strings.TrimPrefix(id, dir+"/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	var out []string
	for _, p := range strings.Split(rel, "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RouteData merges the local data that applies to url: the root local file
// first, then one file per URL segment. An index segment reads the index
// file of the current directory.
func (s *Store) RouteData(url, suffix string) map[string]any {
	out := map[string]any{}
	if s.opts.LocalDir == "" {
		return out
	}

	if suffix != "" {
		url = strings.TrimSuffix(url, suffix)
	}

	dir := s.opts.LocalDir
	s.mergeLocal(out, dir, path.Base(dir))

	for _, seg := range strings.Split(url, "/") {
		if seg == "" {
			continue
		}
		if seg == "index" {
			s.mergeLocal(out, dir, "index")
			continue
		}
		dir = dir + "/" + seg
		s.mergeLocal(out, dir, seg)
	}
	return out
}

func (s *Store) mergeLocal(dst map[string]any, dir, name string) {
	for _, ext := range s.opts.Extensions {
		v, ok := s.entries.Get(dir + "/" + name + s.opts.LocalSuffix + ext)
		if !ok {
			continue
		}
		if m, ok := deepCopy(v).(map[string]any); ok {
			for k, val := range m {
				dst[k] = val
			}
		}
	}
}

// Dump renders the configuration, sources and entries as indented JSON.
func (s *Store) Dump() ([]byte, error) {
	sources, err := s.DataSources()
	if err != nil {
		return nil, err
	}

	entries := make(map[string]any, s.entries.Len())
	s.entries.Range(func(k string, v any) bool {
		entries[k] = v
		return true
	})

	return json.MarshalIndent(map[string]any{
		"config":      s.opts,
		"source":      s.Sources(),
		"datasources": sources,
		"entries":     entries,
	}, "", "  ")
}

// setPath assigns v at keys inside m. With merge set, maps meeting at the
// same key are merged recursively instead of replaced.
func setPath(m map[string]any, keys []string, v any, merge bool) {
	if len(keys) == 0 {
		if src, ok := v.(map[string]any); ok {
			for k, val := range src {
				assign(m, k, val, merge)
			}
		}
		return
	}

	for _, key := range keys[:len(keys)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	assign(m, keys[len(keys)-1], v, merge)
}

func assign(m map[string]any, key string, v any, merge bool) {
	if merge {
		dst, dok := m[key].(map[string]any)
		src, sok := v.(map[string]any)
		if dok && sok {
			for k, val := range src {
				assign(dst, k, val, true)
			}
			return
		}
	}
	m[key] = v
}

// deepCopy copies decoded JSON/YAML values so callers cannot mutate the store.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

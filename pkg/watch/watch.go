// Package watch keeps a route table in sync with the filesystem.
//
// Events from fsnotify are debounced per path, then classified as data,
// route or layout changes. Data files are reloaded or dropped from the data
// store, route files are set on or deleted from the table, and every
// effective change invalidates the route cache and notifies OnChange.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a path's events are applied.
const DefaultDebounce = 300 * time.Millisecond

// Kind classifies an applied change.
type Kind string

const (
	KindRoute  Kind = "route"
	KindData   Kind = "data"
	KindLayout Kind = "layout"
)

// Event describes a change that was applied.
type Event struct {
	Path    string
	Kind    Kind
	Removed bool
}

// Options configures a Watcher.
type Options struct {
	// Dirs are extra directories to watch, e.g. "layouts".
	Dirs []string

	// Debounce is the per-path quiet period (default: DefaultDebounce).
	Debounce time.Duration

	// OnChange is called after every applied change.
	OnChange func(Event)

	Logger *logger.Logger
}

// Watcher applies filesystem changes to a table.
type Watcher struct {
	table *table.Table
	opts  Options
	fsw   *fsnotify.Watcher
	log   *logger.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]fsnotify.Op
	closed  bool
}

// New creates a watcher over the table's routes directory, its data
// directory and opts.Dirs. Missing directories are skipped.
func New(t *table.Table, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		table:   t,
		opts:    opts,
		fsw:     fsw,
		log:     opts.Logger,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]fsnotify.Op),
	}

	dirs := []string{t.Options().Dir}
	if data := t.Data(); data != nil {
		dirs = append(dirs, data.Options().Dir)
	}
	dirs = append(dirs, opts.Dirs...)

	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

// Watched returns the directories currently registered with fsnotify.
func (w *Watcher) Watched() []string {
	return w.fsw.WatchList()
}

// addRecursive registers dir and its subdirectories, skipping hidden and
// dependency directories.
func (w *Watcher) addRecursive(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && skipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		w.log.Debug("watching", "dir", path)
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.receive(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) receive(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if skipDir(info.Name()) {
				return
			}
			if err := w.addRecursive(event.Name); err != nil {
				w.log.Warn("failed to watch directory", "dir", event.Name, "err", err)
			}
			w.createTree(event.Name)
			return
		}
	}

	w.schedule(event.Name, event.Op)
}

// createTree schedules every file below a newly created directory, since
// files moved in with it produce no events of their own.
func (w *Watcher) createTree(dir string) {
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != dir && skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		w.schedule(path, fsnotify.Create)
		return nil
	})
}

// schedule debounces events per path. The latest operation wins.
func (w *Watcher) schedule(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.pending[path] = op
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		op, ok := w.pending[path]
		delete(w.pending, path)
		delete(w.timers, path)
		closed := w.closed
		w.mu.Unlock()

		if ok && !closed {
			w.apply(path, op)
		}
	})
}

// apply performs the table and data store updates for one path.
func (w *Watcher) apply(path string, op fsnotify.Op) (Event, bool) {
	id := filepath.ToSlash(path)
	if !w.table.IsWatchable(id) && !inLayouts(id) {
		return Event{}, false
	}
	removed := op&(fsnotify.Remove|fsnotify.Rename) != 0
	event := Event{Path: id, Removed: removed}

	data := w.table.Data()
	switch {
	case data != nil && data.IsDataSource(id):
		event.Kind = KindData
		if removed {
			data.Delete(id)
			break
		}
		if err := data.Reload(id); err != nil {
			w.log.Warn("failed to reload data", "id", id, "err", err)
			return Event{}, false
		}

	case w.table.IsRoute(id):
		if !removed && w.table.IsIgnored(id) {
			return Event{}, false
		}
		event.Kind = KindRoute
		r, err := w.table.NewRoute(id)
		if err != nil {
			w.log.Warn("failed to compile route", "id", id, "err", err)
			return Event{}, false
		}
		if removed {
			w.table.Delete(r)
		} else {
			w.table.Set(r)
		}

	case w.table.IsMarkup(id) && inLayouts(id):
		event.Kind = KindLayout
		w.log.Action(id, logger.ActionReload)

	default:
		return Event{}, false
	}

	if c := w.table.Options().Cache; c != nil {
		c.Invalidate(w.table.Options().Dir)
	}
	if w.opts.OnChange != nil {
		w.opts.OnChange(event)
	}
	return event, true
}

func inLayouts(id string) bool {
	for _, part := range strings.Split(id, "/") {
		if part == "layouts" {
			return true
		}
	}
	return false
}

// Close stops pending timers and the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	return w.fsw.Close()
}

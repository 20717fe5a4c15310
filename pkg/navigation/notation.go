package navigation

import (
	"strings"

	"github.com/abdul-hamid-achik/routekit/pkg/route"
)

// Notation is a nested keyed structure of routes, one level per stem
// segment. Keys keep first-seen order.
type Notation struct {
	keys    []string
	entries map[string]*Entry
}

// Entry is one key of a Notation. It is a leaf when Branch is nil, and a
// branch otherwise. A branch may own a route of its own.
type Entry struct {
	Route  *route.Route
	Branch *Notation
}

// IsLeaf reports whether the entry holds a route and no children.
func (e *Entry) IsLeaf() bool {
	return e.Branch == nil
}

// NewNotation creates an empty notation.
func NewNotation() *Notation {
	return &Notation{entries: make(map[string]*Entry)}
}

// BuildNotation inserts every route in order.
func BuildNotation(routes []*route.Route) *Notation {
	n := NewNotation()
	for _, r := range routes {
		n.Insert(r)
	}
	return n
}

// Insert places r at the key path given by its stem. Intermediate leaves
// are promoted to branches that keep their route, and an existing branch is
// never replaced: only its own route is set.
func (n *Notation) Insert(r *route.Route) {
	keys := strings.Split(r.Stem, "/")
	level := n
	for _, key := range keys[:len(keys)-1] {
		e := level.entry(key)
		if e.Branch == nil {
			e.Branch = NewNotation()
		}
		level = e.Branch
	}
	level.entry(keys[len(keys)-1]).Route = r
}

func (n *Notation) entry(key string) *Entry {
	if e, ok := n.entries[key]; ok {
		return e
	}
	e := &Entry{}
	n.entries[key] = e
	n.keys = append(n.keys, key)
	return e
}

// Keys returns the keys of this level in insertion order.
func (n *Notation) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Get returns the entry stored under key.
func (n *Notation) Get(key string) (*Entry, bool) {
	e, ok := n.entries[key]
	return e, ok
}

// Len returns the number of keys at this level.
func (n *Notation) Len() int {
	return len(n.keys)
}

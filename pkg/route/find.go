package route

import (
	"errors"
	"sort"

	"github.com/maruel/natural"
)

// ErrNoMatch is returned by callers that need an error when Find returns nil.
var ErrNoMatch = errors.New("no matching route")

// Find returns the first route that matches requestPath, or nil.
//
// The scan is linear and the first match wins, so the order of routes encodes
// precedence: literal routes must precede dynamic ones to win over them.
func Find(requestPath string, routes []*Route) *Route {
	for _, r := range routes {
		if r.Matches(requestPath) {
			return r
		}
	}
	return nil
}

// FindIndex is like Find but returns the position of the match, or -1.
func FindIndex(requestPath string, routes []*Route) int {
	for i, r := range routes {
		if r.Matches(requestPath) {
			return i
		}
	}
	return -1
}

// SortByID sorts routes in place by ID using byte-wise comparison.
func SortByID(routes []*Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].ID < routes[j].ID
	})
}

// CompareNatural compares two routes by ID in natural order, so that
// "page2" sorts before "page10". It returns -1, 0 or 1.
func CompareNatural(a, b *Route) int {
	switch {
	case natural.Less(a.ID, b.ID):
		return -1
	case natural.Less(b.ID, a.ID):
		return 1
	default:
		return 0
	}
}

// SortNatural sorts routes in place by ID in natural order.
func SortNatural(routes []*Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return CompareNatural(routes[i], routes[j]) < 0
	})
}

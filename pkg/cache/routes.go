package cache

import (
	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"golang.org/x/sync/singleflight"
)

// Routes memoizes sorted scan results keyed by scan root.
//
// The cache is owned by a long-lived orchestrator (the route table or dev
// server) and has no expiry: after filesystem changes the owner must call
// Invalidate. Concurrent loads of the same root are coalesced into one scan.
type Routes struct {
	store *Store[[]*route.Route]
	group singleflight.Group
}

// NewRoutes creates an empty route cache.
func NewRoutes() *Routes {
	return &Routes{store: NewStore[[]*route.Route]()}
}

// Get returns the cached routes for root. The returned slice is shared and
// must not be modified.
func (c *Routes) Get(root string) ([]*route.Route, bool) {
	return c.store.Get(root)
}

// Set stores routes for root.
func (c *Routes) Set(root string, routes []*route.Route) {
	c.store.Set(root, routes)
}

// Invalidate drops the entry for root.
func (c *Routes) Invalidate(root string) {
	c.store.Delete(root)
	c.group.Forget(root)
}

// Clear drops every entry.
func (c *Routes) Clear() {
	c.store.Clear()
}

// Roots returns the cached roots in sorted order.
func (c *Routes) Roots() []string {
	return c.store.Keys()
}

// Load returns the cached routes for root, or runs scan and caches its
// result. A failed scan caches nothing.
func (c *Routes) Load(root string, scan func() ([]*route.Route, error)) ([]*route.Route, error) {
	if routes, ok := c.store.Get(root); ok {
		return routes, nil
	}

	v, err, _ := c.group.Do(root, func() (any, error) {
		if routes, ok := c.store.Get(root); ok {
			return routes, nil
		}
		routes, err := scan()
		if err != nil {
			return nil, err
		}
		c.store.Set(root, routes)
		return routes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*route.Route), nil
}

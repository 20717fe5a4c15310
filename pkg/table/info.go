package table

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/routekit/pkg/route"
)

// RouteInfo is the serializable summary of a route used by inspection
// endpoints and tools.
type RouteInfo struct {
	ID        string   `json:"id"`
	Stem      string   `json:"stem"`
	URL       string   `json:"url"`
	Index     bool     `json:"index"`
	IsDynamic bool     `json:"isDynamic"`
	Pattern   string   `json:"pattern,omitempty"`
	Params    []string `json:"params,omitempty"`
}

// Info summarizes r.
func Info(r *route.Route) RouteInfo {
	info := RouteInfo{
		ID:        r.ID,
		Stem:      r.Stem,
		URL:       r.URL,
		Index:     r.Index,
		IsDynamic: r.IsDynamic(),
	}
	if p, ok := r.Pattern(); ok {
		info.Pattern = p.String()
		info.Params = p.Names()
	}
	return info
}

// Infos summarizes every route of the table in order.
func (t *Table) Infos() []RouteInfo {
	routes := t.Routes()
	out := make([]RouteInfo, len(routes))
	for i, r := range routes {
		out[i] = Info(r)
	}
	return out
}

// Lookup returns the route whose ID, stem or URL template equals key.
// Unlike Get it does not match request paths against dynamic patterns.
func (t *Table) Lookup(key string) *route.Route {
	stem := strings.Trim(key, "/")

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.routes {
		if r.ID == key || r.URL == key || r.Stem == stem {
			return r
		}
	}
	return nil
}

// GeneratePath substitutes params into the route identified by key (see
// Lookup). Static routes return their URL.
func (t *Table) GeneratePath(key string, params route.Params) (string, error) {
	r := t.Lookup(key)
	if r == nil {
		return "", fmt.Errorf("%w: %s", route.ErrNoMatch, key)
	}

	p, ok := r.Pattern()
	if !ok {
		return r.URL, nil
	}
	return p.GeneratePath(params)
}

// Package route compiles file identifiers into routes and matches request
// paths against them.
package route

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/abdul-hamid-achik/routekit/pkg/segment"
)

// Options configures route compilation.
type Options struct {
	// Root is the scan root stripped from the front of every identifier.
	Root string

	// URLPrefix is prepended to every URL (default: "/").
	URLPrefix string

	// URLSuffix is appended to every URL, e.g. ".html".
	URLSuffix string
}

// Route is one entry per discovered file.
//
// A route is either static or dynamic. Dynamic routes carry a compiled
// Pattern; IsDynamic and Pattern always agree because only Compile sets it.
type Route struct {
	// ID is the normalized file path, unique within a scan.
	ID string `json:"id"`

	// Stem is the route path without extension, in canonical segment form.
	Stem string `json:"stem"`

	// URL is the public path. For dynamic routes it is a template such as /blog/:slug.html.
	URL string `json:"url"`

	// Index is true when the URL basename is "index" (plus suffix).
	Index bool `json:"index"`

	// Context holds data attached by scan handlers.
	Context map[string]any `json:"context,omitempty"`

	pattern *Pattern
}

// IsDynamic reports whether the route has at least one placeholder segment.
func (r *Route) IsDynamic() bool {
	return r.pattern != nil
}

// Pattern returns the compiled pattern of a dynamic route.
func (r *Route) Pattern() (*Pattern, bool) {
	return r.pattern, r.pattern != nil
}

// Matches reports whether the request path addresses this route. Dynamic
// routes use their pattern; static routes require an exact match of the URL.
func (r *Route) Matches(requestPath string) bool {
	if r.pattern != nil {
		return r.pattern.IsMatch(requestPath)
	}
	return matchStatic(r.URL, requestPath)
}

// Clone returns a shallow copy of the route sharing its compiled pattern.
func (r *Route) Clone() *Route {
	c := *r
	if r.Context != nil {
		c.Context = make(map[string]any, len(r.Context))
		for k, v := range r.Context {
			c.Context[k] = v
		}
	}
	return &c
}

// MarshalJSON adds the isDynamic field to the serialized route.
func (r Route) MarshalJSON() ([]byte, error) {
	type plain Route
	return json.Marshal(struct {
		plain
		IsDynamic bool `json:"isDynamic"`
	}{plain(r), r.pattern != nil})
}

// Compile builds a route from a file identifier.
//
// The root prefix and file extension are stripped, each remaining segment is
// canonicalized, and a pattern is compiled when any segment is dynamic.
func Compile(id string, opts Options) (*Route, error) {
	routePath := strings.TrimPrefix(id, opts.Root)
	routePath = strings.TrimSuffix(routePath, path.Ext(id))

	segments := segment.Split(routePath)
	stem := strings.Join(segments, "/")
	prefix := normalizePrefix(opts.URLPrefix)
	url := prefix + stem + opts.URLSuffix

	r := &Route{
		ID:    id,
		Stem:  stem,
		URL:   url,
		Index: strings.HasSuffix(url, "/index"+opts.URLSuffix),
	}

	for _, s := range segments {
		if !segment.IsDynamic(s) {
			continue
		}
		p, err := compilePattern(id, segments, prefix, opts.URLSuffix)
		if err != nil {
			return nil, err
		}
		r.pattern = p
		break
	}

	return r, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level route tables.
func MustCompile(id string, opts Options) *Route {
	r, err := Compile(id, opts)
	if err != nil {
		panic(err)
	}
	return r
}

// normalizePrefix ensures the prefix ends with exactly one "/".
func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	return prefix + "/"
}

// PatternCompileError reports a malformed dynamic segment sequence.
type PatternCompileError struct {
	ID      string
	Segment string
	Reason  string
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("compile route %s: segment %q: %s", e.ID, e.Segment, e.Reason)
}

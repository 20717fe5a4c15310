package table

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/routekit/pkg/datastore"
	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Crumb is one breadcrumb item. Href is relative to the current page and
// empty for the current page itself.
type Crumb struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Breadcrumb returns one item per stem segment, outermost first.
func (t *Table) Breadcrumb(r *route.Route) []Crumb {
	segments := strings.Split(r.Stem, "/")
	crumbs := make([]Crumb, len(segments))

	up := 0
	for i := len(segments) - 1; i >= 0; i-- {
		href := ""
		if up > 0 {
			href = strings.TrimSuffix(strings.Repeat("../", up), "/")
		}
		crumbs[i] = Crumb{Text: upperFirst(segments[i]), Href: href}
		up++
	}
	return crumbs
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Context rebuilds the context of r from global data, the route's local
// data and its breadcrumb. Parsed front matter under "matter" is kept.
//
// The returned map is owned by the caller; later calls never modify it.
func (t *Table) Context(r *route.Route) map[string]any {
	ctx := map[string]any{}
	if data := t.opts.Data; data != nil {
		for k, v := range data.Join() {
			ctx[k] = v
		}
		for k, v := range data.RouteData(r.URL, t.opts.URLSuffix) {
			ctx[k] = v
		}
	}
	ctx["breadcrumb"] = t.Breadcrumb(r)

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := make(map[string]any, len(ctx)+1)
	for k, v := range ctx {
		stored[k] = v
	}
	if m, ok := r.Context["matter"]; ok {
		ctx["matter"] = deepCopy(m)
		stored["matter"] = m
	}
	r.Context = stored

	return ctx
}

// ParseMatter reads the front matter of r and stores it under
// context["matter"], returning the content without it. When content is nil
// the route file is read from the table's filesystem.
//
// The matter holds the route fields, the front matter values, title and
// titleTemplate (with %s replaced by the title), and layout normalized to
// "<name>.html".
func (t *Table) ParseMatter(r *route.Route, content []byte) ([]byte, error) {
	if content == nil {
		fs := t.opts.FS
		if fs == nil {
			fs = osfs.New("")
		}
		b, err := util.ReadFile(fs, r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.ID, err)
		}
		content = b
	}

	front, body, err := datastore.ParseFrontMatter(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.ID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	previous, _ := r.Context["matter"].(map[string]any)
	fields := map[string]any{}
	for k, v := range previous {
		fields[k] = v
	}
	for k, v := range front {
		fields[k] = v
	}

	title := stringOr(fields["title"], "")
	template := stringOr(fields["titleTemplate"], "%s")
	layout := fields["layout"]
	delete(fields, "title")
	delete(fields, "titleTemplate")
	delete(fields, "layout")

	matter := map[string]any{
		"titleTemplate": strings.ReplaceAll(template, "%s", title),
		"title":         title,
		"stem":          r.Stem,
		"url":           r.URL,
		"index":         r.Index,
		"isDynamic":     r.IsDynamic(),
	}
	for k, v := range fields {
		matter[k] = v
	}
	if layout != nil && layout != "" {
		name := fmt.Sprint(layout)
		if i := strings.Index(name, "."); i >= 0 {
			name = name[:i]
		}
		matter["layout"] = name + ".html"
	}

	if previous != nil && t.mergeData() {
		merged := make(map[string]any, len(previous)+len(matter))
		for k, v := range previous {
			merged[k] = v
		}
		for k, v := range matter {
			merged[k] = v
		}
		matter = merged
	}

	next := make(map[string]any, len(r.Context)+1)
	for k, v := range r.Context {
		next[k] = v
	}
	next["matter"] = matter
	r.Context = next

	return body, nil
}

// deepCopy copies nested maps and slices so the result shares no mutable
// state with v.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}

func (t *Table) mergeData() bool {
	return t.opts.Data != nil && t.opts.Data.Options().Merge
}

func stringOr(v any, def string) string {
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

package table

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/routekit/pkg/navigation"
	"github.com/abdul-hamid-achik/routekit/pkg/route"
)

// Meta attaches extra fields to navigation nodes, keyed by stem.
type Meta map[string]map[string]any

// Navigation builds the navigation of the routes whose URL starts with
// urlPrefix. Every node gets a sentence-cased Text from its last stem
// segment. Branches directly under the prefix get Type "group", deeper
// branches an ID derived from their stem. When the tree has a single
// enclosing node, its children are returned.
func (t *Table) Navigation(urlPrefix string, meta Meta) ([]*navigation.Node, error) {
	if urlPrefix == "" {
		urlPrefix = "/"
	}

	var routes []*route.Route
	for _, r := range t.Routes() {
		if strings.HasPrefix(r.URL, urlPrefix) {
			routes = append(routes, r)
		}
	}
	if len(routes) == 0 {
		return []*navigation.Node{}, nil
	}

	nodes, err := navigation.Build(routes, func(node, parent *navigation.Node) error {
		segments := strings.Split(node.Stem, "/")
		node.Text = sentenceCase(strings.ReplaceAll(segments[len(segments)-1], "-", " "))

		if node.IsBranch() {
			if len(segments) > 2 {
				node.ID = strings.ReplaceAll(node.Stem, "/", "-")
			} else {
				node.Type = "group"
			}
		}

		if m, ok := meta[node.Stem]; ok {
			node.Meta = make(map[string]any, len(m))
			for k, v := range m {
				node.Meta[k] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(nodes[0].Children) > 0 {
		return nodes[0].Children, nil
	}
	return nodes, nil
}

func sentenceCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

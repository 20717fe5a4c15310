// Package navigation folds a flat route list into a navigation tree.
//
// Routes are first inserted into a Notation keyed by stem segments, then the
// notation is walked depth-first. Directories without a route of their own
// become synthetic parent nodes marked as index nodes.
package navigation

import (
	"context"

	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/abdul-hamid-achik/routekit/pkg/segment"
)

// Node is a navigation entry. It mirrors a route without its ID.
type Node struct {
	Stem      string         `json:"stem"`
	URL       string         `json:"url"`
	Index     bool           `json:"index"`
	IsDynamic bool           `json:"isDynamic"`
	Context   map[string]any `json:"context,omitempty"`

	// Text, ID, Type and Meta are left for handlers to fill in.
	Text string         `json:"text,omitempty"`
	ID   string         `json:"id,omitempty"`
	Type string         `json:"type,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`

	Children []*Node `json:"children,omitempty"`

	route *route.Route
}

// Route returns the route the node was built from, or nil for synthetic nodes.
func (n *Node) Route() *route.Route {
	return n.route
}

// IsSynthetic reports whether the node stands in for a directory with no route.
func (n *Node) IsSynthetic() bool {
	return n.route == nil
}

// IsBranch reports whether the node holds children. Branch nodes carry a
// non-nil Children slice before their handler runs.
func (n *Node) IsBranch() bool {
	return n.Children != nil
}

// IsRoot reports whether n is the pseudo-node handed to handlers as the
// parent of top-level nodes.
func (n *Node) IsRoot() bool {
	return n.Stem == "" && n.route == nil
}

// HandlerFunc is called for every emitted node with its parent. Root-level
// nodes receive the root pseudo-node, whose stem is empty.
type HandlerFunc func(node, parent *Node) error

// ContextHandlerFunc is a HandlerFunc that receives the build context.
type ContextHandlerFunc func(ctx context.Context, node, parent *Node) error

// Build folds routes into a tree. Children appear in first-seen order, so
// callers wanting a particular order sort the routes beforehand.
func Build(routes []*route.Route, handler HandlerFunc) ([]*Node, error) {
	var h ContextHandlerFunc
	if handler != nil {
		h = func(_ context.Context, node, parent *Node) error {
			return handler(node, parent)
		}
	}
	return BuildContext(context.Background(), routes, h)
}

// BuildContext is Build with a context-aware handler. The build stops with
// ctx.Err() once ctx is done.
func BuildContext(ctx context.Context, routes []*route.Route, handler ContextHandlerFunc) ([]*Node, error) {
	root := &Node{}
	b := builder{ctx: ctx, handler: handler}
	if err := b.walk(BuildNotation(routes), root); err != nil {
		return nil, err
	}
	return root.Children, nil
}

// MustBuild is Build without a handler.
func MustBuild(routes []*route.Route) []*Node {
	nodes, err := Build(routes, nil)
	if err != nil {
		panic(err)
	}
	return nodes
}

type builder struct {
	ctx     context.Context
	handler ContextHandlerFunc
}

func (b *builder) walk(n *Notation, parent *Node) error {
	for _, key := range n.keys {
		if err := b.ctx.Err(); err != nil {
			return err
		}

		e := n.entries[key]
		if e.IsLeaf() {
			node := fromRoute(e.Route)
			if err := b.handle(node, parent); err != nil {
				return err
			}
			parent.Children = append(parent.Children, node)
			continue
		}

		var node *Node
		if e.Route != nil {
			node = fromRoute(e.Route)
			node.Children = []*Node{}
		} else {
			node = synthetic(key, parent)
		}
		parent.Children = append(parent.Children, node)
		if err := b.handle(node, parent); err != nil {
			return err
		}
		if err := b.walk(e.Branch, node); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) handle(node, parent *Node) error {
	if b.handler == nil {
		return nil
	}
	return b.handler(b.ctx, node, parent)
}

func fromRoute(r *route.Route) *Node {
	return &Node{
		Stem:      r.Stem,
		URL:       r.URL,
		Index:     r.Index,
		IsDynamic: r.IsDynamic(),
		Context:   r.Context,
		route:     r,
	}
}

func synthetic(key string, parent *Node) *Node {
	stem := key
	if parent.Stem != "" {
		stem = parent.Stem + "/" + key
	}
	return &Node{
		Stem:      stem,
		URL:       "/" + stem,
		Index:     true,
		IsDynamic: segment.IsDynamic(key),
		Children:  []*Node{},
	}
}

// Walk visits nodes depth-first, parents before children. Returning false
// from fn skips the node's children.
func Walk(nodes []*Node, fn func(node *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(*Node, int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

// Count returns the number of nodes in the tree.
func Count(nodes []*Node) int {
	total := 0
	Walk(nodes, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

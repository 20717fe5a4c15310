package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, ids ...string) []*route.Route {
	t.Helper()
	routes := make([]*route.Route, 0, len(ids))
	for _, id := range ids {
		r, err := route.Compile(id, route.Options{Root: "pages"})
		require.NoError(t, err, id)
		routes = append(routes, r)
	}
	return routes
}

func stems(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Stem)
	}
	return out
}

func TestBuild_SyntheticParent(t *testing.T) {
	nodes, err := Build(compile(t, "pages/a/b.md", "pages/a/c.md"), nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	a := nodes[0]
	assert.Equal(t, "a", a.Stem)
	assert.Equal(t, "/a", a.URL)
	assert.True(t, a.Index)
	assert.False(t, a.IsDynamic)
	assert.True(t, a.IsSynthetic())
	assert.Equal(t, []string{"a/b", "a/c"}, stems(a.Children))

	for _, child := range a.Children {
		assert.False(t, child.IsSynthetic())
		assert.False(t, child.IsBranch())
	}
}

func TestBuild_InsertionOrder(t *testing.T) {
	routes := compile(t,
		"pages/zeta.md",
		"pages/docs/02-setup.md",
		"pages/alpha.md",
		"pages/docs/01-intro.md",
	)

	nodes, err := Build(routes, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "docs", "alpha"}, stems(nodes))
	assert.Equal(t, []string{"docs/setup", "docs/intro"}, stems(nodes[1].Children))
}

func TestBuild_NestedSynthetic(t *testing.T) {
	nodes, err := Build(compile(t, "pages/a/b/c/d.md"), nil)
	require.NoError(t, err)

	var got []string
	Walk(nodes, func(n *Node, depth int) bool {
		got = append(got, n.Stem)
		return true
	})
	assert.Equal(t, []string{"a", "a/b", "a/b/c", "a/b/c/d"}, got)
	assert.Equal(t, 4, Count(nodes))
	assert.Equal(t, "/a/b/c", nodes[0].Children[0].Children[0].URL)
}

func TestBuild_DynamicSynthetic(t *testing.T) {
	nodes, err := Build(compile(t, "pages/[lang]/index.md", "pages/$user/profile.md"), nil)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, ":lang?", nodes[0].Stem)
	assert.True(t, nodes[0].IsDynamic)
	assert.Equal(t, ":user", nodes[1].Stem)
	assert.True(t, nodes[1].IsDynamic)
	assert.True(t, nodes[1].Children[0].IsDynamic)
}

func TestBuild_BranchOwnsRoute(t *testing.T) {
	t.Run("route before children", func(t *testing.T) {
		nodes, err := Build(compile(t, "pages/blog.md", "pages/blog/post.md"), nil)
		require.NoError(t, err)
		require.Len(t, nodes, 1)

		blog := nodes[0]
		assert.False(t, blog.IsSynthetic())
		assert.True(t, blog.IsBranch())
		assert.Equal(t, "pages/blog.md", blog.Route().ID)
		assert.Equal(t, []string{"blog/post"}, stems(blog.Children))
	})

	t.Run("children before route", func(t *testing.T) {
		nodes, err := Build(compile(t, "pages/blog/post.md", "pages/blog.md"), nil)
		require.NoError(t, err)
		require.Len(t, nodes, 1)

		blog := nodes[0]
		assert.False(t, blog.IsSynthetic())
		assert.Equal(t, []string{"blog/post"}, stems(blog.Children))
	})
}

func TestBuild_SameStemLaterWins(t *testing.T) {
	nodes, err := Build(compile(t, "pages/about.md", "pages/about.html"), nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "pages/about.html", nodes[0].Route().ID)
}

func TestBuild_Handler(t *testing.T) {
	type call struct{ node, parent string }
	var calls []call

	handler := func(node, parent *Node) error {
		if parent.IsRoot() {
			node.Type = "group"
		}
		node.Text = node.Stem
		calls = append(calls, call{node.Stem, parent.Stem})
		return nil
	}

	nodes, err := Build(compile(t, "pages/index.md", "pages/guide/intro.md"), handler)
	require.NoError(t, err)

	assert.Equal(t, []call{
		{"index", ""},
		{"guide", ""},
		{"guide/intro", "guide"},
	}, calls)
	assert.Equal(t, "group", nodes[0].Type)
	assert.Equal(t, "group", nodes[1].Type)
	assert.Empty(t, nodes[1].Children[0].Type)
	assert.Equal(t, "guide/intro", nodes[1].Children[0].Text)
}

func TestBuild_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(compile(t, "pages/a.md", "pages/b.md"), func(node, parent *Node) error {
		if node.Stem == "b" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestBuildContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildContext(ctx, compile(t, "pages/a.md"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_Empty(t *testing.T) {
	nodes, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestNode_JSON(t *testing.T) {
	nodes := MustBuild(compile(t, "pages/docs/intro.md"))

	data, err := json.Marshal(nodes)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)

	assert.NotContains(t, decoded[0], "id")
	assert.Equal(t, "docs", decoded[0]["stem"])
	assert.Equal(t, true, decoded[0]["index"])

	children := decoded[0]["children"].([]any)
	child := children[0].(map[string]any)
	assert.Equal(t, "/docs/intro", child["url"])
	assert.NotContains(t, child, "id")
}

func TestNotation(t *testing.T) {
	n := BuildNotation(compile(t, "pages/a.md", "pages/a/b.md", "pages/c/d.md"))

	assert.Equal(t, []string{"a", "c"}, n.Keys())
	assert.Equal(t, 2, n.Len())

	a, ok := n.Get("a")
	require.True(t, ok)
	assert.False(t, a.IsLeaf())
	assert.Equal(t, "pages/a.md", a.Route.ID)

	b, ok := a.Branch.Get("b")
	require.True(t, ok)
	assert.True(t, b.IsLeaf())

	c, ok := n.Get("c")
	require.True(t, ok)
	assert.Nil(t, c.Route)

	_, ok = n.Get("missing")
	assert.False(t, ok)
}

package server

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/abdul-hamid-achik/routekit/pkg/navigation"
)

// indexPage renders the navigation tree as a nested HTML list.
func indexPage(title string, nodes []*navigation.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+`</title></head><body><h1>`+templ.EscapeString(title)+`</h1>`); err != nil {
			return err
		}
		if err := navList(nodes).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func navList(nodes []*navigation.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(nodes) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, "<ul>"); err != nil {
			return err
		}
		for _, n := range nodes {
			if err := navItem(n).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>")
		return err
	})
}

func navItem(n *navigation.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		text := n.Text
		if text == "" {
			text = n.Stem
		}

		item := "<li>"
		switch {
		case n.IsSynthetic() || n.IsDynamic:
			item += `<span>` + templ.EscapeString(text) + `</span>`
		default:
			item += `<a href="` + templ.EscapeString(string(templ.URL(n.URL))) + `">` + templ.EscapeString(text) + `</a>`
		}
		if _, err := io.WriteString(w, item); err != nil {
			return err
		}
		if err := navList(n.Children).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</li>")
		return err
	})
}

// Package openapi describes a route table as an OpenAPI 3 document. Every
// route becomes a GET operation returning the rendered page.
package openapi

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/abdul-hamid-achik/routekit/pkg/segment"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Extension keys attached to path parameters.
const (
	ExtOptional = "x-routekit-optional"
	ExtSplat    = "x-routekit-splat"
	ExtPrefix   = "x-routekit-prefix"
	ExtSource   = "x-routekit-source"
)

// Info describes the generated document.
type Info struct {
	Title          string
	Version        string
	Description    string
	Servers        []string
	OpenAPIVersion string
}

// Generate builds a document with one GET operation per route. Routes
// sharing a path template are collapsed onto the first.
func Generate(routes []*route.Route, info Info) *openapi3.T {
	if info.Title == "" {
		info.Title = "Routes"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	if info.OpenAPIVersion == "" {
		info.OpenAPIVersion = "3.1.0"
	}

	doc := &openapi3.T{
		OpenAPI: info.OpenAPIVersion,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, url := range info.Servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}

	for _, r := range routes {
		p := Path(r)
		if doc.Paths.Value(p) != nil {
			continue
		}
		doc.Paths.Set(p, &openapi3.PathItem{Get: buildOperation(r)})
	}

	return doc
}

// Path returns the OpenAPI path template of r: ":name" placeholders become
// "{name}" and modifiers are dropped.
func Path(r *route.Route) string {
	p, ok := r.Pattern()
	if !ok {
		return r.URL
	}

	parts := make([]string, 0, len(p.Segments()))
	for _, seg := range p.Segments() {
		if !seg.IsDynamic() {
			parts = append(parts, seg.Value)
			continue
		}
		parts = append(parts, seg.Prefix+"{"+seg.Name+"}")
	}

	return p.Prefix() + strings.Join(parts, "/") + p.Suffix()
}

func buildOperation(r *route.Route) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: operationID(r),
		Summary:     summary(r),
		Tags:        []string{tag(r)},
		Responses:   openapi3.NewResponses(),
		Extensions:  map[string]any{ExtSource: r.ID},
	}

	op.Responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: openapi3.Ptr("Page content"),
			Content: openapi3.Content{
				contentType(r.ID): &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				},
			},
		},
	})

	if p, ok := r.Pattern(); ok {
		op.Parameters = buildParameters(p.Segments())
		op.Responses.Set("404", &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: openapi3.Ptr("Not Found"),
			},
		})
	}

	return op
}

func buildParameters(segments []segment.Segment) openapi3.Parameters {
	var params openapi3.Parameters

	for _, seg := range segments {
		if !seg.IsDynamic() {
			continue
		}

		param := &openapi3.Parameter{
			Name:        seg.Name,
			In:          openapi3.ParameterInPath,
			Required:    true,
			Description: fmt.Sprintf("%s parameter", seg.Name),
			Schema: &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type: &openapi3.Types{"string"},
				},
			},
			Extensions: map[string]any{},
		}

		if seg.IsSplat() || seg.Prefix != "" {
			param.Style = openapi3.SerializationSimple
			param.Explode = openapi3.Ptr(false)
			param.Schema.Value = &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
			}
			param.Extensions[ExtSplat] = true
		}
		if seg.Modifier == segment.ModOptional || seg.Modifier == segment.ModZeroOrMore {
			param.Extensions[ExtOptional] = true
		}
		if seg.Prefix != "" {
			param.Extensions[ExtPrefix] = seg.Prefix
		}
		if len(param.Extensions) == 0 {
			param.Extensions = nil
		}

		params = append(params, &openapi3.ParameterRef{Value: param})
	}

	return params
}

func operationID(r *route.Route) string {
	stem := r.Stem
	if stem == "" {
		stem = "index"
	}
	replacer := strings.NewReplacer("/", "-", ":", "", "?", "", "*", "", "+", "", ".", "-")
	return "get-" + replacer.Replace(stem)
}

func summary(r *route.Route) string {
	if matter, ok := r.Context["matter"].(map[string]any); ok {
		if title, ok := matter["title"].(string); ok && title != "" {
			return title
		}
	}
	return r.Stem
}

func tag(r *route.Route) string {
	first, _, _ := strings.Cut(r.Stem, "/")
	if first == "" || first == r.Stem {
		return "default"
	}
	return first
}

func contentType(id string) string {
	switch path.Ext(id) {
	case ".md", ".mdx":
		return "text/markdown"
	default:
		return "text/html"
	}
}

// Marshal encodes doc as "json" (indented) or "yaml".
func Marshal(doc *openapi3.T, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml", "yml":
		// round-trip through JSON so extensions and refs use their JSON names
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use json or yaml)", format)
	}
}

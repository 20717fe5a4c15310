package route

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/routekit/pkg/segment"
)

var (
	// paramNameRe matches valid parameter names.
	paramNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	// ErrMissingParam is wrapped by ParamError when a required parameter is absent.
	ErrMissingParam = errors.New("missing required parameter")

	// ErrInvalidParam is wrapped by ParamError when a value has an unusable type.
	ErrInvalidParam = errors.New("invalid parameter value")
)

// Params maps parameter names to captured values. Scalar parameters hold a
// string; splat parameters hold a []string in path order.
type Params map[string]any

// String returns the scalar value of name, or "".
func (p Params) String(name string) string {
	s, _ := p[name].(string)
	return s
}

// Strings returns the splat value of name, or nil.
func (p Params) Strings(name string) []string {
	switch v := p[name].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	}
	return nil
}

// ParamError is returned by GeneratePath when a parameter cannot be substituted.
type ParamError struct {
	Name string
	Err  error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Name, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// Pattern is the compiled matcher and generator of a dynamic route.
type Pattern struct {
	template string
	prefix   string
	suffix   string
	segments []segment.Segment
	re       *regexp.Regexp
	// groups[i] is the segment index captured by submatch i+1.
	groups []int
}

// compilePattern builds a pattern from canonical segments.
//
// Literal segments match themselves, required segments match one component,
// optional segments make their "/segment" pair optional, and splats match a
// run of components (zero or more for *, one or more for +).
func compilePattern(id string, canonical []string, prefix, suffix string) (*Pattern, error) {
	p := &Pattern{
		template: prefix + strings.Join(canonical, "/") + suffix,
		prefix:   prefix,
		suffix:   suffix,
	}

	// The prefix always ends in "/"; every segment contributes its own leading separator.
	var b strings.Builder
	b.WriteString(`(?i)^`)
	b.WriteString(regexp.QuoteMeta(strings.TrimSuffix(prefix, "/")))

	seen := make(map[string]bool)
	for i, raw := range canonical {
		seg := segment.Parse(raw)
		p.segments = append(p.segments, seg)

		if seg.IsDynamic() {
			if !paramNameRe.MatchString(seg.Name) {
				return nil, &PatternCompileError{ID: id, Segment: raw, Reason: "invalid parameter name"}
			}
			if seen[seg.Name] {
				return nil, &PatternCompileError{ID: id, Segment: raw, Reason: "duplicate parameter name"}
			}
			seen[seg.Name] = true
			p.groups = append(p.groups, i)
		}

		switch {
		case seg.Kind == segment.KindLiteral:
			b.WriteString("/" + regexp.QuoteMeta(seg.Value))
		case seg.Prefix != "":
			b.WriteString("/" + regexp.QuoteMeta(seg.Prefix) + `([^/]+)`)
		case seg.Modifier == segment.ModOptional:
			b.WriteString(`(?:/([^/]+))?`)
		case seg.Modifier == segment.ModZeroOrMore:
			b.WriteString(`(?:/([^/]+(?:/[^/]+)*))?`)
		case seg.Modifier == segment.ModOneOrMore:
			b.WriteString(`/([^/]+(?:/[^/]+)*)`)
		default:
			b.WriteString(`/([^/]+)`)
		}
	}

	b.WriteString(regexp.QuoteMeta(suffix))
	b.WriteString(`/?$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, &PatternCompileError{ID: id, Segment: strings.Join(canonical, "/"), Reason: err.Error()}
	}
	p.re = re

	return p, nil
}

// String returns the URL template the pattern was compiled from.
func (p *Pattern) String() string {
	return p.template
}

// Names returns the parameter names in path order.
func (p *Pattern) Names() []string {
	names := make([]string, 0, len(p.groups))
	for _, i := range p.groups {
		names = append(names, p.segments[i].Name)
	}
	return names
}

// Prefix returns the URL prefix the pattern was compiled with.
func (p *Pattern) Prefix() string {
	return p.prefix
}

// Suffix returns the URL suffix the pattern was compiled with.
func (p *Pattern) Suffix() string {
	return p.suffix
}

// Segments returns the parsed segments of the pattern.
func (p *Pattern) Segments() []segment.Segment {
	out := make([]segment.Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// IsMatch reports whether the normalized request path matches the pattern.
func (p *Pattern) IsMatch(requestPath string) bool {
	return p.re.MatchString(normalizeRequest(requestPath))
}

// MatchParams matches the request path and returns the captured parameters.
// It returns false when the path does not match. Absent optional parameters
// and empty zero-or-more splats are omitted from the result.
func (p *Pattern) MatchParams(requestPath string) (Params, bool) {
	m := p.re.FindStringSubmatch(normalizeRequest(requestPath))
	if m == nil {
		return nil, false
	}

	params := make(Params, len(p.groups))
	for gi, si := range p.groups {
		value := m[gi+1]
		if value == "" {
			continue
		}

		seg := p.segments[si]
		switch {
		case seg.IsSplat() || seg.Kind == segment.KindWildcard:
			parts := strings.Split(value, "/")
			for i := range parts {
				parts[i] = segment.UnescapeReserved(parts[i])
			}
			params[seg.Name] = parts
		default:
			params[seg.Name] = segment.UnescapeReserved(value)
		}
	}

	return params, true
}

// GeneratePath substitutes params into the template. Values are
// percent-encoded; optional segments without a value are omitted. A missing
// required parameter returns a *ParamError wrapping ErrMissingParam.
func (p *Pattern) GeneratePath(params Params) (string, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(p.prefix, "/"))

	for _, seg := range p.segments {
		switch {
		case seg.Kind == segment.KindLiteral:
			b.WriteString("/" + seg.Value)

		case seg.Prefix != "":
			values, err := paramValues(seg.Name, params[seg.Name])
			if err != nil {
				return "", err
			}
			if len(values) != 1 {
				return "", &ParamError{Name: seg.Name, Err: ErrMissingParam}
			}
			b.WriteString("/" + seg.Prefix + url.PathEscape(values[0]))

		case seg.IsSplat():
			values, err := paramValues(seg.Name, params[seg.Name])
			if err != nil {
				return "", err
			}
			if len(values) == 0 {
				if seg.Modifier == segment.ModOneOrMore {
					return "", &ParamError{Name: seg.Name, Err: ErrMissingParam}
				}
				continue
			}
			for _, v := range values {
				b.WriteString("/" + url.PathEscape(v))
			}

		default:
			values, err := paramValues(seg.Name, params[seg.Name])
			if err != nil {
				return "", err
			}
			if len(values) > 1 {
				return "", &ParamError{Name: seg.Name, Err: ErrInvalidParam}
			}
			if len(values) == 0 || values[0] == "" {
				if seg.Modifier == segment.ModOptional {
					continue
				}
				return "", &ParamError{Name: seg.Name, Err: ErrMissingParam}
			}
			b.WriteString("/" + url.PathEscape(values[0]))
		}
	}

	out := b.String()
	if out == "" {
		out = "/"
	}
	return out + p.suffix, nil
}

// paramValues converts a parameter value into its string components.
func paramValues(name string, v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := scalar(item)
			if !ok {
				return nil, &ParamError{Name: name, Err: ErrInvalidParam}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, ok := scalar(val)
		if !ok {
			return nil, &ParamError{Name: name, Err: ErrInvalidParam}
		}
		return []string{s}, nil
	}
}

func scalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprint(val), true
	}
	return "", false
}

// normalizeRequest strips the query and fragment, normalizes encoding and
// guarantees a leading slash.
func normalizeRequest(requestPath string) string {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	requestPath = segment.Normalize(requestPath)
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	return requestPath
}

// matchStatic compares a static route URL with a request path, ignoring case
// and a single trailing slash.
func matchStatic(routeURL, requestPath string) bool {
	candidate := normalizeRequest(requestPath)
	if len(candidate) > 1 {
		candidate = strings.TrimSuffix(candidate, "/")
	}
	return strings.EqualFold(candidate, routeURL)
}

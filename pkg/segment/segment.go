// Package segment implements the path segment grammar used to turn file
// paths into route stems.
//
// A segment is one "/"-delimited component of a path. On disk, dynamic
// segments may be written as :name, $name or [name], optionally followed by
// a modifier (? optional, * zero or more, + one or more). Canonical segments
// always use the colon form: :name, :name?, :name* or :name+.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Kind classifies a path segment.
type Kind int

const (
	// KindLiteral is a segment with no special marker, matched exactly.
	KindLiteral Kind = iota

	// KindWildcard is exactly "*" or a segment ending in ".*".
	KindWildcard

	// KindRequired starts with ":" or "$" and has no modifier.
	KindRequired

	// KindPartial is enclosed in [...] or starts with ":"/"$" and ends with ?, * or +.
	KindPartial
)

// String returns a readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindWildcard:
		return "wildcard"
	case KindRequired:
		return "required"
	case KindPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// Modifier is the repetition marker of a canonical dynamic segment.
type Modifier byte

const (
	ModNone       Modifier = 0
	ModOptional   Modifier = '?'
	ModZeroOrMore Modifier = '*'
	ModOneOrMore  Modifier = '+'
)

// SplatName is the parameter name given to anonymous splats ("*").
const SplatName = "splats"

var (
	// numericPrefixRe matches on-disk ordering prefixes like "01-" or "2_".
	numericPrefixRe = regexp.MustCompile(`^\d+[-_]`)

	// repeatedSlashRe matches runs of separators.
	repeatedSlashRe = regexp.MustCompile(`/{2,}`)
)

// Classify returns the kind of a segment.
func Classify(s string) Kind {
	switch {
	case isWildcard(s):
		return KindWildcard
	case isRequired(s):
		return KindRequired
	case isPartial(s):
		return KindPartial
	default:
		return KindLiteral
	}
}

// IsDynamic reports whether s is a placeholder segment of any kind.
func IsDynamic(s string) bool {
	return Classify(s) != KindLiteral
}

func isWildcard(s string) bool {
	return s == "*" || strings.HasSuffix(s, ".*")
}

func hasMarker(s string) bool {
	return strings.HasPrefix(s, ":") || strings.HasPrefix(s, "$")
}

func hasModifier(s string) bool {
	return strings.HasSuffix(s, "?") || strings.HasSuffix(s, "*") || strings.HasSuffix(s, "+")
}

func isRequired(s string) bool {
	return hasMarker(s) && !hasModifier(s)
}

func isPartial(s string) bool {
	if len(s) >= 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return true
	}
	return len(s) >= 2 && hasMarker(s) && hasModifier(s)
}

// StripOrderPrefix removes a leading numeric ordering prefix ("01-intro" -> "intro").
func StripOrderPrefix(s string) string {
	return numericPrefixRe.ReplaceAllString(s, "")
}

// Canonical rewrites a raw on-disk segment to its canonical form.
//
//	01-intro -> intro
//	$slug    -> :slug
//	[lang]   -> :lang?
//	$ids+    -> :ids+
//	*        -> :splats*
func Canonical(raw string) string {
	s := StripOrderPrefix(raw)

	switch {
	case isRequired(s):
		s = ":" + s[1:]
	case isPartial(s):
		mod := "?"
		if last := s[len(s)-1]; last == '*' || last == '+' {
			mod = string(last)
		}
		s = ":" + s[1:len(s)-1] + mod
	case s == "*":
		s = ":" + SplatName + "*"
	}

	return Normalize(s)
}

// Split splits a path on "/", drops empty components and canonicalizes the rest.
func Split(p string) []string {
	parts := strings.Split(p, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, Canonical(part))
	}
	return segments
}

// Normalize percent-decodes s, collapses repeated slashes and applies Unicode
// NFC so that different encodings of the same visible path compare equal.
//
// Escapes of reserved characters (such as %2F) are preserved, so decoding
// never introduces new separators.
func Normalize(s string) string {
	s = decodeURI(s)
	s = repeatedSlashRe.ReplaceAllString(s, "/")
	return norm.NFC.String(s)
}

// reserved lists the characters decodeURI leaves escaped. The percent sign
// itself stays escaped so that a later UnescapeReserved pass is exact.
const reserved = ";/?:@&=+$,#%"

// decodeURI decodes percent escapes except those of reserved characters.
// A "%" that does not start a valid escape is copied literally, and escaped
// bytes that do not form valid UTF-8 keep their escaped form.
func decodeURI(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	var pending []byte
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			pending = flushDecoded(&b, pending)
			b.WriteByte(s[i])
			continue
		}
		c := unhex(s[i+1])<<4 | unhex(s[i+2])
		if c < utf8.RuneSelf && strings.IndexByte(reserved, c) >= 0 {
			pending = flushDecoded(&b, pending)
			b.WriteString(s[i : i+3])
		} else {
			pending = append(pending, c)
		}
		i += 2
	}
	flushDecoded(&b, pending)
	return b.String()
}

// flushDecoded writes a run of decoded bytes, re-escaping any byte that is not
// part of a valid UTF-8 sequence, and returns the emptied buffer.
func flushDecoded(b *strings.Builder, pending []byte) []byte {
	for len(pending) > 0 {
		r, size := utf8.DecodeRune(pending)
		if r == utf8.RuneError && size <= 1 {
			b.WriteString(escapeByte(pending[0]))
			pending = pending[1:]
			continue
		}
		b.Write(pending[:size])
		pending = pending[size:]
	}
	return pending[:0]
}

// UnescapeReserved undoes the escapes that Normalize keeps: those of reserved
// characters and of "%" itself. Any other text, including a stray "%", is
// returned unchanged, so a value that went through Normalize is decoded
// exactly once.
func UnescapeReserved(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			if c := unhex(s[i+1])<<4 | unhex(s[i+2]); c < utf8.RuneSelf && strings.IndexByte(reserved, c) >= 0 {
				b.WriteByte(c)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func escapeByte(c byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{'%', hex[c>>4], hex[c&0x0F]})
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// Segment is a parsed canonical segment.
type Segment struct {
	// Value is the canonical text, e.g. "blog", ":slug?" or "feed.*".
	Value string

	// Kind is the segment classification.
	Kind Kind

	// Name is the parameter name for dynamic segments.
	Name string

	// Modifier is the repetition marker for dynamic segments.
	Modifier Modifier

	// Prefix is the literal text before ".*" for wildcard segments like "feed.*".
	Prefix string
}

// IsDynamic reports whether the segment is a placeholder.
func (s Segment) IsDynamic() bool {
	return s.Kind != KindLiteral
}

// IsSplat reports whether the segment captures a run of path components.
func (s Segment) IsSplat() bool {
	return s.Modifier == ModZeroOrMore || s.Modifier == ModOneOrMore
}

// Parse parses a canonical segment (as produced by Canonical).
func Parse(value string) Segment {
	seg := Segment{Value: value, Kind: Classify(value)}

	switch seg.Kind {
	case KindWildcard:
		seg.Name = SplatName
		if value == "*" {
			seg.Modifier = ModZeroOrMore
		} else {
			seg.Prefix = strings.TrimSuffix(value, "*")
		}
	case KindRequired:
		seg.Name = value[1:]
	case KindPartial:
		if strings.HasPrefix(value, "[") {
			seg.Name = value[1 : len(value)-1]
			seg.Modifier = ModOptional
			break
		}
		seg.Name = value[1 : len(value)-1]
		seg.Modifier = Modifier(value[len(value)-1])
	}

	return seg
}

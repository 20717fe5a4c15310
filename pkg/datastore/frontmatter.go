package datastore

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Matter is the decoded front matter of a content file.
type Matter map[string]any

var fence = []byte("---")

// ParseFrontMatter splits a leading "---" delimited YAML block from content.
// Content without front matter is returned unchanged with an empty Matter.
func ParseFrontMatter(content []byte) (Matter, []byte, error) {
	matter := Matter{}

	first, rest, ok := cutLine(content)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t\r"), fence) {
		return matter, content, nil
	}

	var block []byte
	for {
		line, next, more := cutLine(rest)
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			rest = next
			break
		}
		if !more {
			// unterminated block: treat the file as plain content
			return matter, content, nil
		}
		block = append(block, line...)
		block = append(block, '\n')
		rest = next
	}

	if err := yaml.Unmarshal(block, &matter); err != nil {
		return nil, nil, fmt.Errorf("failed to parse front matter: %w", err)
	}
	if matter == nil {
		matter = Matter{}
	}
	return matter, rest, nil
}

// cutLine returns the first line of b without its newline, the remainder,
// and whether a newline was found.
func cutLine(b []byte) (line, rest []byte, found bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

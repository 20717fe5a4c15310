package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Excluder is the ignore-rule predicate consulted for every entry.
type Excluder interface {
	IsExcluded(path string, isDir bool) bool
}

// ExcludeFunc adapts a function to the Excluder interface.
type ExcludeFunc func(path string, isDir bool) bool

func (f ExcludeFunc) IsExcluded(path string, isDir bool) bool {
	return f(path, isDir)
}

// Gitignore evaluates gitignore-style patterns against slash-separated paths.
type Gitignore struct {
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// NewGitignore compiles gitignore patterns. Blank lines and comments are skipped.
func NewGitignore(patterns ...string) *Gitignore {
	g := &Gitignore{}
	for _, p := range patterns {
		p = strings.TrimRight(p, " \t\r")
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		g.patterns = append(g.patterns, gitignore.ParsePattern(p, nil))
	}
	g.matcher = gitignore.NewMatcher(g.patterns)
	return g
}

// ReadGitignore loads the patterns of the named ignore file from fs. A
// missing file yields an empty rule set.
func ReadGitignore(fs billy.Filesystem, name string) (*Gitignore, error) {
	f, err := fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewGitignore(), nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return NewGitignore(lines...), nil
}

// Len returns the number of compiled patterns.
func (g *Gitignore) Len() int {
	return len(g.patterns)
}

// IsExcluded reports whether path matches the ignore rules.
func (g *Gitignore) IsExcluded(path string, isDir bool) bool {
	if len(g.patterns) == 0 {
		return false
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 0 && parts[0] == "." {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return false
	}
	return g.matcher.Match(parts, isDir)
}

package scanner

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestGitignore_IsExcluded(t *testing.T) {
	g := NewGitignore(
		"# comment",
		"",
		"node_modules/",
		"*.bak",
		"/pages/private",
		"!keep.bak",
	)

	if g.Len() != 4 {
		t.Errorf("Len() = %d, want 4", g.Len())
	}

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"pages/index.md", false, false},
		{"pages/node_modules", true, true},
		{"pages/node_modules", false, false},
		{"pages/notes.bak", false, true},
		{"pages/keep.bak", false, false},
		{"pages/private", true, true},
		{"other/pages/private", true, false},
		{"./pages/old.bak", false, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := g.IsExcluded(tt.path, tt.isDir); got != tt.want {
				t.Errorf("IsExcluded(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestGitignore_Empty(t *testing.T) {
	g := NewGitignore()
	if g.IsExcluded("anything", false) {
		t.Error("empty rule set should exclude nothing")
	}
}

func TestReadGitignore(t *testing.T) {
	fs := memfs.New()

	g, err := ReadGitignore(fs, ".gitignore")
	if err != nil {
		t.Fatalf("ReadGitignore on missing file failed: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("missing file gave %d patterns, want 0", g.Len())
	}

	content := "# build output\ndist/\r\n*.log\n\n"
	if err := util.WriteFile(fs, ".gitignore", []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	g, err = ReadGitignore(fs, ".gitignore")
	if err != nil {
		t.Fatalf("ReadGitignore failed: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
	if !g.IsExcluded("dist", true) {
		t.Error("expected dist/ to be excluded")
	}
	if !g.IsExcluded("pages/debug.log", false) {
		t.Error("expected *.log to be excluded")
	}
}

func TestExcludeFunc(t *testing.T) {
	var e Excluder = ExcludeFunc(func(path string, isDir bool) bool {
		return isDir && path == "tmp"
	})

	if !e.IsExcluded("tmp", true) {
		t.Error("expected tmp directory to be excluded")
	}
	if e.IsExcluded("tmp", false) {
		t.Error("expected tmp file to be kept")
	}
}

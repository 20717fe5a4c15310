package datastore

import (
	"testing"
)

func TestParseFrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTitle any
		wantBody  string
		wantErr   bool
	}{
		{
			name:      "with front matter",
			content:   "---\ntitle: Hello\nlayout: post\n---\n# Body\n",
			wantTitle: "Hello",
			wantBody:  "# Body\n",
		},
		{
			name:      "crlf fences",
			content:   "---\r\ntitle: Hello\r\n---\r\nbody",
			wantTitle: "Hello",
			wantBody:  "body",
		},
		{
			name:     "no front matter",
			content:  "# Just content\n",
			wantBody: "# Just content\n",
		},
		{
			name:     "unterminated",
			content:  "---\ntitle: Hello\n",
			wantBody: "---\ntitle: Hello\n",
		},
		{
			name:     "empty block",
			content:  "---\n---\nbody",
			wantBody: "body",
		},
		{
			name:    "invalid yaml",
			content: "---\ntitle: [unclosed\n---\nbody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matter, body, err := ParseFrontMatter([]byte(tt.content))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrontMatter failed: %v", err)
			}
			if matter == nil {
				t.Fatal("expected non-nil matter")
			}
			if matter["title"] != tt.wantTitle {
				t.Errorf("title = %v, want %v", matter["title"], tt.wantTitle)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

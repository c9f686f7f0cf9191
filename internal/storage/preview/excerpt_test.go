package preview

import (
	"strings"
	"testing"
)

func TestExtractExcerpt(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		want      []string
	}{
		{
			name:      "markdown",
			raw:       "# Getting *Started*\n\nInstall the **tool** with `go install`.\n\n- first [item](http://x)\n- second ![img](a.png) item\n\n```go\nfunc main() {}\n```\n\n> quoted text\n",
			wantTitle: "Getting Started",
			want:      []string{"Install the tool with go install.", "first item", "second item", "quoted text"},
		},
		{
			name:      "front matter",
			raw:       "---\ntitle: From YAML\ndescription: A short summary\n---\n# Heading\n\nBody.\n",
			wantTitle: "From YAML",
			want:      []string{"A short summary", "Heading", "Body."},
		},
		{
			name:      "mdx",
			raw:       "import { Button } from './button'\nexport const meta = {}\n\n# Component\n\n<Button>\n  Click\n</Button>\n\nUse it wisely.\n",
			wantTitle: "Component",
			want:      []string{"Use it wisely."},
		},
		{
			name:      "crlf",
			raw:       "---\r\ntitle: Windows\r\n---\r\nline one\r\nline two\r\n",
			wantTitle: "Windows",
			want:      []string{"line one line two"},
		},
		{
			name: "empty",
			raw:  "",
		},
		{
			name:      "unterminated front matter",
			raw:       "---\ntitle: x\n",
			wantTitle: "",
			want:      []string{"title: x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := ExtractExcerpt([]byte(tt.raw), 10, 80)
			if ex.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", ex.Title, tt.wantTitle)
			}
			if strings.Join(ex.Lines, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Lines = %q, want %q", ex.Lines, tt.want)
			}
		})
	}
}

func TestExtractExcerptLimits(t *testing.T) {
	var b strings.Builder
	b.WriteString("# T\n\n")
	for range 10 {
		b.WriteString(strings.Repeat("word ", 30) + "\n\n")
	}
	ex := ExtractExcerpt([]byte(b.String()), 3, 20)
	if len(ex.Lines) != 3 {
		t.Fatalf("got %d lines", len(ex.Lines))
	}
	for _, l := range ex.Lines {
		if len([]rune(l)) > 20 || !strings.HasSuffix(l, "...") {
			t.Errorf("line %q not truncated to 20", l)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is too long", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, ".."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

package render

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
		absent   []string
	}{
		{"heading id", "# Getting Started\n", []string{`<h1 id="getting-started">Getting Started</h1>`}, nil},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |\n", []string{"<table>", "<td>1</td>"}, nil},
		{"highlight", "```go\nfunc main() {}\n```\n", []string{`class="chroma"`}, nil},
		{"raw html", "<script>alert(1)</script>\n\ntext\n", []string{"<p>text</p>"}, []string{"<script>"}},
		{"typographer", "\"quoted\"\n", []string{"&ldquo;quoted&rdquo;"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Markdown([]byte(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			for _, c := range tt.contains {
				if !strings.Contains(string(out), c) {
					t.Errorf("output missing %q:\n%s", c, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(string(out), a) {
					t.Errorf("output contains %q:\n%s", a, out)
				}
			}
		})
	}
}

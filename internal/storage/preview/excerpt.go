// Package preview generates and resolves document preview images.
//
// Artifacts live under a previews root that mirrors the document tree by
// canonical names (see pathsafe.ArtifactPath). The Generator writes them, the
// Resolver serves them and falls back to a placeholder when none was built.
package preview

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Excerpt is the plain text summary of a document.
type Excerpt struct {
	Title       string
	Description string
	Lines       []string
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

var excerptParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// ExtractExcerpt strips markup from a document and returns its first
// maxLines non-empty lines of text, each truncated to maxColumns runes.
//
// Front matter is removed; its title and description are kept. Without a
// front matter title, the first heading becomes the title and is not repeated
// in Lines. Code blocks, HTML and JSX blocks, images and MDX import/export
// statements are dropped. Link text is kept.
func ExtractExcerpt(raw []byte, maxLines, maxColumns int) Excerpt {
	fm, body := splitFrontMatter(raw)
	body = stripModuleLines(body)
	ex := Excerpt{Title: collapse(fm.Title), Description: collapse(fm.Description)}
	if ex.Description != "" {
		ex.Lines = append(ex.Lines, truncate(ex.Description, maxColumns))
	}

	doc := excerptParser.Parse(text.NewReader(body))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if len(ex.Lines) >= maxLines {
			return ast.WalkStop, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			line := collapse(inlineText(n, body))
			if ex.Title == "" && line != "" {
				ex.Title = line
				return ast.WalkSkipChildren, nil
			}
			if line != "" {
				ex.Lines = append(ex.Lines, truncate(line, maxColumns))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if line := collapse(inlineText(n, body)); line != "" {
				ex.Lines = append(ex.Lines, truncate(line, maxColumns))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if len(ex.Lines) > maxLines {
		ex.Lines = ex.Lines[:maxLines]
	}
	return ex
}

// splitFrontMatter removes a leading YAML block delimited by "---" lines.
// Invalid YAML is dropped silently; the block is still removed.
func splitFrontMatter(src []byte) (frontMatter, []byte) {
	var fm frontMatter
	s := bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(s, []byte("---\n")) {
		return fm, s
	}
	rest := s[4:]
	end := -1
	if bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")) {
		end = 0
	} else if i := bytes.Index(rest, []byte("\n---\n")); i >= 0 {
		end = i + 1
	} else if bytes.HasSuffix(rest, []byte("\n---")) {
		end = len(rest) - 3
	}
	if end < 0 {
		return fm, s
	}
	_ = yaml.Unmarshal(rest[:end], &fm)
	body := rest[end+3:]
	return fm, bytes.TrimPrefix(body, []byte("\n"))
}

// stripModuleLines blanks MDX import and export statements outside of code
// fences.
func stripModuleLines(src []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(src))
	inFence := false
	for line := range bytes.Lines(src) {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~")) {
			inFence = !inFence
		}
		if !inFence && (bytes.HasPrefix(line, []byte("import ")) || bytes.HasPrefix(line, []byte("export "))) {
			out.WriteByte('\n')
			continue
		}
		out.Write(line)
	}
	return out.Bytes()
}

// inlineText concatenates the visible text of n's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				b.Write(c.Segment.Value(src))
				if c.SoftLineBreak() || c.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(c.Value)
			case *ast.AutoLink:
				b.Write(c.Label(src))
			case *ast.Image, *ast.RawHTML:
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return strings.Repeat(".", n)
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n-3]), " ") + "..."
}

package preview

import (
	"path"
	"strings"

	"github.com/maruel/mdtree/internal/storage/tree"
)

// Card dimensions in pixels at scale 1. The layout fits 48 columns of the
// 7x13 raster font.
const (
	cardWidth   = 400
	cardHeight  = 225
	cardPadding = 16
	lineHeight  = 16

	titleColumns = 48
)

// placeholderNotice is shown on cards synthesized before an artifact exists.
const placeholderNotice = "Preview is still generating"

// Card is the fixed layout rendered into a preview image.
type Card struct {
	Badge  string // "MD" or "MDX"
	Title  string
	Folder string
	Lines  []string
	Notice string
}

// NewCard lays out the excerpt of the document at relPath.
func NewCard(relPath string, ex Excerpt) Card {
	c := baseCard(relPath)
	if ex.Title != "" {
		c.Title = truncate(ex.Title, titleColumns)
	}
	c.Lines = ex.Lines
	return c
}

// PlaceholderCard describes a document whose artifact was not generated yet.
func PlaceholderCard(relPath string) Card {
	c := baseCard(relPath)
	c.Notice = placeholderNotice
	return c
}

func baseCard(relPath string) Card {
	dir, file := path.Split(relPath)
	folder := "Home"
	if dir = strings.TrimSuffix(dir, "/"); dir != "" {
		folder = tree.DisplayName(path.Base(dir), false)
	}
	return Card{
		Badge:  strings.ToUpper(strings.TrimPrefix(path.Ext(file), ".")),
		Title:  truncate(tree.DisplayName(file, true), titleColumns),
		Folder: truncate(folder, titleColumns),
	}
}

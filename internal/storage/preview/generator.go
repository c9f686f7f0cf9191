package preview

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/metrics"
	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage"
)

// ArtifactRef is the outcome of a generation.
type ArtifactRef struct {
	// Path is previews-root relative.
	Path   string
	Format Format
	// Skipped is set when an up to date artifact already existed.
	Skipped bool
}

// Generator writes preview artifacts for documents.
type Generator struct {
	docsRoot string
	store    *Store
	cfg      storage.PreviewConfig

	// Force regenerates artifacts even when they are newer than the source.
	Force bool
}

// NewGenerator returns a generator reading documents below docsRoot and
// writing artifacts into store.
func NewGenerator(docsRoot string, store *Store, cfg *storage.PreviewConfig) *Generator {
	return &Generator{docsRoot: docsRoot, store: store, cfg: *cfg}
}

// Render lays out and encodes the card of a document without writing it.
func (g *Generator) Render(relPath string, raw []byte, format Format) ([]byte, error) {
	card := NewCard(relPath, ExtractExcerpt(raw, g.cfg.ExcerptLines, g.cfg.ExcerptColumns))
	return encode(card, format, g.cfg.RasterScale)
}

// Generate writes the artifact of the document at relPath whose content is
// raw and modification time srcModTime. An existing artifact newer than
// srcModTime is kept.
func (g *Generator) Generate(ctx context.Context, relPath string, raw []byte, srcModTime time.Time, format Format) (ArtifactRef, error) {
	ref, err := g.generate(ctx, relPath, raw, srcModTime, format)
	metrics.RecordPreviewGenerated(string(format), ref.Skipped, err)
	return ref, err
}

func (g *Generator) generate(ctx context.Context, relPath string, raw []byte, srcModTime time.Time, format Format) (ArtifactRef, error) {
	rel, err := pathsafe.Clean(relPath)
	if err != nil {
		return ArtifactRef{}, err
	}
	if !storage.IsDocument(rel) {
		return ArtifactRef{}, &docerr.InvalidNameError{Name: relPath, Reason: "not a document"}
	}
	dst, err := pathsafe.ArtifactPath(rel, format.Ext())
	if err != nil {
		return ArtifactRef{}, err
	}
	ref := ArtifactRef{Path: dst, Format: format}
	if !g.Force {
		if fi, err := g.store.Stat(dst); err == nil && fi.ModTime().After(srcModTime) {
			ref.Skipped = true
			return ref, nil
		}
	}
	data, err := g.Render(rel, raw, format)
	if err != nil {
		return ArtifactRef{}, &docerr.IOFailure{Op: "render", Path: rel, Err: err}
	}
	if err := g.store.Write(dst, data); err != nil {
		return ArtifactRef{}, &docerr.IOFailure{Op: "write preview", Path: dst, Err: err}
	}
	slog.DebugContext(ctx, "Generated preview", "path", rel, "artifact", dst)
	return ref, nil
}

// GenerateFile reads the document at relPath and generates its artifact.
func (g *Generator) GenerateFile(ctx context.Context, relPath string, format Format) (ArtifactRef, error) {
	rel, err := pathsafe.Clean(relPath)
	if err != nil {
		return ArtifactRef{}, err
	}
	full := filepath.Join(g.docsRoot, filepath.FromSlash(rel))
	fi, err := os.Stat(full)
	if err != nil {
		return ArtifactRef{}, docerr.FromFS("stat", rel, err)
	}
	raw, err := os.ReadFile(full) //nolint:gosec // G304: rel is cleaned and rooted
	if err != nil {
		return ArtifactRef{}, docerr.FromFS("read", rel, err)
	}
	return g.Generate(ctx, rel, raw, fi.ModTime(), format)
}

func encode(card Card, format Format, scale int) ([]byte, error) {
	if format == FormatPNG {
		return RenderPNG(card, scale)
	}
	return RenderSVG(card), nil
}

package tree

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage"
)

// ArtifactCleaner keeps preview artifacts in line with document mutations.
// Paths are document paths; folder mutations are expanded to the documents
// they contain, since distinct folders may share one canonical preview folder.
//
// Calls are best-effort: failures are logged, never returned to the caller
// of the mutation.
type ArtifactCleaner interface {
	Remove(ctx context.Context, docPath string) error
	Relocate(ctx context.Context, from, to string) error
}

// artifactMove is a document that moved from one path to another.
type artifactMove struct {
	from, to string
}

// documentsBelow returns the documents below the folder rel, sorted.
func (m *Mutator) documentsBelow(ctx context.Context, rel string) []string {
	var mu sync.Mutex
	var docs []string
	err := fastwalk.Walk(&fastwalk.Config{Follow: false}, m.abs(rel), func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsDocument(d.Name()) {
			return nil
		}
		r, err := filepath.Rel(m.root, fullPath)
		if err != nil {
			return nil
		}
		mu.Lock()
		docs = append(docs, filepath.ToSlash(r))
		mu.Unlock()
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to list documents", "path", rel, "err", err)
	}
	slices.Sort(docs)
	return docs
}

// syncArtifacts drops the artifacts of removed documents and carries those of
// moved ones along. An artifact location still claimed by an existing
// document is left untouched.
func (m *Mutator) syncArtifacts(ctx context.Context, removed []string, moved []artifactMove) {
	if m.artifacts == nil || (len(removed) == 0 && len(moved) == 0) {
		return
	}
	owner := m.artifactOwner(ctx)
	for _, doc := range removed {
		if o, ok := owner(doc); ok {
			slog.DebugContext(ctx, "Preview kept for another document", "path", doc, "owner", o)
			continue
		}
		if err := m.artifacts.Remove(ctx, doc); err != nil {
			slog.WarnContext(ctx, "Failed to remove preview artifacts", "path", doc, "err", err)
		}
	}
	for _, mv := range moved {
		if o, ok := owner(mv.from); ok {
			slog.DebugContext(ctx, "Preview kept for another document", "path", mv.from, "owner", o)
			continue
		}
		if o, ok := owner(mv.to); ok && o != mv.to {
			// The destination preview belongs to another document.
			if err := m.artifacts.Remove(ctx, mv.from); err != nil {
				slog.WarnContext(ctx, "Failed to remove preview artifacts", "path", mv.from, "err", err)
			}
			continue
		}
		if err := m.artifacts.Relocate(ctx, mv.from, mv.to); err != nil {
			slog.WarnContext(ctx, "Failed to relocate preview artifacts", "from", mv.from, "to", mv.to, "err", err)
		}
	}
}

// artifactOwner returns a lookup from a document path to the existing
// document owning its artifact location. Without an index nothing is owned.
func (m *Mutator) artifactOwner(ctx context.Context) func(doc string) (string, bool) {
	if m.index == nil {
		return func(string) (string, bool) { return "", false }
	}
	if err := m.index.EnsureFresh(ctx, 0); err != nil {
		slog.WarnContext(ctx, "Failed to refresh index", "err", err)
	}
	return func(doc string) (string, bool) {
		key, err := pathsafe.ArtifactPath(doc, "")
		if err != nil {
			return "", false
		}
		return m.index.LookupArtifact(key)
	}
}

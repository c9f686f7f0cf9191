package tree

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/maruel/mdtree/internal/metrics"
	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage"
)

// Document is one indexed document.
type Document struct {
	RelativePath string
	SizeBytes    int64
	ModifiedAt   time.Time
	// ArtifactKey is the artifact path without its extension.
	ArtifactKey string
}

// Index lists every document below the root, keyed by artifact location.
//
// It is an explicit object with its own staleness: callers decide how old a
// snapshot may be through EnsureFresh. Mutator and Watcher invalidate it.
type Index struct {
	root       string
	maxDepth   int
	exclusions map[string]bool

	mu        sync.RWMutex
	docs      []Document
	byKey     map[string]string
	refreshed time.Time
	stale     bool
	gen       uint64
}

// NewIndex returns an empty index over root. It is stale until the first
// Refresh.
func NewIndex(root string, cfg *storage.TreeConfig) *Index {
	ix := &Index{
		root:       root,
		maxDepth:   pathsafe.DepthValidator{Max: cfg.MaxDepth}.Limit(),
		exclusions: make(map[string]bool, len(cfg.Exclusions)),
		stale:      true,
	}
	for _, e := range cfg.Exclusions {
		ix.exclusions[e] = true
	}
	return ix
}

// Refresh walks the document root and replaces the snapshot.
func (ix *Index) Refresh(ctx context.Context) error {
	start := time.Now()
	ix.mu.RLock()
	gen := ix.gen
	ix.mu.RUnlock()
	var mu sync.Mutex
	var docs []Document
	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, ix.root, func(fullPath string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			slog.DebugContext(ctx, "Index walk error", "path", fullPath, "err", err)
			return nil
		}
		if fullPath == ix.root {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || (d.IsDir() && ix.exclusions[name]) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(ix.root, fullPath)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if pathsafe.Depth(rel) >= ix.maxDepth {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !storage.IsDocument(name) {
			return nil
		}
		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return nil
		}
		key, err := pathsafe.ArtifactPath(rel, "")
		if err != nil {
			return nil
		}
		mu.Lock()
		docs = append(docs, Document{RelativePath: rel, SizeBytes: info.Size(), ModifiedAt: info.ModTime(), ArtifactKey: key})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	// fastwalk visits concurrently; sort so the first of colliding keys is
	// deterministic.
	slices.SortFunc(docs, func(a, b Document) int { return strings.Compare(a.RelativePath, b.RelativePath) })
	byKey := make(map[string]string, len(docs))
	for _, d := range docs {
		if _, ok := byKey[d.ArtifactKey]; !ok {
			byKey[d.ArtifactKey] = d.RelativePath
		}
	}

	ix.mu.Lock()
	ix.docs = docs
	ix.byKey = byKey
	ix.refreshed = time.Now()
	// An invalidation during the walk keeps the snapshot stale.
	ix.stale = ix.gen != gen
	ix.mu.Unlock()
	metrics.RecordIndexRefresh(len(docs), time.Since(start))
	slog.DebugContext(ctx, "Index refreshed", "documents", len(docs), "dur", time.Since(start).Round(time.Millisecond))
	return nil
}

// EnsureFresh refreshes the index when it was invalidated or is older than
// maxAge. A maxAge of 0 refreshes only after invalidation.
func (ix *Index) EnsureFresh(ctx context.Context, maxAge time.Duration) error {
	ix.mu.RLock()
	fresh := !ix.stale && (maxAge <= 0 || time.Since(ix.refreshed) < maxAge)
	ix.mu.RUnlock()
	if fresh {
		return nil
	}
	return ix.Refresh(ctx)
}

// Invalidate marks the snapshot stale.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.stale = true
	ix.gen++
	ix.mu.Unlock()
}

// Documents returns a copy of the snapshot, sorted by relative path.
func (ix *Index) Documents() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.docs)
}

// LookupArtifact returns the relative path of the document whose artifact
// key (artifact path without extension) is key.
func (ix *Index) LookupArtifact(key string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rel, ok := ix.byKey[key]
	return rel, ok
}

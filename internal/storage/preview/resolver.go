package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/metrics"
	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage"
	"github.com/maruel/mdtree/internal/storage/tree"
)

// RequestExt is the extension every preview request carries, whatever the
// stored format.
const RequestExt = ".png"

// Tier is the step of the fallback chain that produced a preview.
type Tier string

const (
	// TierBitmap is a stored PNG artifact.
	TierBitmap Tier = "bitmap"
	// TierVector is a stored SVG artifact.
	TierVector Tier = "vector"
	// TierPlaceholder is synthesized because no artifact exists yet.
	TierPlaceholder Tier = "placeholder"
)

// Resolution is a renderable preview.
type Resolution struct {
	Data         []byte
	MimeType     string
	CacheControl string
	Tier         Tier
}

// Resolver maps preview requests to bytes. It never fails for an existing
// document: when no artifact was generated it returns a placeholder.
type Resolver struct {
	docsRoot    string
	store       *Store
	index       *tree.Index
	indexMaxAge time.Duration
	longCache   string
	shortCache  string

	placeholders singleflight.Group
}

// NewResolver returns a resolver. index may be nil, in which case documents
// are only found under their literal name.
func NewResolver(docsRoot string, store *Store, index *tree.Index, cfg *storage.ServerConfig) *Resolver {
	return &Resolver{
		docsRoot:    docsRoot,
		store:       store,
		index:       index,
		indexMaxAge: cfg.Index.MaxAge(),
		longCache:   fmt.Sprintf("public, max-age=%d", cfg.Preview.LongCacheSeconds),
		shortCache:  fmt.Sprintf("public, max-age=%d", cfg.Preview.ShortCacheSeconds),
	}
}

// Resolve walks the fallback chain for requested, a previews-root relative
// path ending in RequestExt:
//
//  1. the bitmap at the literal path;
//  2. the canonical vector artifact re-derived from the name, then the
//     canonical bitmap;
//  3. a placeholder, if the source document exists.
//
// Only a missing source document is a NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, requested string) (*Resolution, error) {
	res, err := r.resolve(ctx, requested)
	if err == nil {
		metrics.RecordPreviewResolution(string(res.Tier))
	}
	return res, err
}

func (r *Resolver) resolve(ctx context.Context, requested string) (*Resolution, error) {
	rel, err := pathsafe.Clean(requested)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(rel), RequestExt) {
		return nil, &docerr.InvalidNameError{Name: requested, Reason: "preview path must end in " + RequestExt}
	}
	stem := rel[:len(rel)-len(RequestExt)]
	if stem == "" || strings.HasSuffix(stem, "/") {
		return nil, &docerr.InvalidNameError{Name: requested, Reason: "empty preview name"}
	}

	if res, err := r.artifact(rel, FormatPNG, TierBitmap); res != nil || err != nil {
		return res, err
	}
	// The document extension is dropped by ArtifactPath; any document
	// extension yields the same key.
	key, err := pathsafe.ArtifactPath(stem+storage.DocumentExtensions[0], "")
	if err != nil {
		return nil, err
	}
	if res, err := r.artifact(key+FormatSVG.Ext(), FormatSVG, TierVector); res != nil || err != nil {
		return res, err
	}
	if canonical := key + FormatPNG.Ext(); canonical != rel {
		if res, err := r.artifact(canonical, FormatPNG, TierBitmap); res != nil || err != nil {
			return res, err
		}
	}

	doc, ok := r.findSource(ctx, stem, key)
	if !ok {
		return nil, &docerr.NotFoundError{Path: stem, What: "document"}
	}
	v, err, _ := r.placeholders.Do(doc, func() (any, error) {
		slog.DebugContext(ctx, "Synthesizing preview placeholder", "path", doc)
		return RenderSVG(PlaceholderCard(doc)), nil
	})
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Data:         v.([]byte),
		MimeType:     FormatSVG.MimeType(),
		CacheControl: r.shortCache,
		Tier:         TierPlaceholder,
	}, nil
}

func (r *Resolver) artifact(rel string, format Format, tier Tier) (*Resolution, error) {
	data, ok, err := r.store.Read(rel)
	if err != nil {
		return nil, &docerr.IOFailure{Op: "read preview", Path: rel, Err: err}
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	return &Resolution{Data: data, MimeType: format.MimeType(), CacheControl: r.longCache, Tier: tier}, nil
}

// findSource returns the document a preview request refers to: the literal
// stem with each document extension in order, then the index by artifact key.
func (r *Resolver) findSource(ctx context.Context, stem, key string) (string, bool) {
	for _, ext := range storage.DocumentExtensions {
		rel := stem + ext
		if fi, err := os.Stat(filepath.Join(r.docsRoot, filepath.FromSlash(rel))); err == nil && fi.Mode().IsRegular() {
			return rel, true
		}
	}
	if r.index == nil {
		return "", false
	}
	if err := r.index.EnsureFresh(ctx, r.indexMaxAge); err != nil {
		slog.WarnContext(ctx, "Failed to refresh document index", "err", err)
	}
	return r.index.LookupArtifact(key)
}

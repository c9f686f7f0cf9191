package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage"
)

// CreateFileRequest creates a document. Type is a document extension with or
// without the leading dot ("md", ".mdx"). Content nil means default content.
type CreateFileRequest struct {
	Name       string
	Type       string
	ParentPath string
	Content    *string
}

// CreateFolderRequest creates a folder below ParentPath.
type CreateFolderRequest struct {
	Name       string
	ParentPath string
}

// MoveRequest moves Source into the folder TargetParent, keeping its name.
type MoveRequest struct {
	Source       string
	TargetParent string
}

// Result is the outcome of a single-target mutation.
type Result struct {
	Path    string
	Message string
}

// ItemResult is the outcome of one item of a batch.
type ItemResult struct {
	Path string
	Err  error
}

// BatchResult is the outcome of a batch mutation. Items are in request order.
type BatchResult struct {
	Items        []ItemResult
	SuccessCount int
	ErrorCount   int
}

// Success reports whether every item succeeded.
func (b *BatchResult) Success() bool {
	return b.ErrorCount == 0
}

func (b *BatchResult) add(p string, err error) {
	b.Items = append(b.Items, ItemResult{Path: p, Err: err})
	if err != nil {
		b.ErrorCount++
	} else {
		b.SuccessCount++
	}
}

// Mutator applies create, delete, move and upload operations to the document
// root. It is the only writer of the document tree.
//
// Operations are synchronous, never retried and not cancellable once started;
// the context is only used for logging and index refreshes.
type Mutator struct {
	root      string
	depth     pathsafe.DepthValidator
	upload    storage.UploadConfig
	artifacts ArtifactCleaner
	index     *Index
}

// NewMutator returns a mutator over the document root. artifacts and index
// may be nil.
func NewMutator(root string, cfg *storage.ServerConfig, artifacts ArtifactCleaner, index *Index) *Mutator {
	return &Mutator{
		root:      root,
		depth:     pathsafe.DepthValidator{Max: cfg.Tree.MaxDepth},
		upload:    cfg.Upload,
		artifacts: artifacts,
		index:     index,
	}
}

// CreateFile creates a document, creating intermediate folders as needed.
func (m *Mutator) CreateFile(ctx context.Context, req *CreateFileRequest) (*Result, error) {
	if err := pathsafe.ValidateName(req.Name); err != nil {
		return nil, err
	}
	ext, err := documentExt(req.Type)
	if err != nil {
		return nil, err
	}
	parent, err := pathsafe.Clean(req.ParentPath)
	if err != nil {
		return nil, err
	}
	fileName := req.Name
	if !strings.EqualFold(path.Ext(fileName), ext) {
		fileName += ext
	}
	if err := pathsafe.ValidateName(fileName); err != nil {
		return nil, err
	}
	if _, err := m.depth.Validate(parent, false); err != nil {
		return nil, err
	}
	rel := pathsafe.Join(parent, fileName)
	if err := m.checkAbsent(rel); err != nil {
		return nil, err
	}
	if err := m.ensureFolder(parent); err != nil {
		return nil, err
	}
	content := defaultContent(fileName, ext)
	if req.Content != nil {
		content = *req.Content
	}
	if err := writeExclusive(m.abs(rel), rel, strings.NewReader(content), -1); err != nil {
		return nil, err
	}
	m.changed()
	slog.InfoContext(ctx, "Created file", "path", rel)
	return &Result{Path: rel, Message: "Created " + rel}, nil
}

// CreateFolder creates a folder, creating intermediate folders as needed.
func (m *Mutator) CreateFolder(ctx context.Context, req *CreateFolderRequest) (*Result, error) {
	if err := pathsafe.ValidateName(req.Name); err != nil {
		return nil, err
	}
	parent, err := pathsafe.Clean(req.ParentPath)
	if err != nil {
		return nil, err
	}
	if _, err := m.depth.Validate(parent, true); err != nil {
		return nil, err
	}
	rel := pathsafe.Join(parent, req.Name)
	if err := m.checkAbsent(rel); err != nil {
		return nil, err
	}
	if err := m.ensureFolder(parent); err != nil {
		return nil, err
	}
	if err := os.Mkdir(m.abs(rel), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for document folders
		return nil, docerr.FromFS("create folder", rel, err)
	}
	m.changed()
	slog.InfoContext(ctx, "Created folder", "path", rel)
	return &Result{Path: rel, Message: "Created folder " + rel}, nil
}

// Delete removes each path independently, in order. One failure does not stop
// the others; the result reports every item.
func (m *Mutator) Delete(ctx context.Context, paths []string) *BatchResult {
	res := &BatchResult{Items: make([]ItemResult, 0, len(paths))}
	var removed []string
	for _, p := range paths {
		rel, docs, err := m.deleteOne(ctx, p)
		if rel == "" {
			rel = p
		}
		res.add(rel, err)
		removed = append(removed, docs...)
	}
	if res.SuccessCount > 0 {
		m.changed()
	}
	m.syncArtifacts(ctx, removed, nil)
	slog.InfoContext(ctx, "Deleted", "ok", res.SuccessCount, "failed", res.ErrorCount)
	return res
}

// deleteOne removes p and returns its cleaned path plus the documents it
// removed.
func (m *Mutator) deleteOne(ctx context.Context, p string) (string, []string, error) {
	rel, err := pathsafe.Clean(p)
	if err != nil {
		return "", nil, err
	}
	if rel == "" {
		return rel, nil, &docerr.InvalidNameError{Name: p, Reason: "cannot delete the root folder"}
	}
	full := m.abs(rel)
	fi, err := os.Lstat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return rel, nil, &docerr.NotFoundError{Path: rel}
		}
		return rel, nil, &docerr.IOFailure{Op: "stat", Path: rel, Err: err}
	}
	var docs []string
	if fi.IsDir() {
		docs = m.documentsBelow(ctx, rel)
		err = os.RemoveAll(full)
	} else {
		if storage.IsDocument(rel) {
			docs = []string{rel}
		}
		err = os.Remove(full)
	}
	if err != nil {
		return rel, nil, docerr.FromFS("delete", rel, err)
	}
	return rel, docs, nil
}

// Move renames Source into TargetParent. It never merges into an existing
// node of the same name.
//
// Checks run in this order, first failure wins: source name, self or
// descendant target (on raw and on canonical paths), destination depth, destination conflict, source
// existence, target folder existence and kind.
func (m *Mutator) Move(ctx context.Context, req *MoveRequest) (*Result, error) {
	src, err := pathsafe.Clean(req.Source)
	if err != nil {
		return nil, err
	}
	if src == "" {
		return nil, &docerr.InvalidNameError{Name: req.Source, Reason: "cannot move the root folder"}
	}
	target, err := pathsafe.Clean(req.TargetParent)
	if err != nil {
		return nil, err
	}
	leaf := path.Base(src)
	if err := pathsafe.ValidateName(leaf); err != nil {
		return nil, err
	}
	if pathsafe.IsWithin(target, src) {
		return nil, &docerr.InvalidMoveError{Source: src, Target: target}
	}
	// Folders sharing a canonical form are one folder on a case-insensitive
	// file system and share previews everywhere.
	if c := pathsafe.CanonicalizeFolderPath(src); c != "" && pathsafe.IsWithin(pathsafe.CanonicalizeFolderPath(target), c) {
		return nil, &docerr.InvalidMoveError{Source: src, Target: target}
	}
	srcInfo, srcErr := os.Lstat(m.abs(src))
	isDir := srcErr == nil && srcInfo.IsDir()
	if _, err := m.depth.Validate(target, isDir); err != nil {
		return nil, err
	}
	dest := pathsafe.Join(target, leaf)
	if err := m.checkAbsent(dest); err != nil {
		return nil, err
	}
	if srcErr != nil {
		if os.IsNotExist(srcErr) {
			return nil, &docerr.NotFoundError{Path: src, What: "source"}
		}
		return nil, &docerr.IOFailure{Op: "stat", Path: src, Err: srcErr}
	}
	fi, err := os.Stat(m.abs(target))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &docerr.NotFoundError{Path: target, What: "target folder"}
		}
		return nil, &docerr.IOFailure{Op: "stat", Path: target, Err: err}
	}
	if !fi.IsDir() {
		return nil, &docerr.NotAFolderError{Path: target}
	}
	if err := os.Rename(m.abs(src), m.abs(dest)); err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, &docerr.NotFoundError{Path: src, What: "source"}
		case os.IsExist(err):
			return nil, &docerr.ConflictError{Path: dest}
		default:
			return nil, &docerr.IOFailure{Op: "move", Path: src, Err: err}
		}
	}
	var moved []artifactMove
	if isDir {
		for _, doc := range m.documentsBelow(ctx, dest) {
			moved = append(moved, artifactMove{from: src + strings.TrimPrefix(doc, dest), to: doc})
		}
	} else if storage.IsDocument(src) {
		moved = []artifactMove{{from: src, to: dest}}
	}
	m.changed()
	m.syncArtifacts(ctx, nil, moved)
	slog.InfoContext(ctx, "Moved", "from", src, "to", dest)
	return &Result{Path: dest, Message: fmt.Sprintf("Moved %s to %s", src, dest)}, nil
}

// ReadContent returns the raw bytes of the file at rel.
func (m *Mutator) ReadContent(rel string) ([]byte, error) {
	rel, err := pathsafe.Clean(rel)
	if err != nil {
		return nil, err
	}
	if rel == "" {
		return nil, &docerr.NotFoundError{Path: rel, What: "file"}
	}
	full := m.abs(rel)
	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &docerr.NotFoundError{Path: rel, What: "file"}
		}
		return nil, &docerr.IOFailure{Op: "stat", Path: rel, Err: err}
	}
	if fi.IsDir() {
		return nil, &docerr.NotFoundError{Path: rel, What: "file"}
	}
	data, err := os.ReadFile(full) //nolint:gosec // G304: rel is cleaned and rooted
	if err != nil {
		return nil, docerr.FromFS("read", rel, err)
	}
	return data, nil
}

func (m *Mutator) abs(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(rel))
}

func (m *Mutator) changed() {
	if m.index != nil {
		m.index.Invalidate()
	}
}

// checkAbsent returns ConflictError when rel exists. A file in place of an
// ancestor folder counts as absent; ensureFolder or the parent check report it.
func (m *Mutator) checkAbsent(rel string) error {
	_, err := os.Lstat(m.abs(rel))
	switch {
	case err == nil:
		return &docerr.ConflictError{Path: rel}
	case os.IsNotExist(err), errors.Is(err, syscall.ENOTDIR):
		return nil
	default:
		return &docerr.IOFailure{Op: "stat", Path: rel, Err: err}
	}
}

// ensureFolder creates rel and its missing ancestors. An ancestor that is a
// file is reported as NotAFolderError; a missing segment must be a valid name.
func (m *Mutator) ensureFolder(rel string) error {
	cur := ""
	missing := false
	for seg := range strings.SplitSeq(rel, "/") {
		if seg == "" {
			continue
		}
		cur = pathsafe.Join(cur, seg)
		if missing {
			if err := pathsafe.ValidateName(seg); err != nil {
				return err
			}
			continue
		}
		fi, err := os.Stat(m.abs(cur))
		if err != nil {
			if !os.IsNotExist(err) {
				return &docerr.IOFailure{Op: "stat", Path: cur, Err: err}
			}
			if err := pathsafe.ValidateName(seg); err != nil {
				return err
			}
			missing = true
			continue
		}
		if !fi.IsDir() {
			return &docerr.NotAFolderError{Path: cur}
		}
	}
	if err := os.MkdirAll(m.abs(rel), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for document folders
		return docerr.FromFS("create folder", rel, err)
	}
	return nil
}

// documentExt normalizes a document type to its extension.
func documentExt(typ string) (string, error) {
	ext := "." + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(typ)), ".")
	for _, e := range storage.DocumentExtensions {
		if e == ext {
			return ext, nil
		}
	}
	return "", &docerr.InvalidNameError{Name: typ, Reason: "unsupported document type"}
}

// defaultContent is a heading plus one line naming the document.
func defaultContent(fileName, ext string) string {
	title := DisplayName(fileName, true)
	kind := "Markdown"
	if ext == ".mdx" {
		kind = "MDX"
	}
	return fmt.Sprintf("# %s\n\nThis %s document was created as %s.\n", title, kind, fileName)
}

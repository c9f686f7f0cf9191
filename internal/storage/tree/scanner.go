// Package tree reads and mutates the document tree stored on the filesystem.
//
// The tree has no transactional guarantees: every mutation re-derives its
// preconditions (name, depth, existence, containment) immediately before the
// single filesystem call that applies it. Two concurrent mutations on
// overlapping paths race at the filesystem level and the loser receives the
// error the filesystem raises, mapped to the docerr taxonomy (typically
// NotFoundError or ConflictError). No in-process lock is taken.
package tree

import (
	"cmp"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage"
)

// Kind is the type of a Node.
type Kind string

const (
	// KindFolder is a directory.
	KindFolder Kind = "folder"
	// KindFile is a regular file.
	KindFile Kind = "file"
)

// Node is a read projection of one file or folder. It is rebuilt on every
// scan and never mutated after the scan returns.
type Node struct {
	Name         string
	OriginalName string
	RelativePath string
	Kind         Kind
	Depth        int
	Extension    string // files only, lowercase with the leading dot
	SizeBytes    int64
	ModifiedAt   time.Time
	Children     []*Node // folders only: folders first, then files
	PreviewRef   string  // documents only, previews-root relative

	// DuplicateName is set when a sibling formats to the same display name.
	DuplicateName bool
}

// IsDocument reports whether the node is a file with a document extension.
func (n *Node) IsDocument() bool {
	return n.Kind == KindFile && storage.IsDocument(n.OriginalName)
}

// Scanner reads directory subtrees of the document root.
type Scanner struct {
	root       string
	depth      pathsafe.DepthValidator
	exclusions map[string]bool
	previewExt string
}

// NewScanner returns a scanner over the document root. previewExt is the
// artifact extension used to derive PreviewRef (".svg" or ".png").
func NewScanner(root string, cfg *storage.TreeConfig, previewExt string) *Scanner {
	s := &Scanner{
		root:       root,
		depth:      pathsafe.DepthValidator{Max: cfg.MaxDepth},
		exclusions: make(map[string]bool, len(cfg.Exclusions)),
		previewExt: previewExt,
	}
	for _, e := range cfg.Exclusions {
		s.exclusions[e] = true
	}
	return s
}

// Root returns the absolute document root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns the children of the folder at rel ("" for the root), recursively,
// down to the configured maximum depth. Deeper levels are cut off and logged,
// unreadable subdirectories are logged and skipped. Only a missing or
// unreadable starting folder is an error.
func (s *Scanner) Scan(ctx context.Context, rel string) ([]*Node, error) {
	rel, err := pathsafe.Clean(rel)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &docerr.NotFoundError{Path: rel, What: "folder"}
		}
		return nil, &docerr.IOFailure{Op: "stat", Path: rel, Err: err}
	}
	if !fi.IsDir() {
		return nil, &docerr.NotAFolderError{Path: rel}
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, &docerr.IOFailure{Op: "read", Path: rel, Err: err}
	}
	return s.build(ctx, rel, entries), nil
}

func (s *Scanner) scanDir(ctx context.Context, rel string) []*Node {
	if pathsafe.Depth(rel) >= s.depth.Limit() {
		slog.DebugContext(ctx, "Depth limit reached, not descending", "path", rel, "max", s.depth.Limit())
		return nil
	}
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		slog.WarnContext(ctx, "Skipping unreadable folder", "path", rel, "err", err)
		return nil
	}
	return s.build(ctx, rel, entries)
}

func (s *Scanner) build(ctx context.Context, rel string, entries []fs.DirEntry) []*Node {
	nodes := make([]*Node, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if s.skip(name) {
			continue
		}
		childRel := pathsafe.Join(rel, name)
		info, err := s.info(childRel, e)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable entry", "path", childRel, "err", err)
			continue
		}
		n := &Node{
			OriginalName: name,
			RelativePath: childRel,
			Depth:        pathsafe.Depth(childRel),
		}
		if info.IsDir() {
			n.Kind = KindFolder
			n.Name = DisplayName(name, false)
			n.Children = s.scanDir(ctx, childRel)
		} else {
			if !info.Mode().IsRegular() {
				continue
			}
			n.Kind = KindFile
			n.Name = DisplayName(name, true)
			n.Extension = strings.ToLower(filepath.Ext(name))
			n.SizeBytes = info.Size()
			n.ModifiedAt = info.ModTime()
			if storage.IsDocument(name) {
				if ref, err := pathsafe.ArtifactPath(childRel, s.previewExt); err == nil {
					n.PreviewRef = ref
				}
			}
		}
		nodes = append(nodes, n)
	}
	sortNodes(nodes)
	return nodes
}

// info follows symlinks; the depth limit bounds symlink loops.
func (s *Scanner) info(rel string, e fs.DirEntry) (fs.FileInfo, error) {
	if e.Type()&fs.ModeSymlink != 0 {
		return os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
	}
	return e.Info()
}

func (s *Scanner) skip(name string) bool {
	return strings.HasPrefix(name, ".") || s.exclusions[name]
}

// sortNodes orders folders before files, then by display name, then by raw
// name, and flags siblings whose display names collide.
func sortNodes(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int {
		if a.Kind != b.Kind {
			if a.Kind == KindFolder {
				return -1
			}
			return 1
		}
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.OriginalName, b.OriginalName))
	})
	seen := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if prev, ok := seen[n.Name]; ok {
			prev.DuplicateName = true
			n.DuplicateName = true
			continue
		}
		seen[n.Name] = n
	}
}

// Count returns the number of nodes in the forest, children included.
func Count(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + Count(n.Children)
	}
	return total
}

package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage"
)

// Format is an artifact encoding.
type Format string

const (
	// FormatSVG is a vector artifact.
	FormatSVG Format = "svg"
	// FormatPNG is a bitmap artifact.
	FormatPNG Format = "png"
)

// Formats lists every artifact format.
var Formats = []Format{FormatSVG, FormatPNG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatSVG, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("unknown preview format %q", s)
}

// Ext returns the file extension of the format, with the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// MimeType returns the media type of the format.
func (f Format) MimeType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Store is the previews root. Paths given to it are previews-root relative
// and already canonical, except for Remove and Relocate which take document
// paths.
type Store struct {
	root string
}

// NewStore returns the store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the previews root.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Read returns the artifact at rel. A missing or
// non-regular file reports ok false.
func (s *Store) Read(rel string) (data []byte, ok bool, err error) {
	full := s.abs(rel)
	fi, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !fi.Mode().IsRegular() {
		return nil, false, nil
	}
	data, err = os.ReadFile(full) //nolint:gosec // G304: rel is cleaned by the caller
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write atomically replaces the artifact at rel.
func (s *Store) Write(rel string, data []byte) error {
	full := s.abs(rel)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: artifacts are public
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err == nil {
		err = os.Chmod(tmp, 0o644) //nolint:gosec // G302: artifacts are public
	}
	if err == nil {
		err = os.Rename(tmp, full)
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	return err
}

// Stat returns the file info of the artifact at rel.
func (s *Store) Stat(rel string) (fs.FileInfo, error) {
	return os.Stat(s.abs(rel))
}

// Remove deletes the artifacts of the document at rel, a document path, then
// the preview folders left empty. Missing artifacts are not an error.
func (s *Store) Remove(ctx context.Context, rel string) error {
	if !storage.IsDocument(rel) {
		return nil
	}
	var errs []error
	for _, f := range Formats {
		a, err := pathsafe.ArtifactPath(rel, f.Ext())
		if err != nil {
			return nil
		}
		if err := os.Remove(s.abs(a)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
		defer s.prune(ctx, path.Dir(a))
	}
	return errors.Join(errs...)
}

// Relocate moves the artifacts of the document at from to the canonical
// location of to. When the destination already has artifacts, the source ones
// are dropped instead.
func (s *Store) Relocate(ctx context.Context, from, to string) error {
	if !storage.IsDocument(from) {
		return nil
	}
	var errs []error
	for _, f := range Formats {
		src, err := pathsafe.ArtifactPath(from, f.Ext())
		if err != nil {
			return nil
		}
		dst, err := pathsafe.ArtifactPath(to, f.Ext())
		if err != nil {
			return nil
		}
		if src != dst {
			errs = append(errs, s.move(ctx, src, dst))
			defer s.prune(ctx, path.Dir(src))
		}
	}
	return errors.Join(errs...)
}

// prune removes dir and its ancestors while they are empty, stopping at the
// previews root.
func (s *Store) prune(ctx context.Context, dir string) {
	for dir != "." && dir != "" {
		if err := os.Remove(s.abs(dir)); err != nil {
			return
		}
		slog.DebugContext(ctx, "Removed empty preview folder", "path", dir)
		dir = path.Dir(dir)
	}
}

func (s *Store) move(ctx context.Context, src, dst string) error {
	if _, err := os.Lstat(s.abs(src)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if _, err := os.Lstat(s.abs(dst)); err == nil {
		slog.DebugContext(ctx, "Preview destination exists, dropping source", "src", src, "dst", dst)
		return os.RemoveAll(s.abs(src))
	}
	if err := os.MkdirAll(filepath.Dir(s.abs(dst)), 0o755); err != nil { //nolint:gosec // G301: artifacts are public
		return err
	}
	slog.DebugContext(ctx, "Relocating preview", "src", src, "dst", dst)
	return os.Rename(s.abs(src), s.abs(dst))
}

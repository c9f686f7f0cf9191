package tree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/pathsafe"
)

// UploadFile is one file of an upload batch. Open is called once, only after
// the whole batch passed validation.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Upload writes files into the folder parentPath.
//
// Every file is validated (name, extension allow-list, size ceiling, batch
// size) before the first write; any rejection fails the whole batch and
// nothing is written. Writes then proceed per file and per-file failures,
// typically ConflictError, are reported in the result.
func (m *Mutator) Upload(ctx context.Context, parentPath string, files []UploadFile) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, &docerr.InvalidNameError{Name: parentPath, Reason: "no files in upload"}
	}
	if limit := m.upload.MaxFiles; limit > 0 && len(files) > limit {
		return nil, &docerr.InvalidNameError{Name: parentPath, Reason: fmt.Sprintf("%d files exceeds the limit of %d per upload", len(files), limit)}
	}
	parent, err := pathsafe.Clean(parentPath)
	if err != nil {
		return nil, err
	}
	if _, err := m.depth.Validate(parent, false); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if err := pathsafe.ValidateName(f.Name); err != nil {
			return nil, err
		}
		if !m.upload.UploadAllowed(f.Name) {
			return nil, &docerr.InvalidNameError{Name: f.Name, Reason: "file type not allowed"}
		}
		if f.Size > m.upload.MaxFileBytes {
			return nil, &docerr.TooLargeError{Path: pathsafe.Join(parent, f.Name), Size: f.Size, Limit: m.upload.MaxFileBytes}
		}
		if seen[f.Name] {
			return nil, &docerr.InvalidNameError{Name: f.Name, Reason: "duplicate name in upload"}
		}
		seen[f.Name] = true
	}
	if err := m.ensureFolder(parent); err != nil {
		return nil, err
	}

	res := &BatchResult{Items: make([]ItemResult, 0, len(files))}
	for _, f := range files {
		rel := pathsafe.Join(parent, f.Name)
		res.add(rel, m.writeUpload(rel, f))
	}
	if res.SuccessCount > 0 {
		m.changed()
	}
	slog.InfoContext(ctx, "Uploaded", "path", parent, "ok", res.SuccessCount, "failed", res.ErrorCount)
	return res, nil
}

func (m *Mutator) writeUpload(rel string, f UploadFile) error {
	rc, err := f.Open()
	if err != nil {
		return &docerr.IOFailure{Op: "open upload", Path: rel, Err: err}
	}
	defer func() { _ = rc.Close() }()
	return writeExclusive(m.abs(rel), rel, rc, m.upload.MaxFileBytes)
}

var errTooLarge = errors.New("content exceeds size limit")

// writeExclusive creates full with O_EXCL and copies r into it. When limit is
// not negative, content beyond limit bytes removes the file and fails with
// TooLargeError.
func writeExclusive(full, rel string, r io.Reader, limit int64) error {
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // G302,G304: rooted path, documents are world readable
	if err != nil {
		return docerr.FromFS("create", rel, err)
	}
	if limit >= 0 {
		r = &limitedReader{r: r, n: limit}
	}
	_, err = io.Copy(f, r)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		_ = os.Remove(full)
		if errors.Is(err, errTooLarge) {
			return &docerr.TooLargeError{Path: rel, Size: limit + 1, Limit: limit}
		}
		return &docerr.IOFailure{Op: "write", Path: rel, Err: err}
	}
	return nil
}

// limitedReader is io.LimitReader that fails instead of truncating.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, errTooLarge
	}
	return n, err
}

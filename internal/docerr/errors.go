// Package docerr defines the typed errors returned by the document tree and
// the preview pipeline.
//
// Every error carries the offending path and, where relevant, the limit or
// conflicting detail, so the HTTP layer can render an actionable message
// without parsing strings. Classify with errors.As.
package docerr

import (
	"fmt"
	"os"
)

// InvalidNameError is returned for an empty name, a name with forbidden
// characters, a reserved device name, a path with a traversal segment, or a
// name that sanitizes to nothing.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

// DepthExceededError is returned when an operation would place a node deeper
// than the configured maximum.
type DepthExceededError struct {
	Path      string
	Attempted int
	Allowed   int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("depth %d exceeds maximum %d at %q", e.Attempted, e.Allowed, e.Path)
}

// ConflictError is returned when the destination of a create, move or upload
// already exists.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%q already exists", e.Path)
}

// NotFoundError is returned when a source, target parent or document is
// missing. What names the missing thing ("source", "target folder", ...).
type NotFoundError struct {
	Path string
	What string
}

func (e *NotFoundError) Error() string {
	what := e.What
	if what == "" {
		what = "path"
	}
	return fmt.Sprintf("%s %q not found", what, e.Path)
}

// NotAFolderError is returned when a path expected to be a folder is a file.
type NotAFolderError struct {
	Path string
}

func (e *NotAFolderError) Error() string {
	return fmt.Sprintf("%q is not a folder", e.Path)
}

// InvalidMoveError is returned when a node would be moved into itself or one
// of its descendants.
type InvalidMoveError struct {
	Source string
	Target string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("cannot move %q into %q", e.Source, e.Target)
}

// IOFailure wraps an unexpected filesystem error.
type IOFailure struct {
	Op   string
	Path string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error {
	return e.Err
}

// FromFS classifies an error returned by an effectful filesystem call on
// path. Existence errors become ConflictError, missing paths NotFoundError,
// anything else IOFailure.
func FromFS(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsExist(err):
		return &ConflictError{Path: path}
	case os.IsNotExist(err):
		return &NotFoundError{Path: path}
	default:
		return &IOFailure{Op: op, Path: path, Err: err}
	}
}

// TooLargeError is returned when an uploaded file exceeds the size ceiling.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%q is %d bytes, limit is %d", e.Path, e.Size, e.Limit)
}

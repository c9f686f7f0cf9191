package docerr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"
)

func TestFromFS(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name: "exists",
			err:  &os.PathError{Op: "open", Path: "a", Err: fs.ErrExist},
			check: func(err error) bool {
				var target *ConflictError
				return errors.As(err, &target) && target.Path == "a.md"
			},
		},
		{
			name: "not exist",
			err:  &os.PathError{Op: "open", Path: "a", Err: fs.ErrNotExist},
			check: func(err error) bool {
				var target *NotFoundError
				return errors.As(err, &target) && target.Path == "a.md"
			},
		},
		{
			name: "other",
			err:  &os.PathError{Op: "open", Path: "a", Err: fs.ErrPermission},
			check: func(err error) bool {
				var target *IOFailure
				return errors.As(err, &target) && errors.Is(err, fs.ErrPermission)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromFS("create", "a.md", tt.err)
			if !tt.check(got) {
				t.Errorf("FromFS() = %#v", got)
			}
		})
	}
	if FromFS("create", "a.md", nil) != nil {
		t.Error("FromFS(nil) should be nil")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&InvalidNameError{Name: "a:b", Reason: "forbidden character ':'"}, `invalid name "a:b": forbidden character ':'`},
		{&DepthExceededError{Path: "a", Attempted: 11, Allowed: 10}, `depth 11 exceeds maximum 10 at "a"`},
		{&ConflictError{Path: "docs/setup.md"}, `"docs/setup.md" already exists`},
		{&NotFoundError{Path: "x"}, `path "x" not found`},
		{&NotFoundError{Path: "x", What: "source"}, `source "x" not found`},
		{&NotAFolderError{Path: "a.md"}, `"a.md" is not a folder`},
		{&InvalidMoveError{Source: "a", Target: "a/b"}, `cannot move "a" into "a/b"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestIOFailureUnwrap(t *testing.T) {
	base := errors.New("disk on fire")
	err := fmt.Errorf("write: %w", &IOFailure{Op: "write", Path: "a.md", Err: base})
	if !errors.Is(err, base) {
		t.Error("IOFailure should unwrap to its cause")
	}
}

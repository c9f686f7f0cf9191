package pathsafe

import (
	"strings"

	"github.com/maruel/mdtree/internal/docerr"
)

// DefaultMaxDepth is the nesting limit used when none is configured.
const DefaultMaxDepth = 10

// Depth returns the number of non-empty slash separated segments of relPath.
// The root has depth 0.
func Depth(relPath string) int {
	n := 0
	for seg := range strings.SplitSeq(relPath, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// DepthValidator rejects operations that would exceed Max. The zero value
// uses DefaultMaxDepth.
type DepthValidator struct {
	Max int
}

// Limit returns the effective maximum depth.
func (v DepthValidator) Limit() int {
	if v.Max <= 0 {
		return DefaultMaxDepth
	}
	return v.Max
}

// Validate returns the depth an operation at relPath would reach, counting
// one more level when it creates a folder there. It must be called with the
// destination before the operation runs.
func (v DepthValidator) Validate(relPath string, willCreateFolder bool) (int, error) {
	d := Depth(relPath)
	if willCreateFolder {
		d++
	}
	if limit := v.Limit(); d > limit {
		return d, &docerr.DepthExceededError{Path: relPath, Attempted: d, Allowed: limit}
	}
	return d, nil
}

// PathCandidate is a relative path with its computed depth and canonical
// form. It is a value: build it with NewCandidate and do not mutate it.
type PathCandidate struct {
	Path      string
	Depth     int
	Canonical string
}

// NewCandidate cleans relPath and derives its depth and canonical form.
func NewCandidate(relPath string) (PathCandidate, error) {
	p, err := Clean(relPath)
	if err != nil {
		return PathCandidate{}, err
	}
	return PathCandidate{Path: p, Depth: Depth(p), Canonical: CanonicalizeFolderPath(p)}, nil
}

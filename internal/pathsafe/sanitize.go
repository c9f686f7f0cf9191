// Package pathsafe turns raw document names and paths into canonical slugs
// and validates relative paths before they touch the filesystem.
//
// Every component that writes or re-derives a preview artifact location goes
// through this package, so the slug computed for a given raw name is the same
// everywhere.
package pathsafe

import (
	"path"
	"regexp"
	"strings"

	"github.com/maruel/mdtree/internal/docerr"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	segmentStrip  = regexp.MustCompile(`[^a-z0-9._-]`)
	folderStrip   = regexp.MustCompile(`[^a-z0-9._/-]`)
	underscoreRun = regexp.MustCompile(`_+`)
	hyphenRun     = regexp.MustCompile(`-+`)
	slashRun      = regexp.MustCompile(`/+`)
)

// Canonicalize maps a single name segment to its canonical slug.
//
// The result is lowercase ASCII limited to [a-z0-9.-], without leading or
// trailing hyphens. A segment that sanitizes to nothing, or to "." or "..",
// is an InvalidNameError.
func Canonicalize(segment string) (string, error) {
	s := canonicalSegment(segment)
	if s == "" || s == "." || s == ".." {
		return "", &docerr.InvalidNameError{Name: segment, Reason: "empty after sanitization"}
	}
	return s, nil
}

// CanonicalizeFolderPath maps a slash separated folder path to its canonical
// form. The slug pipeline runs over the whole string with '/' kept, so
// hyphens are only trimmed at both ends: "My Folder /Sub" is
// "my-folder-/sub". Then "." and ".." segments are dropped, so the result
// never escapes the previews root. The root folder is "".
func CanonicalizeFolderPath(p string) string {
	s := strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = folderStrip.ReplaceAllString(s, "")
	s = underscoreRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	s = slashRun.ReplaceAllString(s, "/")
	s = strings.Trim(s, "-/")
	// Dropping a segment can expose a new leading "-" or ".", so repeat until
	// stable. Each round that changes s makes it shorter.
	for {
		parts := strings.Split(s, "/")
		out := parts[:0]
		for _, part := range parts {
			if part != "" && part != "." && part != ".." {
				out = append(out, part)
			}
		}
		next := strings.Trim(strings.Join(out, "/"), "-/")
		if next == s {
			return s
		}
		s = next
	}
}

func canonicalSegment(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = segmentStrip.ReplaceAllString(s, "")
	s = underscoreRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ArtifactPath returns the previews-root relative location of the artifact
// for the document at relPath, using the preview extension ext (".png",
// ".svg"). The document's own extension is dropped.
func ArtifactPath(relPath, ext string) (string, error) {
	dir, file := path.Split(strings.ReplaceAll(relPath, `\`, "/"))
	stem := strings.TrimSuffix(file, path.Ext(file))
	slug, err := Canonicalize(stem)
	if err != nil {
		return "", err
	}
	folder := CanonicalizeFolderPath(dir)
	if folder == "" {
		return slug + ext, nil
	}
	return folder + "/" + slug + ext, nil
}

// Clean normalizes a client supplied relative path: backslashes become
// slashes, leading and trailing slashes and "." segments are removed. Any ".."
// segment is rejected. The root is "".
func Clean(relPath string) (string, error) {
	p := strings.ReplaceAll(relPath, `\`, "/")
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", &docerr.InvalidNameError{Name: relPath, Reason: "path must not contain '..'"}
		}
		if strings.ContainsRune(part, 0) {
			return "", &docerr.InvalidNameError{Name: relPath, Reason: "path must not contain NUL"}
		}
		out = append(out, part)
	}
	return strings.Join(out, "/"), nil
}

// Join joins cleaned relative path elements, ignoring empty ones.
func Join(elem ...string) string {
	out := make([]string, 0, len(elem))
	for _, e := range elem {
		if e != "" {
			out = append(out, e)
		}
	}
	return strings.Join(out, "/")
}

// IsWithin reports whether p equals root or lies below it. Both must be
// cleaned relative paths.
func IsWithin(p, root string) bool {
	if root == "" {
		return true
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

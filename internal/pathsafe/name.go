package pathsafe

import (
	"strings"
	"unicode/utf8"

	"github.com/maruel/mdtree/internal/docerr"
)

// MaxNameLength is the longest accepted name, in bytes.
const MaxNameLength = 255

// forbiddenChars cannot appear in a node name. '/' is included because a name
// is a single path segment.
const forbiddenChars = `<>:"|\?*/`

var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// ValidateName checks a single node name: non-empty, at most MaxNameLength
// bytes, valid UTF-8, none of <>:"|\?*/ or control characters, not "." or
// "..", and not a reserved device name (with or without extension).
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &docerr.InvalidNameError{Name: name, Reason: "name is required"}
	}
	if len(name) > MaxNameLength {
		return &docerr.InvalidNameError{Name: name, Reason: "name is longer than 255 characters"}
	}
	if !utf8.ValidString(name) {
		return &docerr.InvalidNameError{Name: name, Reason: "name is not valid UTF-8"}
	}
	if i := strings.IndexAny(name, forbiddenChars); i >= 0 {
		return &docerr.InvalidNameError{Name: name, Reason: "forbidden character " + quoteRune(name[i])}
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return &docerr.InvalidNameError{Name: name, Reason: "control characters are not allowed"}
		}
	}
	if name == "." || name == ".." {
		return &docerr.InvalidNameError{Name: name, Reason: "reserved name"}
	}
	base, _, _ := strings.Cut(name, ".")
	if reservedNames[strings.ToLower(strings.TrimSpace(base))] {
		return &docerr.InvalidNameError{Name: name, Reason: "reserved device name"}
	}
	return nil
}

func quoteRune(b byte) string {
	return "'" + string(rune(b)) + "'"
}

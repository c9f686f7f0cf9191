package tree

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	separatorRun = regexp.MustCompile(`[-_.\s]+`)
	camelLower   = regexp.MustCompile(`(\p{Ll}|\d)(\p{Lu})`)
	camelUpper   = regexp.MustCompile(`(\p{Lu}+)(\p{Lu}\p{Ll})`)
)

// acronyms restores the usual spelling of words that per-word capitalization
// breaks.
var acronyms = map[string]string{
	"Api":   "API",
	"Apis":  "APIs",
	"Aws":   "AWS",
	"Cd":    "CD",
	"Ci":    "CI",
	"Cli":   "CLI",
	"Css":   "CSS",
	"Faq":   "FAQ",
	"Html":  "HTML",
	"Http":  "HTTP",
	"Https": "HTTPS",
	"Id":    "ID",
	"Ids":   "IDs",
	"Io":    "IO",
	"Js":    "JS",
	"Json":  "JSON",
	"Jwt":   "JWT",
	"Mdx":   "MDX",
	"Oauth": "OAuth",
	"Rest":  "REST",
	"Sdk":   "SDK",
	"Sql":   "SQL",
	"Ui":    "UI",
	"Url":   "URL",
	"Urls":  "URLs",
	"Ux":    "UX",
	"Xml":   "XML",
	"Yaml":  "YAML",
}

// DisplayName formats a raw on-disk name for display. Files lose their
// extension. Separators become spaces, camelCase boundaries are split, each
// word is capitalized and known acronyms are restored.
//
//	"getting-started.md" -> "Getting Started"
//	"apiReference"       -> "API Reference"
func DisplayName(raw string, isFile bool) string {
	name := raw
	if isFile {
		if ext := path.Ext(name); ext != "" && ext != name {
			name = strings.TrimSuffix(name, ext)
		}
	}
	name = camelUpper.ReplaceAllString(name, "$1 $2")
	name = camelLower.ReplaceAllString(name, "$1 $2")
	name = separatorRun.ReplaceAllString(name, " ")
	words := strings.Fields(name)
	if len(words) == 0 {
		return raw
	}
	for i, w := range words {
		w = capitalize(w)
		if a, ok := acronyms[w]; ok {
			w = a
		}
		words[i] = w
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

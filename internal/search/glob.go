package search

import (
	"regexp"
	"strings"
)

// TranslateGlob compiles a glob into an anchored regexp over slash-separated
// relative paths: `**` crosses directories, `*` matches within one segment,
// `?` matches a single non-separator rune. Character classes `[...]` pass
// through (with `!` negation normalized to `^`).
func TranslateGlob(glob string, ignoreCase bool) (*regexp.Regexp, error) {
	var b strings.Builder
	if ignoreCase {
		b.WriteString("(?i)")
	}
	b.WriteString("^")

	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				// `**/` may match nothing at all, so `**/*.go` still
				// matches a top-level file.
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					b.WriteString(`(?:.*/)?`)
				} else {
					b.WriteString(`.*`)
				}
			} else {
				b.WriteString(`[^/]*`)
			}
		case '?':
			b.WriteString(`[^/]`)
		case '[':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == ']' {
					end = j
					break
				}
			}
			if end < 0 {
				b.WriteString(regexp.QuoteMeta(string(r)))
				continue
			}
			class := string(runes[i+1 : end])
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// compilePattern builds the content-matching regexp for grep. A pattern that
// fails to compile is retried as a literal match instead of failing the
// call.
func compilePattern(pattern string, ignoreCase bool) *regexp.Regexp {
	prefix := ""
	if ignoreCase {
		prefix = "(?i)"
	}
	re, err := regexp.Compile(prefix + pattern)
	if err == nil {
		return re
	}
	return regexp.MustCompile(prefix + regexp.QuoteMeta(pattern))
}

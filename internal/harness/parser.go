package harness

import (
	"regexp"
	"strings"
)

// Tool-call blocks arrive embedded in free-form model text:
//
//	<<<tool.grep
//	{"pattern":"TODO"}
//	>>>
//
// Names are matched case-insensitively and restricted to [a-z0-9_-].
// Anything that does not match the full open/close pair stays literal text.
var blockPattern = regexp.MustCompile(`(?is)<<<tool\.([a-z0-9_-]+)\s(.*?)>>>`)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ParseInvocations extracts tool-call blocks in document order. Matches are
// non-overlapping; the raw span is preserved verbatim for later in-place
// replacement.
func ParseInvocations(text string) []Invocation {
	matches := blockPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	invs := make([]Invocation, 0, len(matches))
	for _, m := range matches {
		invs = append(invs, Invocation{
			Name:     strings.ToLower(m[1]),
			RawBlock: m[0],
			Payload:  strings.TrimSpace(m[2]),
		})
	}
	return invs
}

// StripToolBlocks removes every matched block and collapses the leftover
// blank runs (3+ newlines become 2). Applying it twice yields the same text.
func StripToolBlocks(text string) string {
	stripped := blockPattern.ReplaceAllString(text, "")
	stripped = blankRuns.ReplaceAllString(stripped, "\n\n")
	return strings.TrimSpace(stripped)
}

// Package normalize turns raw survey comments into their canonical form:
// bracketed annotation tags removed, lower-cased and trimmed.
package normalize

import (
	"regexp"
	"strings"
)

// tagPattern matches annotation tags such as "[3A]". Non-greedy so that
// "[a] text [b]" loses both tags but keeps the text between them.
var tagPattern = regexp.MustCompile(`\[.*?\]`)

// Normalize strips bracketed tags, lower-cases and trims a comment.
func Normalize(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.ToLower(s))
}

// All normalizes every comment, preserving order.
func All(comments []string) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = Normalize(c)
	}
	return out
}

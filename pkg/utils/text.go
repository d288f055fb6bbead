// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText applies NFKC normalization, drops control characters,
// and collapses runs of whitespace into single spaces.
func NormalizeText(text string) string {
	text = norm.NFKC.String(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	return b.String()
}

// LowerWords returns the whitespace-separated words of s in lowercase.
func LowerWords(s string) []string {
	return strings.Fields(strings.ToLower(NormalizeText(s)))
}

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

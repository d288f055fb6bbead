// Package similarity provides character-level and token-set string similarity measures.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// LevenshteinDistance returns the minimum number of single-rune insertions,
// deletions, or substitutions needed to turn a into b.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	return edlib.LevenshteinDistance(a, b)
}

// EditSimilarity returns 1 - distance/max(len(a), len(b)) in [0, 1].
// Strings equal ignoring case score exactly 1; a blank value on either side scores 0.
// The distance itself is case-sensitive.
func EditSimilarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	sim := 1 - float64(LevenshteinDistance(a, b))/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

package search

import (
	"sort"

	"github.com/hyperjump/ontomatch/internal/models"
)

// sortByScore orders suggestions by descending score, keeping input order on ties.
func sortByScore(s []*models.Suggestion) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}

// Package query expands ontology templates into weighted search terms and builds
// engine-agnostic search intents.
package query

import (
	"fmt"
	"strings"

	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// Extract expands tpl against the entity's field values and the weight map.
// Items come out in template order, then RemoveOverlap is applied.
// Returns ErrInvalidTemplate for a nil template and ErrMissingField when a placeholder
// has no value in the entity or no weight.
func Extract(tpl *models.QueryTemplate, entity *models.SourceEntity, weights map[string]float64) ([]*models.SearchQueryItem, error) {
	if tpl == nil {
		return nil, fmt.Errorf("%w: template is nil", models.ErrInvalidTemplate)
	}
	keys := tpl.Keys()
	items := make([]*models.SearchQueryItem, 0, len(keys))
	for _, key := range keys {
		raw, ok := entity.Value(key)
		value := utils.NormalizeText(raw)
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: entity %s has no value for %q used in template %q",
				models.ErrMissingField, entity.ID(), key, tpl.Text())
		}
		weight, ok := weights[key]
		if !ok {
			return nil, fmt.Errorf("%w: no weight configured for %q used in template %q",
				models.ErrMissingField, key, tpl.Text())
		}
		item, err := models.NewSearchQueryItem(key, value)
		if err != nil {
			return nil, err
		}
		item.Weight = weight
		items = append(items, item)
	}
	return RemoveOverlap(items), nil
}

// RemoveOverlap keeps every word shared by several items only in the item with the
// highest weight; on equal weights the earliest item keeps it. Values are rebuilt from
// the surviving lowercase words in their original order, and items left without
// words are dropped. The items are rewritten in place.
func RemoveOverlap(items []*models.SearchQueryItem) []*models.SearchQueryItem {
	words := make([][]string, len(items))
	owner := make(map[string]int)
	for i, item := range items {
		words[i] = utils.LowerWords(item.Value)
		for _, w := range words[i] {
			cur, seen := owner[w]
			if !seen || item.Weight > items[cur].Weight {
				owner[w] = i
			}
		}
	}

	out := make([]*models.SearchQueryItem, 0, len(items))
	for i, item := range items {
		kept := make([]string, 0, len(words[i]))
		for _, w := range words[i] {
			if owner[w] == i {
				kept = append(kept, w)
			}
		}
		if len(kept) == 0 {
			continue
		}
		item.Value = strings.Join(kept, " ")
		out = append(out, item)
	}
	return out
}

// Phrase joins the item values with spaces, approximating the query text.
func Phrase(items []*models.SearchQueryItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Value)
	}
	return strings.Join(parts, " ")
}

package query

import (
	"fmt"

	"github.com/hyperjump/ontomatch/internal/config"
	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// SimilarFuzziness is the per-word edit allowance of the similar intents.
const SimilarFuzziness = 1

// FieldTarget names which part of a target entity a clause searches.
type FieldTarget int

const (
	// TargetDataField is a rule field named by Clause.Field.
	TargetDataField FieldTarget = iota
	// TargetLabel is the target label.
	TargetLabel
	// TargetSynonyms is any entry of the ontology synonym list.
	TargetSynonyms
)

// String returns a string representation of the field target.
func (f FieldTarget) String() string {
	switch f {
	case TargetDataField:
		return "data"
	case TargetLabel:
		return "label"
	case TargetSynonyms:
		return "synonyms"
	default:
		return "unknown"
	}
}

// Clause matches Text against one field.
type Clause struct {
	Target FieldTarget
	// Field is the rule field name; empty for label and synonym clauses.
	Field string
	Text  string
	Boost float64
	// Fuzziness is the maximum edit distance allowed per word.
	Fuzziness int
	// RequireAllWords makes every word of Text mandatory; otherwise any word may match.
	RequireAllWords bool
}

// Group is a set of clauses combined with AND (RequireAll) or OR.
type Group struct {
	Clauses    []Clause
	RequireAll bool
}

// Intent is an engine-agnostic description of one search.
type Intent struct {
	Family models.TargetType
	// EntityType restricts hits to targets of this entity type when set.
	EntityType string
	Groups     []Group
	// RequireAllGroups combines groups with AND; otherwise with OR.
	RequireAllGroups bool
	Exact            bool
}

// ExactRuleIntent requires every configured field to match the entity's value word
// for word, with no edits.
func ExactRuleIntent(entity *models.SourceEntity, cfg *config.EntityConfig) (*Intent, error) {
	return ruleIntent(entity, cfg, true)
}

// SimilarRuleIntent lets any configured field match with one edit per word.
func SimilarRuleIntent(entity *models.SourceEntity, cfg *config.EntityConfig) (*Intent, error) {
	return ruleIntent(entity, cfg, false)
}

func ruleIntent(entity *models.SourceEntity, cfg *config.EntityConfig, exact bool) (*Intent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration for entity type %q", models.ErrMissingConfiguration, entity.Type())
	}
	fuzziness := SimilarFuzziness
	if exact {
		fuzziness = 0
	}
	group := Group{RequireAll: exact, Clauses: make([]Clause, 0, len(cfg.Fields))}
	for _, f := range cfg.Fields {
		raw, ok := entity.Value(f.Name)
		value := utils.NormalizeText(raw)
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: entity %s has no value for configured field %q",
				models.ErrMissingField, entity.ID(), f.Name)
		}
		group.Clauses = append(group.Clauses, Clause{
			Target:          TargetDataField,
			Field:           f.Name,
			Text:            value,
			Boost:           1,
			Fuzziness:       fuzziness,
			RequireAllWords: exact,
		})
	}
	return &Intent{
		Family:           models.TargetRule,
		EntityType:       entity.Type(),
		Groups:           []Group{group},
		RequireAllGroups: true,
		Exact:            exact,
	}, nil
}

// ExactOntologyIntent matches every item exactly against the label, or every item
// exactly against the synonyms.
func ExactOntologyIntent(items []*models.SearchQueryItem) (*Intent, error) {
	return ontologyIntent(items, true)
}

// SimilarOntologyIntent matches any item against the label or the synonyms, allowing
// one edit per word unless the item sets its own MaxEdits.
func SimilarOntologyIntent(items []*models.SearchQueryItem) (*Intent, error) {
	return ontologyIntent(items, false)
}

func ontologyIntent(items []*models.SearchQueryItem, exact bool) (*Intent, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no search terms for ontology query", models.ErrInvalidArgument)
	}
	build := func(target FieldTarget) Group {
		g := Group{RequireAll: exact, Clauses: make([]Clause, 0, len(items))}
		for _, item := range items {
			fuzziness := 0
			if !exact {
				fuzziness = SimilarFuzziness
				if item.MaxEdits > 0 {
					fuzziness = item.MaxEdits
				}
			}
			g.Clauses = append(g.Clauses, Clause{
				Target:          target,
				Text:            item.Value,
				Boost:           item.Weight,
				Fuzziness:       fuzziness,
				RequireAllWords: exact,
			})
		}
		return g
	}
	return &Intent{
		Family:           models.TargetOntology,
		Groups:           []Group{build(TargetLabel), build(TargetSynonyms)},
		RequireAllGroups: false,
		Exact:            exact,
	}, nil
}

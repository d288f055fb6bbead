package models

import (
	"fmt"
	"strings"
)

// DefaultItemWeight is the weight of a SearchQueryItem when none is given.
const DefaultItemWeight = 1.0

// SearchQueryItem is one weighted search term produced from a template placeholder.
type SearchQueryItem struct {
	Field    string  `json:"field"`
	Value    string  `json:"value"`
	Weight   float64 `json:"weight"`
	MaxEdits int     `json:"max_edits,omitempty"`
}

// NewSearchQueryItem builds an item with the default weight and zero edits.
// Returns ErrInvalidArgument when value is blank.
func NewSearchQueryItem(field, value string) (*SearchQueryItem, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("%w: search term for field %q is empty", ErrInvalidArgument, field)
	}
	return &SearchQueryItem{Field: field, Value: value, Weight: DefaultItemWeight}, nil
}

// Stage identifies one step of the suggestion funnel.
type Stage int

const (
	StageExactRule Stage = iota + 1
	StageSimilarRule
	StageExactOntology
	StageSimilarOntology
)

// String returns a string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageExactRule:
		return "exact_rule"
	case StageSimilarRule:
		return "similar_rule"
	case StageExactOntology:
		return "exact_ontology"
	case StageSimilarOntology:
		return "similar_ontology"
	default:
		return "unknown"
	}
}

// Exact reports whether the stage only returns exact matches.
func (s Stage) Exact() bool {
	return s == StageExactRule || s == StageExactOntology
}

// ScoringDetails records how a suggestion was found.
type ScoringDetails struct {
	SearchTerms []SearchQueryItem `json:"search_terms,omitempty"`
	Exact       bool              `json:"exact"`
	Stage       string            `json:"stage"`
}

// Suggestion is a scored candidate match. UniqueID, not pointer identity, is the
// deduplication key. Score is normalized to 0-100; RawScore is engine-native and only
// meaningful for ordering within one query.
type Suggestion struct {
	UniqueID  string          `json:"unique_id"`
	Target    *TargetEntity   `json:"target"`
	TermLabel string          `json:"term_label"`
	TermURL   string          `json:"term_url,omitempty"`
	Score     float64         `json:"score"`
	RawScore  float64         `json:"raw_score"`
	Details   *ScoringDetails `json:"scoring_details,omitempty"`
}

// NewSuggestion builds a suggestion for target with the given scores.
func NewSuggestion(target *TargetEntity, score, rawScore float64, details *ScoringDetails) *Suggestion {
	return &Suggestion{
		UniqueID:  target.UniqueID(),
		Target:    target,
		TermLabel: target.Label,
		TermURL:   target.URL,
		Score:     score,
		RawScore:  rawScore,
		Details:   details,
	}
}

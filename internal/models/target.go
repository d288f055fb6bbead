package models

import (
	"fmt"
	"strings"
)

// TargetType is the variant tag of a TargetEntity.
type TargetType string

const (
	// TargetRule is a previously curated mapping rule.
	TargetRule TargetType = "rule"
	// TargetOntology is a controlled-vocabulary term.
	TargetOntology TargetType = "ontology"
)

// RulePayload holds the field values a rule was curated for.
type RulePayload struct {
	Fields map[string]string `json:"fields"`
}

// OntologyPayload holds the descriptive parts of an ontology term.
type OntologyPayload struct {
	Description string   `json:"description,omitempty"`
	Synonyms    []string `json:"synonyms,omitempty"`
}

// TargetEntity is a candidate match. Exactly one of Rule or Ontology is set,
// matching TargetType.
type TargetEntity struct {
	ID         string           `json:"id"`
	EntityType string           `json:"entity_type"`
	TargetType TargetType       `json:"target_type"`
	Label      string           `json:"label"`
	URL        string           `json:"url,omitempty"`
	Rule       *RulePayload     `json:"rule,omitempty"`
	Ontology   *OntologyPayload `json:"ontology,omitempty"`
}

// NewRuleTarget builds a rule target.
func NewRuleTarget(id, entityType, label, url string, fields map[string]string) *TargetEntity {
	return &TargetEntity{
		ID:         id,
		EntityType: entityType,
		TargetType: TargetRule,
		Label:      label,
		URL:        url,
		Rule:       &RulePayload{Fields: fields},
	}
}

// NewOntologyTarget builds an ontology term target.
func NewOntologyTarget(id, entityType, label, url, description string, synonyms []string) *TargetEntity {
	return &TargetEntity{
		ID:         id,
		EntityType: entityType,
		TargetType: TargetOntology,
		Label:      label,
		URL:        url,
		Ontology:   &OntologyPayload{Description: description, Synonyms: synonyms},
	}
}

// UniqueID is the identity and deduplication key: targetType|entityType|id.
func (t *TargetEntity) UniqueID() string {
	return string(t.TargetType) + "|" + t.EntityType + "|" + t.ID
}

// Validate checks that the base fields are present and the payload agrees with TargetType.
func (t *TargetEntity) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: target entity id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(t.EntityType) == "" {
		return fmt.Errorf("%w: target entity %s has no entity type", ErrInvalidArgument, t.ID)
	}
	switch t.TargetType {
	case TargetRule:
		if t.Rule == nil || t.Ontology != nil {
			return fmt.Errorf("%w: rule target %s must carry only a rule payload", ErrInvalidArgument, t.ID)
		}
	case TargetOntology:
		if t.Ontology == nil || t.Rule != nil {
			return fmt.Errorf("%w: ontology target %s must carry only an ontology payload", ErrInvalidArgument, t.ID)
		}
		if strings.TrimSpace(t.Label) == "" {
			return fmt.Errorf("%w: ontology target %s has no label", ErrInvalidArgument, t.ID)
		}
	default:
		return fmt.Errorf("%w: target entity %s has unknown target type %q", ErrInvalidArgument, t.ID, t.TargetType)
	}
	return nil
}

// DataFields separates single-valued string fields from multi-valued list fields.
// List fields are only used for ontology synonyms.
type DataFields struct {
	Strings map[string]string
	Lists   map[string][]string
}

// SynonymsField is the list field name under which ontology synonyms are exposed.
const SynonymsField = "synonyms"

// DataFields returns the structured field bag of the target.
func (t *TargetEntity) DataFields() DataFields {
	df := DataFields{Strings: map[string]string{}, Lists: map[string][]string{}}
	switch {
	case t.Rule != nil:
		for k, v := range t.Rule.Fields {
			df.Strings[k] = v
		}
	case t.Ontology != nil:
		if t.Ontology.Description != "" {
			df.Strings["description"] = t.Ontology.Description
		}
		if len(t.Ontology.Synonyms) > 0 {
			df.Lists[SynonymsField] = append([]string(nil), t.Ontology.Synonyms...)
		}
	}
	return df
}

// RuleField returns a rule field value. Ontology targets never have rule fields.
func (t *TargetEntity) RuleField(name string) (string, bool) {
	if t.Rule == nil {
		return "", false
	}
	v, ok := t.Rule.Fields[name]
	return v, ok
}

// Synonyms returns the ontology synonyms, or nil for rules.
func (t *TargetEntity) Synonyms() []string {
	if t.Ontology == nil {
		return nil
	}
	return t.Ontology.Synonyms
}

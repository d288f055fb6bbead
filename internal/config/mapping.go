package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/ontomatch/internal/models"
)

// FieldWeight is one weighted source field used for rule matching and scoring.
type FieldWeight struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// EntityConfig is the mapping configuration for one source entity type.
// Field weights and ontology templates are checked once, on first use.
type EntityConfig struct {
	RulesIndex        string        `yaml:"rules_index"`
	OntologyIndex     string        `yaml:"ontology_index"`
	Fields            []FieldWeight `yaml:"fields"`
	OntologyTemplates []string      `yaml:"ontology_templates"`

	once      sync.Once
	templates []*models.QueryTemplate
	err       error
}

// Weights returns the field weights keyed by field name.
func (c *EntityConfig) Weights() map[string]float64 {
	w := make(map[string]float64, len(c.Fields))
	for _, f := range c.Fields {
		w[f.Name] = f.Weight
	}
	return w
}

// TotalWeight returns the sum of all field weights.
func (c *EntityConfig) TotalWeight() float64 {
	var total float64
	for _, f := range c.Fields {
		total += f.Weight
	}
	return total
}

// Templates returns the parsed ontology templates in configured order.
// A malformed entity configuration returns ErrMalformedConfiguration on every call.
func (c *EntityConfig) Templates() ([]*models.QueryTemplate, error) {
	c.once.Do(func() {
		c.templates, c.err = c.parse()
	})
	return c.templates, c.err
}

// parse checks the weight invariants and parses the templates.
func (c *EntityConfig) parse() ([]*models.QueryTemplate, error) {
	if len(c.Fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", models.ErrMalformedConfiguration)
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field without a name", models.ErrMalformedConfiguration)
		}
		if f.Weight < 0 {
			return nil, fmt.Errorf("%w: field %q has negative weight %v", models.ErrMalformedConfiguration, f.Name, f.Weight)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: field %q is listed twice", models.ErrMalformedConfiguration, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	if c.TotalWeight() <= 0 {
		return nil, fmt.Errorf("%w: no positive field weight", models.ErrMalformedConfiguration)
	}

	templates := make([]*models.QueryTemplate, 0, len(c.OntologyTemplates))
	for _, text := range c.OntologyTemplates {
		tpl, err := models.NewQueryTemplate(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedConfiguration, err)
		}
		for _, key := range tpl.Keys() {
			if _, ok := seen[key]; !ok {
				return nil, fmt.Errorf("%w: template %q references %q which has no weight",
					models.ErrMalformedConfiguration, text, key)
			}
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

// Provider supplies the per-entity-type mapping configuration.
type Provider interface {
	ForType(entityType string) (*EntityConfig, error)
}

// MappingConfiguration is the named set of per-entity-type configurations.
type MappingConfiguration map[string]*EntityConfig

// Validate checks every entity configuration.
func (m MappingConfiguration) Validate() error {
	for _, name := range m.Types() {
		ec := m[name]
		if ec == nil {
			return fmt.Errorf("%w: entity type %q is empty", models.ErrMalformedConfiguration, name)
		}
		if _, err := ec.Templates(); err != nil {
			return fmt.Errorf("entity type %q: %w", name, err)
		}
	}
	return nil
}

// ForType returns the configuration for entityType. It returns ErrMissingConfiguration
// when the type is not configured and ErrMalformedConfiguration when it is invalid.
func (m MappingConfiguration) ForType(entityType string) (*EntityConfig, error) {
	ec, ok := m[entityType]
	if !ok || ec == nil {
		return nil, fmt.Errorf("%w: no configuration for entity type %q", models.ErrMissingConfiguration, entityType)
	}
	if _, err := ec.Templates(); err != nil {
		return nil, fmt.Errorf("entity type %q: %w", entityType, err)
	}
	return ec, nil
}

// Types returns the configured entity types in sorted order.
func (m MappingConfiguration) Types() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

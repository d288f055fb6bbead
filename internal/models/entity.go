// Package models defines core data structures for source entities, target entities,
// query items, and suggestions.
package models

import (
	"fmt"
	"strings"
)

// SourceEntity is one input record to be mapped. It is immutable once built;
// use NewSourceEntity to construct it.
type SourceEntity struct {
	id   string
	typ  string
	data map[string]string
}

// NewSourceEntity validates and builds a SourceEntity. The data map is copied.
// Returns ErrInvalidArgument when id or type is blank, or data is empty.
func NewSourceEntity(id, entityType string, data map[string]string) (*SourceEntity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: source entity id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(entityType) == "" {
		return nil, fmt.Errorf("%w: source entity %s has no type", ErrInvalidArgument, id)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: source entity %s has no data", ErrInvalidArgument, id)
	}
	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return &SourceEntity{id: id, typ: entityType, data: copied}, nil
}

// ID returns the entity id.
func (e *SourceEntity) ID() string { return e.id }

// Type returns the entity type used to select configuration.
func (e *SourceEntity) Type() string { return e.typ }

// Value returns the value of field and whether it is present.
func (e *SourceEntity) Value(field string) (string, bool) {
	v, ok := e.data[field]
	return v, ok
}

// SourceEntityInput is the wire form of a SourceEntity in mapping requests.
type SourceEntityInput struct {
	ID   string            `json:"id"`
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

// Build converts the input into a validated SourceEntity.
func (in SourceEntityInput) Build() (*SourceEntity, error) {
	return NewSourceEntity(in.ID, in.Type, in.Data)
}

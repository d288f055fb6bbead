// Package index translates query intents into full-text searches over target entities.
package index

import (
	"context"

	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/internal/query"
)

// DefaultResultWindow caps the hits returned by a single search.
const DefaultResultWindow = 50

// Hit is one materialized search result.
type Hit struct {
	Target   *models.TargetEntity
	RawScore float64
}

// Gateway runs intents against named indexes.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// Search returns at most the result window of hits, best first.
	// Returns models.ErrIndexNotFound when indexID does not exist.
	Search(ctx context.Context, intent *query.Intent, indexID string) ([]Hit, error)
	// IndexTargets adds or replaces targets in indexID, creating the index if needed.
	IndexTargets(ctx context.Context, indexID string, targets []*models.TargetEntity) error
	// RemoveTargets deletes targets by unique id and returns how many were stored.
	RemoveTargets(ctx context.Context, indexID string, uniqueIDs []string) (int, error)
	Close() error
}

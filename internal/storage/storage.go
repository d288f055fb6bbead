// Package storage defines the persistence interface for target entities.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/ontomatch/internal/models"
)

// ErrTargetNotFound is returned when a target is not stored under the given index.
var ErrTargetNotFound = errors.New("target not found")

// TargetStore persists target entities per index so search hits can be materialized.
type TargetStore interface {
	// PutTargets inserts or replaces targets under indexID, keyed by UniqueID.
	PutTargets(ctx context.Context, indexID string, targets []*models.TargetEntity) error
	GetTarget(ctx context.Context, indexID, uniqueID string) (*models.TargetEntity, error)
	// GetTargets returns the stored targets keyed by UniqueID; unknown ids are omitted.
	GetTargets(ctx context.Context, indexID string, uniqueIDs []string) (map[string]*models.TargetEntity, error)
	DeleteTarget(ctx context.Context, indexID, uniqueID string) error
	CountTargets(ctx context.Context, indexID string) (int64, error)

	Close() error
}

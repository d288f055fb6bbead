// Package mapper maps batches of source entities concurrently.
package mapper

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// Finder produces ranked suggestions for one entity.
type Finder interface {
	Find(ctx context.Context, entity *models.SourceEntity) ([]*models.Suggestion, error)
}

// Result is the independent outcome for one entity of a batch.
type Result struct {
	EntityID    string               `json:"entity_id"`
	Suggestions []*models.Suggestion `json:"suggestions"`
	Err         error                `json:"-"`
}

// Mapper runs a Finder over many entities with bounded parallelism.
type Mapper struct {
	finder  Finder
	workers int
	logger  *zap.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets a logger for batch progress.
func WithLogger(l *zap.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// WithWorkers bounds the number of entities mapped at once. Values <= 0 use runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(m *Mapper) { m.workers = n }
}

// New creates a mapper over finder.
func New(finder Finder, opts ...Option) *Mapper {
	m := &Mapper{finder: finder}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers <= 0 {
		m.workers = runtime.NumCPU()
	}
	m.logger = utils.OrNop(m.logger)
	return m
}

// MapAll maps every entity and returns one Result per entity in input order.
// A failing entity never stops its siblings.
func (m *Mapper) MapAll(ctx context.Context, entities []*models.SourceEntity) []Result {
	results := make([]Result, len(entities))
	runID := uuid.New().String()
	logger := m.logger.With(zap.String("run_id", runID))
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, e := range entities {
		if e == nil {
			results[i] = Result{Err: models.ErrInvalidArgument}
			continue
		}
		results[i].EntityID = e.ID()
		g.Go(func() error {
			suggestions, err := m.finder.Find(ctx, e)
			if err != nil {
				logger.Debug("entity mapping failed", zap.String("entity", e.ID()), zap.Error(err))
				results[i].Err = err
				return nil
			}
			if suggestions == nil {
				suggestions = []*models.Suggestion{}
			}
			results[i].Suggestions = suggestions
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("batch mapped",
		zap.Int("entities", len(entities)),
		zap.Int("failed", failed),
		zap.Int("workers", m.workers),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}

// MapInputs builds entities from raw inputs and maps them. Inputs that fail
// validation get a Result carrying the validation error and are not searched.
func (m *Mapper) MapInputs(ctx context.Context, inputs []models.SourceEntityInput) []Result {
	entities := make([]*models.SourceEntity, 0, len(inputs))
	slots := make([]int, 0, len(inputs))
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		e, err := in.Build()
		if err != nil {
			results[i] = Result{EntityID: in.ID, Err: err}
			continue
		}
		entities = append(entities, e)
		slots = append(slots, i)
	}
	for j, r := range m.MapAll(ctx, entities) {
		results[slots[j]] = r
	}
	return results
}

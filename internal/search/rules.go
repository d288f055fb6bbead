// Package search finds and ranks suggestions for source entities.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/ontomatch/internal/config"
	"github.com/hyperjump/ontomatch/internal/index"
	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/internal/query"
	"github.com/hyperjump/ontomatch/internal/scoring"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// Searcher runs the exact and similar searches of one target family.
type Searcher interface {
	FindExact(ctx context.Context, entity *models.SourceEntity, cfg *config.EntityConfig) ([]*models.Suggestion, error)
	FindSimilar(ctx context.Context, entity *models.SourceEntity, cfg *config.EntityConfig) ([]*models.Suggestion, error)
}

// SearcherOption configures a RulesSearcher or OntologiesSearcher.
type SearcherOption func(*searcherBase)

// WithSearcherLogger sets a logger for debug output.
func WithSearcherLogger(l *zap.Logger) SearcherOption {
	return func(b *searcherBase) { b.logger = l }
}

type searcherBase struct {
	gateway index.Gateway
	scorer  *scoring.Calculator
	logger  *zap.Logger
}

func newSearcherBase(gateway index.Gateway, scorer *scoring.Calculator, opts []SearcherOption) searcherBase {
	b := searcherBase{gateway: gateway, scorer: scorer}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = utils.OrNop(b.logger)
	return b
}

// RulesSearcher matches entities against previously curated rules.
type RulesSearcher struct {
	searcherBase
}

// NewRulesSearcher creates a rules searcher.
func NewRulesSearcher(gateway index.Gateway, scorer *scoring.Calculator, opts ...SearcherOption) *RulesSearcher {
	return &RulesSearcher{searcherBase: newSearcherBase(gateway, scorer, opts)}
}

// FindExact returns rules whose configured fields all match the entity word for word.
// Every hit scores 100.
func (s *RulesSearcher) FindExact(ctx context.Context, entity *models.SourceEntity, cfg *config.EntityConfig) ([]*models.Suggestion, error) {
	if cfg == nil || cfg.RulesIndex == "" {
		return nil, nil
	}
	intent, err := query.ExactRuleIntent(entity, cfg)
	if err != nil {
		return nil, err
	}
	hits, err := s.gateway.Search(ctx, intent, cfg.RulesIndex)
	if err != nil {
		return nil, err
	}
	terms := ruleTerms(entity, cfg)
	out := make([]*models.Suggestion, 0, len(hits))
	for _, h := range hits {
		out = append(out, models.NewSuggestion(h.Target, scoring.MaxScore, h.RawScore, &models.ScoringDetails{
			SearchTerms: terms,
			Exact:       true,
			Stage:       models.StageExactRule.String(),
		}))
	}
	s.logger.Debug("exact rule search", zap.String("entity", entity.ID()), zap.Int("hits", len(out)))
	return out, nil
}

// FindSimilar returns rules matching any configured field within one edit per word,
// rescored locally and sorted by score.
func (s *RulesSearcher) FindSimilar(ctx context.Context, entity *models.SourceEntity, cfg *config.EntityConfig) ([]*models.Suggestion, error) {
	if cfg == nil || cfg.RulesIndex == "" {
		return nil, nil
	}
	intent, err := query.SimilarRuleIntent(entity, cfg)
	if err != nil {
		return nil, err
	}
	hits, err := s.gateway.Search(ctx, intent, cfg.RulesIndex)
	if err != nil {
		return nil, err
	}
	terms := ruleTerms(entity, cfg)
	out := make([]*models.Suggestion, 0, len(hits))
	for _, h := range hits {
		score, err := s.scorer.Score(entity, h.Target, nil, cfg)
		if err != nil {
			return nil, fmt.Errorf("scoring %s: %w", h.Target.UniqueID(), err)
		}
		out = append(out, models.NewSuggestion(h.Target, score, h.RawScore, &models.ScoringDetails{
			SearchTerms: terms,
			Stage:       models.StageSimilarRule.String(),
		}))
	}
	sortByScore(out)
	s.logger.Debug("similar rule search", zap.String("entity", entity.ID()), zap.Int("hits", len(out)))
	return out, nil
}

// ruleTerms lists the weighted field values a rule search used.
func ruleTerms(entity *models.SourceEntity, cfg *config.EntityConfig) []models.SearchQueryItem {
	terms := make([]models.SearchQueryItem, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		v, _ := entity.Value(f.Name)
		terms = append(terms, models.SearchQueryItem{Field: f.Name, Value: utils.NormalizeText(v), Weight: f.Weight})
	}
	return terms
}

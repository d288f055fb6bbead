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
)

// OntologiesSearcher matches entities against ontology terms using the configured
// query templates.
type OntologiesSearcher struct {
	searcherBase
}

// NewOntologiesSearcher creates an ontologies searcher.
func NewOntologiesSearcher(gateway index.Gateway, scorer *scoring.Calculator, opts ...SearcherOption) *OntologiesSearcher {
	return &OntologiesSearcher{searcherBase: newSearcherBase(gateway, scorer, opts)}
}

// FindExact runs the exact ontology intent for every template.
func (s *OntologiesSearcher) FindExact(ctx context.Context, entity *models.SourceEntity, cfg *config.EntityConfig) ([]*models.Suggestion, error) {
	return s.find(ctx, entity, cfg, models.StageExactOntology, query.ExactOntologyIntent)
}

// FindSimilar runs the similar ontology intent for every template.
func (s *OntologiesSearcher) FindSimilar(ctx context.Context, entity *models.SourceEntity, cfg *config.EntityConfig) ([]*models.Suggestion, error) {
	return s.find(ctx, entity, cfg, models.StageSimilarOntology, query.SimilarOntologyIntent)
}

// find searches once per template. A term found by several templates keeps its best
// score and its first-seen position.
func (s *OntologiesSearcher) find(
	ctx context.Context,
	entity *models.SourceEntity,
	cfg *config.EntityConfig,
	stage models.Stage,
	build func([]*models.SearchQueryItem) (*query.Intent, error),
) ([]*models.Suggestion, error) {
	if cfg == nil || cfg.OntologyIndex == "" {
		return nil, nil
	}
	templates, err := cfg.Templates()
	if err != nil {
		return nil, err
	}
	weights := cfg.Weights()
	best := make(map[string]*models.Suggestion)
	var order []string

	for _, tpl := range templates {
		items, err := query.Extract(tpl, entity, weights)
		if err != nil {
			return nil, err
		}
		intent, err := build(items)
		if err != nil {
			return nil, err
		}
		hits, err := s.gateway.Search(ctx, intent, cfg.OntologyIndex)
		if err != nil {
			return nil, err
		}
		terms := make([]models.SearchQueryItem, len(items))
		for i, it := range items {
			terms[i] = *it
		}
		for _, h := range hits {
			score, err := s.scorer.Score(entity, h.Target, items, cfg)
			if err != nil {
				return nil, fmt.Errorf("scoring %s: %w", h.Target.UniqueID(), err)
			}
			sug := models.NewSuggestion(h.Target, score, h.RawScore, &models.ScoringDetails{
				SearchTerms: terms,
				Exact:       stage.Exact(),
				Stage:       stage.String(),
			})
			prev, seen := best[sug.UniqueID]
			if !seen {
				order = append(order, sug.UniqueID)
				best[sug.UniqueID] = sug
			} else if sug.Score > prev.Score {
				best[sug.UniqueID] = sug
			}
		}
		s.logger.Debug("ontology search",
			zap.String("entity", entity.ID()),
			zap.String("stage", stage.String()),
			zap.String("template", tpl.Text()),
			zap.Int("hits", len(hits)),
		)
	}

	out := make([]*models.Suggestion, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	sortByScore(out)
	return out, nil
}

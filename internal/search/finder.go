package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/ontomatch/internal/config"
	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/internal/query"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// Options controls the suggestion funnel.
type Options struct {
	// MaxSuggestions caps the result and stops later stages once reached.
	MaxSuggestions int
	// MinScore drops suggestions scoring below it. 0 accepts everything.
	MinScore float64
	// AcceptAnyFinalStage lets similar-ontology suggestions bypass MinScore.
	AcceptAnyFinalStage bool
}

// OptionsFromConfig converts mapping settings to funnel options.
func OptionsFromConfig(cfg config.MappingConfig) Options {
	return Options{
		MaxSuggestions:      cfg.MaxSuggestions,
		MinScore:            cfg.MinScore,
		AcceptAnyFinalStage: cfg.AcceptAnyFinalStage,
	}
}

// Finder runs the four-stage suggestion funnel: exact rule, similar rule, exact
// ontology, similar ontology.
type Finder struct {
	rules      Searcher
	ontologies Searcher
	provider   config.Provider
	opts       Options
	logger     *zap.Logger
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) FinderOption {
	return func(f *Finder) { f.logger = l }
}

// NewFinder creates a funnel over the given searchers.
func NewFinder(rules, ontologies Searcher, provider config.Provider, opts Options, fopts ...FinderOption) *Finder {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = config.DefaultMaxSuggestions
	}
	f := &Finder{rules: rules, ontologies: ontologies, provider: provider, opts: opts}
	for _, opt := range fopts {
		opt(f)
	}
	f.logger = utils.OrNop(f.logger)
	return f
}

type stage struct {
	id  models.Stage
	run func(context.Context, *models.SourceEntity, *config.EntityConfig) ([]*models.Suggestion, error)
}

// Find returns up to MaxSuggestions distinct suggestions for entity, best first.
// Configuration and data problems are reported before any index is queried; a stage
// failure is returned as *models.MappingError.
func (f *Finder) Find(ctx context.Context, entity *models.SourceEntity) ([]*models.Suggestion, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: source entity is required", models.ErrInvalidArgument)
	}
	cfg, err := f.provider.ForType(entity.Type())
	if err != nil {
		return nil, err
	}
	if err := validate(entity, cfg); err != nil {
		return nil, err
	}

	stages := []stage{
		{models.StageExactRule, f.rules.FindExact},
		{models.StageSimilarRule, f.rules.FindSimilar},
		{models.StageExactOntology, f.ontologies.FindExact},
		{models.StageSimilarOntology, f.ontologies.FindSimilar},
	}

	acc := make([]*models.Suggestion, 0, f.opts.MaxSuggestions)
	seen := make(map[string]struct{})
	for _, st := range stages {
		if len(acc) >= f.opts.MaxSuggestions {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, &models.MappingError{Stage: st.id, EntityID: entity.ID(), Err: err}
		}
		found, err := st.run(ctx, entity, cfg)
		if err != nil {
			return nil, &models.MappingError{Stage: st.id, EntityID: entity.ID(), Err: err}
		}
		added := 0
		for _, s := range found {
			if _, dup := seen[s.UniqueID]; dup {
				continue
			}
			if !f.accept(st.id, s.Score) {
				continue
			}
			seen[s.UniqueID] = struct{}{}
			acc = append(acc, s)
			added++
		}
		f.logger.Debug("funnel stage done",
			zap.String("entity", entity.ID()),
			zap.String("stage", st.id.String()),
			zap.Int("found", len(found)),
			zap.Int("added", added),
		)
	}

	sortByScore(acc)
	if len(acc) > f.opts.MaxSuggestions {
		acc = acc[:f.opts.MaxSuggestions]
	}
	return acc, nil
}

func (f *Finder) accept(st models.Stage, score float64) bool {
	if f.opts.MinScore <= 0 {
		return true
	}
	if st == models.StageSimilarOntology && f.opts.AcceptAnyFinalStage {
		return true
	}
	return score >= f.opts.MinScore
}

// validate builds every query the funnel will run so missing fields and bad
// templates surface before the first index call.
func validate(entity *models.SourceEntity, cfg *config.EntityConfig) error {
	templates, err := cfg.Templates()
	if err != nil {
		return err
	}
	if cfg.RulesIndex != "" {
		if _, err := query.ExactRuleIntent(entity, cfg); err != nil {
			return err
		}
	}
	if cfg.OntologyIndex == "" {
		return nil
	}
	weights := cfg.Weights()
	for _, tpl := range templates {
		items, err := query.Extract(tpl, entity, weights)
		if err != nil {
			return err
		}
		if _, err := query.ExactOntologyIntent(items); err != nil {
			return err
		}
	}
	return nil
}

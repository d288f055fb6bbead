// Package scoring computes normalized 0-100 confidence scores for candidate targets.
package scoring

import (
	"fmt"
	"strings"

	"github.com/hyperjump/ontomatch/internal/config"
	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/internal/query"
	"github.com/hyperjump/ontomatch/internal/similarity"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// MaxScore is the score of a perfect match.
const MaxScore = 100.0

// Calculator scores candidates independently of the search engine's raw score.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	tokenThreshold int
	synonymDamping float64
}

// NewCalculator creates a calculator from scoring settings. Unset values fall back to
// the defaults; out-of-range values return ErrMalformedConfiguration.
func NewCalculator(cfg config.ScoringConfig) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{tokenThreshold: cfg.TokenThreshold(), synonymDamping: cfg.Damping()}, nil
}

// Score dispatches on the target type: rules are scored against the entity's field
// values, ontology terms against the search items.
func (c *Calculator) Score(entity *models.SourceEntity, target *models.TargetEntity, items []*models.SearchQueryItem, cfg *config.EntityConfig) (float64, error) {
	if target == nil {
		return 0, fmt.Errorf("%w: target is required", models.ErrInvalidArgument)
	}
	switch target.TargetType {
	case models.TargetRule:
		return c.RuleScore(entity, target, cfg)
	case models.TargetOntology:
		return c.OntologyScore(items, target)
	default:
		return 0, fmt.Errorf("%w: cannot score target type %q", models.ErrInvalidArgument, target.TargetType)
	}
}

// RuleScore is the weighted mean of per-field edit similarity, scaled to 0-100.
// A field missing on either side contributes 0.
func (c *Calculator) RuleScore(entity *models.SourceEntity, target *models.TargetEntity, cfg *config.EntityConfig) (float64, error) {
	if entity == nil || target == nil {
		return 0, fmt.Errorf("%w: entity and target are required", models.ErrInvalidArgument)
	}
	if cfg == nil || len(cfg.Fields) == 0 {
		return 0, fmt.Errorf("%w: no field weights for entity type %q", models.ErrMalformedConfiguration, entity.Type())
	}
	total := cfg.TotalWeight()
	if total <= 0 {
		return 0, fmt.Errorf("%w: field weights for %q sum to %v", models.ErrMalformedConfiguration, entity.Type(), total)
	}

	var score float64
	for _, f := range cfg.Fields {
		if f.Weight == 0 {
			continue
		}
		src, _ := entity.Value(f.Name)
		dst, _ := target.RuleField(f.Name)
		sim := similarity.EditSimilarity(utils.NormalizeText(src), utils.NormalizeText(dst))
		score += sim * f.Weight * MaxScore / total
	}
	return utils.Clamp(score, 0, MaxScore), nil
}

// OntologyScore compares the joined search phrase with the term label and each synonym
// using fuzzy Jaccard. Synonym matches are damped so a label match wins a tie.
func (c *Calculator) OntologyScore(items []*models.SearchQueryItem, target *models.TargetEntity) (float64, error) {
	if target == nil {
		return 0, fmt.Errorf("%w: target is required", models.ErrInvalidArgument)
	}
	if strings.TrimSpace(target.Label) == "" {
		return 0, fmt.Errorf("%w: ontology term %s has no label", models.ErrInvalidArgument, target.ID)
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("%w: no search terms to score %s", models.ErrInvalidArgument, target.ID)
	}

	phrase := query.Phrase(items)
	best := similarity.PhraseSimilarity(phrase, target.Label, c.tokenThreshold)
	for _, syn := range target.Synonyms() {
		if best >= 1 {
			break
		}
		if s := c.synonymDamping * similarity.PhraseSimilarity(phrase, syn, c.tokenThreshold); s > best {
			best = s
		}
	}
	return utils.Clamp(best*MaxScore, 0, MaxScore), nil
}

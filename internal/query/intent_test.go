package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ontomatch/internal/config"
	"github.com/hyperjump/ontomatch/internal/models"
)

func diagnosisConfig() *config.EntityConfig {
	return &config.EntityConfig{
		Fields: []config.FieldWeight{
			{Name: "SampleDiagnosis", Weight: 0.5},
			{Name: "OriginTissue", Weight: 0.3},
		},
	}
}

func TestExactRuleIntent(t *testing.T) {
	entity := mustEntity(t, map[string]string{"SampleDiagnosis": "fusion negative rhabdomyosarcoma", "OriginTissue": "orbit"})
	intent, err := ExactRuleIntent(entity, diagnosisConfig())
	require.NoError(t, err)

	assert.Equal(t, models.TargetRule, intent.Family)
	assert.Equal(t, "diagnosis", intent.EntityType)
	assert.True(t, intent.Exact)
	assert.True(t, intent.RequireAllGroups)
	require.Len(t, intent.Groups, 1)
	g := intent.Groups[0]
	assert.True(t, g.RequireAll)
	require.Len(t, g.Clauses, 2)
	for _, c := range g.Clauses {
		assert.Equal(t, TargetDataField, c.Target)
		assert.Equal(t, 0, c.Fuzziness)
		assert.True(t, c.RequireAllWords)
	}
	assert.Equal(t, "SampleDiagnosis", g.Clauses[0].Field)
	assert.Equal(t, "fusion negative rhabdomyosarcoma", g.Clauses[0].Text)
}

func TestSimilarRuleIntent(t *testing.T) {
	entity := mustEntity(t, map[string]string{"SampleDiagnosis": "x", "OriginTissue": "y"})
	intent, err := SimilarRuleIntent(entity, diagnosisConfig())
	require.NoError(t, err)
	assert.False(t, intent.Exact)
	g := intent.Groups[0]
	assert.False(t, g.RequireAll)
	for _, c := range g.Clauses {
		assert.Equal(t, SimilarFuzziness, c.Fuzziness)
		assert.False(t, c.RequireAllWords)
	}
}

func TestRuleIntent_Errors(t *testing.T) {
	entity := mustEntity(t, map[string]string{"SampleDiagnosis": "x"})
	_, err := ExactRuleIntent(entity, diagnosisConfig())
	assert.ErrorIs(t, err, models.ErrMissingField)

	_, err = SimilarRuleIntent(entity, nil)
	assert.ErrorIs(t, err, models.ErrMissingConfiguration)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestOntologyIntents(t *testing.T) {
	items := []*models.SearchQueryItem{item("SampleDiagnosis", "rhabdomyosarcoma", 2), item("OriginTissue", "orbit", 1)}

	exact, err := ExactOntologyIntent(items)
	require.NoError(t, err)
	assert.Equal(t, models.TargetOntology, exact.Family)
	assert.False(t, exact.RequireAllGroups)
	require.Len(t, exact.Groups, 2)
	assert.Equal(t, TargetLabel, exact.Groups[0].Clauses[0].Target)
	assert.Equal(t, TargetSynonyms, exact.Groups[1].Clauses[0].Target)
	for _, g := range exact.Groups {
		assert.True(t, g.RequireAll)
		require.Len(t, g.Clauses, 2)
		assert.Equal(t, 2.0, g.Clauses[0].Boost)
		assert.Equal(t, 1.0, g.Clauses[1].Boost)
		assert.Equal(t, 0, g.Clauses[0].Fuzziness)
		assert.True(t, g.Clauses[0].RequireAllWords)
	}

	similar, err := SimilarOntologyIntent(items)
	require.NoError(t, err)
	for _, g := range similar.Groups {
		assert.False(t, g.RequireAll)
		assert.Equal(t, SimilarFuzziness, g.Clauses[0].Fuzziness)
		assert.False(t, g.Clauses[0].RequireAllWords)
	}

	_, err = ExactOntologyIntent(nil)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

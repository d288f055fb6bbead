package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ontomatch/internal/models"
)

func mustTemplate(t *testing.T, text string) *models.QueryTemplate {
	t.Helper()
	tpl, err := models.NewQueryTemplate(text)
	require.NoError(t, err)
	return tpl
}

func mustEntity(t *testing.T, data map[string]string) *models.SourceEntity {
	t.Helper()
	e, err := models.NewSourceEntity("e1", "diagnosis", data)
	require.NoError(t, err)
	return e
}

func item(field, value string, weight float64) *models.SearchQueryItem {
	return &models.SearchQueryItem{Field: field, Value: value, Weight: weight}
}

func TestRemoveOverlap_HigherWeightKeepsWord(t *testing.T) {
	items := []*models.SearchQueryItem{
		item("Diagnosis", "lung carcinoma", 1.0),
		item("Tissue", "lung", 2.0),
	}
	out := RemoveOverlap(items)
	require.Len(t, out, 2)
	assert.Equal(t, "Diagnosis", out[0].Field)
	assert.Equal(t, "carcinoma", out[0].Value)
	assert.Equal(t, "Tissue", out[1].Field)
	assert.Equal(t, "lung", out[1].Value)
}

func TestRemoveOverlap_TieKeepsFirst(t *testing.T) {
	out := RemoveOverlap([]*models.SearchQueryItem{
		item("A", "Lung Carcinoma", 1),
		item("B", "lung nodule", 1),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "lung carcinoma", out[0].Value)
	assert.Equal(t, "nodule", out[1].Value)
}

func TestRemoveOverlap_DropsEmptiedItem(t *testing.T) {
	out := RemoveOverlap([]*models.SearchQueryItem{
		item("Tissue", "lung", 0.5),
		item("Diagnosis", "lung carcinoma", 1.0),
	})
	require.Len(t, out, 1)
	assert.Equal(t, "Diagnosis", out[0].Field)
	assert.Equal(t, "lung carcinoma", out[0].Value)
}

func TestRemoveOverlap_Deterministic(t *testing.T) {
	build := func() []*models.SearchQueryItem {
		return []*models.SearchQueryItem{
			item("A", "alpha beta gamma", 1),
			item("B", "beta delta", 3),
			item("C", "gamma delta epsilon", 2),
		}
	}
	first := RemoveOverlap(build())
	for i := 0; i < 20; i++ {
		again := RemoveOverlap(build())
		require.Equal(t, first, again)
	}
	assert.Equal(t, "alpha", first[0].Value)
	assert.Equal(t, "beta delta", first[1].Value)
	assert.Equal(t, "gamma epsilon", first[2].Value)
}

func TestExtract(t *testing.T) {
	entity := mustEntity(t, map[string]string{
		"SampleDiagnosis": "Lung  Carcinoma",
		"OriginTissue":    "lung",
	})
	weights := map[string]float64{"SampleDiagnosis": 1.0, "OriginTissue": 2.0}

	items, err := Extract(mustTemplate(t, "${SampleDiagnosis} of ${OriginTissue}"), entity, weights)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "SampleDiagnosis", items[0].Field)
	assert.Equal(t, "carcinoma", items[0].Value)
	assert.Equal(t, 1.0, items[0].Weight)
	assert.Equal(t, "OriginTissue", items[1].Field)
	assert.Equal(t, "lung", items[1].Value)
	assert.Equal(t, 2.0, items[1].Weight)
	assert.Equal(t, "carcinoma lung", Phrase(items))
}

func TestExtract_Errors(t *testing.T) {
	entity := mustEntity(t, map[string]string{"SampleDiagnosis": "carcinoma", "Blank": "  "})
	weights := map[string]float64{"SampleDiagnosis": 1.0, "Blank": 1.0}

	_, err := Extract(nil, entity, weights)
	assert.ErrorIs(t, err, models.ErrInvalidTemplate)

	_, err = Extract(mustTemplate(t, "${OriginTissue}"), entity, weights)
	assert.ErrorIs(t, err, models.ErrMissingField)

	_, err = Extract(mustTemplate(t, "${Blank}"), entity, weights)
	assert.ErrorIs(t, err, models.ErrMissingField)

	_, err = Extract(mustTemplate(t, "${SampleDiagnosis}"), entity, map[string]float64{})
	assert.ErrorIs(t, err, models.ErrMissingField)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

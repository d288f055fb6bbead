package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ontomatch/internal/index"
	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/internal/storage"
)

func newBleveFinder(t *testing.T, opts Options) *Finder {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	gw, err := index.NewBleveGateway(filepath.Join(t.TempDir(), "indexes"), store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	rule := models.NewRuleTarget("r1", "diagnosis", "Embryonal Rhabdomyosarcoma",
		"http://purl.obolibrary.org/obo/NCIT_C9150", map[string]string{
			"SampleDiagnosis": "fusion negative rhabdomyosarcoma",
			"OriginTissue":    "orbit",
			"TumourType":      "primary",
		})
	require.NoError(t, gw.IndexTargets(ctx, "rules", []*models.TargetEntity{rule}))

	term := models.NewOntologyTarget("NCIT_C4878", "diagnosis", "Lung Carcinoma",
		"http://purl.obolibrary.org/obo/NCIT_C4878", "", []string{"carcinoma of lung"})
	require.NoError(t, gw.IndexTargets(ctx, "ontology", []*models.TargetEntity{term}))

	calc := testCalculator(t)
	return NewFinder(NewRulesSearcher(gw, calc), NewOntologiesSearcher(gw, calc), testMapping(t), opts)
}

func TestScenario_IdenticalRule(t *testing.T) {
	f := newBleveFinder(t, Options{})

	got, err := f.Find(context.Background(), testEntity(t, "fusion negative rhabdomyosarcoma"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].Score)
	assert.Equal(t, models.TargetRule, got[0].Target.TargetType)
	assert.Equal(t, "exact_rule", got[0].Details.Stage)
}

func TestScenario_OneWordChanged(t *testing.T) {
	f := newBleveFinder(t, Options{})

	got, err := f.Find(context.Background(), testEntity(t, "fusion POSITIVE rhabdomyosarcoma"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Less(t, got[0].Score, 90.0)
	assert.Equal(t, models.TargetRule, got[0].Target.TargetType)
	assert.Equal(t, "similar_rule", got[0].Details.Stage)
}

func TestScenario_OntologyMatch(t *testing.T) {
	f := newBleveFinder(t, Options{})
	e, err := models.NewSourceEntity("e2", "diagnosis", map[string]string{
		"SampleDiagnosis": "Lung Carcinoma",
		"OriginTissue":    "lung",
		"TumourType":      "metastatic",
	})
	require.NoError(t, err)

	first, err := f.Find(context.Background(), e)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, "ontology|diagnosis|NCIT_C4878", first[0].UniqueID)
	assert.Equal(t, 100.0, first[0].Score)
	assert.Equal(t, "exact_ontology", first[0].Details.Stage)

	second, err := f.Find(context.Background(), e)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].UniqueID, second[i].UniqueID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}

	seen := map[string]bool{}
	for i, s := range first {
		assert.False(t, seen[s.UniqueID], "duplicate %s", s.UniqueID)
		seen[s.UniqueID] = true
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, first[i-1].Score, s.Score)
		}
	}
}

package mapper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hyperjump/ontomatch/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubFinder struct {
	mu       sync.Mutex
	calls    []string
	inFlight int32
	peak     int32
	delay    time.Duration
}

func (f *stubFinder) Find(_ context.Context, e *models.SourceEntity) ([]*models.Suggestion, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls = append(f.calls, e.ID())
	f.mu.Unlock()

	v, _ := e.Value("Diagnosis")
	switch v {
	case "fail":
		return nil, &models.MappingError{Stage: models.StageSimilarRule, EntityID: e.ID(), Err: models.ErrIndexNotFound}
	case "none":
		return nil, nil
	}
	target := models.NewOntologyTarget("t-"+e.ID(), e.Type(), v, "", "", nil)
	return []*models.Suggestion{models.NewSuggestion(target, 100, 1, nil)}, nil
}

func entities(t *testing.T, values ...string) []*models.SourceEntity {
	t.Helper()
	out := make([]*models.SourceEntity, len(values))
	for i, v := range values {
		e, err := models.NewSourceEntity(fmt.Sprintf("e%d", i), "diagnosis", map[string]string{"Diagnosis": v})
		require.NoError(t, err)
		out[i] = e
	}
	return out
}

func TestMapAll_IndependentOutcomes(t *testing.T) {
	f := &stubFinder{}
	m := New(f, WithWorkers(2))

	results := m.MapAll(context.Background(), entities(t, "lung carcinoma", "fail", "none", "sarcoma"))
	require.Len(t, results, 4)

	assert.Equal(t, "e0", results[0].EntityID)
	assert.NoError(t, results[0].Err)
	require.Len(t, results[0].Suggestions, 1)
	assert.Equal(t, "lung carcinoma", results[0].Suggestions[0].TermLabel)

	assert.Equal(t, "e1", results[1].EntityID)
	var me *models.MappingError
	require.True(t, errors.As(results[1].Err, &me))
	assert.Equal(t, "e1", me.EntityID)
	assert.True(t, errors.Is(results[1].Err, models.ErrIndexUnavailable))
	assert.Nil(t, results[1].Suggestions)

	assert.NoError(t, results[2].Err)
	assert.NotNil(t, results[2].Suggestions, "no matches is an empty list, not nil")
	assert.Empty(t, results[2].Suggestions)

	assert.Equal(t, "sarcoma", results[3].Suggestions[0].TermLabel, "a failure does not abort later entities")
	assert.Len(t, f.calls, 4)
}

func TestMapAll_BoundedWorkers(t *testing.T) {
	f := &stubFinder{delay: 5 * time.Millisecond}
	m := New(f, WithWorkers(3))

	values := make([]string, 20)
	for i := range values {
		values[i] = "x"
	}
	results := m.MapAll(context.Background(), entities(t, values...))
	assert.Len(t, results, 20)
	assert.LessOrEqual(t, atomic.LoadInt32(&f.peak), int32(3))
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("e%d", i), r.EntityID, "results keep input order")
	}
}

func TestMapAll_Empty(t *testing.T) {
	m := New(&stubFinder{})
	assert.Empty(t, m.MapAll(context.Background(), nil))
	assert.Positive(t, m.workers)
}

func TestMapInputs(t *testing.T) {
	f := &stubFinder{}
	m := New(f)

	inputs := []models.SourceEntityInput{
		{ID: "a", Type: "diagnosis", Data: map[string]string{"Diagnosis": "lung"}},
		{ID: "b", Type: "", Data: map[string]string{"Diagnosis": "lung"}},
		{ID: "c", Type: "diagnosis", Data: map[string]string{"Diagnosis": "sarcoma"}},
	}
	results := m.MapInputs(context.Background(), inputs)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].EntityID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "b", results[1].EntityID)
	assert.True(t, errors.Is(results[1].Err, models.ErrInvalidArgument))
	assert.Equal(t, "c", results[2].EntityID)
	assert.Equal(t, "sarcoma", results[2].Suggestions[0].TermLabel)
	assert.ElementsMatch(t, []string{"a", "c"}, f.calls, "invalid inputs are not searched")
}

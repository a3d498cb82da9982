package query

import (
	"context"
	"errors"
	"testing"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/hearthwatch/hearthwatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a fixed vector, or an error when failing is set.
type stubEmbedder struct {
	vec     []float32
	failing bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.failing {
		return nil, errors.New("embedding service unreachable")
	}
	return s.vec, nil
}

func (s *stubEmbedder) Model() string  { return "stub" }
func (s *stubEmbedder) Dimension() int { return len(s.vec) }

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(nil)
	records := []models.InsightRecord{
		{ID: "r1", SessionID: "home-1", SourceID: "cam-1", Timestamp: 2.0,
			ThreatLevel: models.LevelNone, Description: "empty living room",
			Embedding: []float32{1, 0, 0}},
		{ID: "r2", SessionID: "home-1", SourceID: "cam-1", Timestamp: 12.0,
			ThreatLevel: models.LevelCritical, Description: "person holding a knife",
			Detections: []models.Detection{models.DetectionWeapon},
			Embedding:  []float32{0, 1, 0}},
		{ID: "r3", SessionID: "home-1", SourceID: "cam-2", Timestamp: 18.0,
			ThreatLevel: models.LevelHigh, Description: "person on the floor",
			Detections: []models.Detection{models.DetectionPersonOnGround},
			Embedding:  []float32{0, 0, 1}},
	}
	for _, r := range records {
		_, err := s.Append(r)
		require.NoError(t, err)
	}
	return s
}

func ids(records []models.InsightRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestRunTimeRange(t *testing.T) {
	e := New(seedStore(t), nil, nil)

	got, err := e.Run(context.Background(), "home-1", "what happened between 10 and 20 seconds?")
	require.NoError(t, err)
	assert.Equal(t, KindTimeRange, got.Kind)
	assert.Equal(t, []string{"r2", "r3"}, ids(got.Records))
}

func TestRunTimeRangeWithSourceFilter(t *testing.T) {
	e := New(seedStore(t), nil, nil)

	got, err := e.Run(context.Background(), "home-1", "camera 2 between 0 and 30 seconds")
	require.NoError(t, err)
	assert.Equal(t, "cam-2", got.SourceID)
	assert.Equal(t, []string{"r3"}, ids(got.Records))
}

func TestRunLastSecondsAnchorsToSessionClock(t *testing.T) {
	e := New(seedStore(t), nil, nil)

	// Latest timestamp is 18.0, so "last 10 seconds" covers [8, 18].
	got, err := e.Run(context.Background(), "home-1", "last 10 seconds")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r3"}, ids(got.Records))
}

func TestRunThreatLevel(t *testing.T) {
	e := New(seedStore(t), nil, nil)

	got, err := e.Run(context.Background(), "home-1", "show critical threats")
	require.NoError(t, err)
	assert.Equal(t, KindThreatLevel, got.Kind)
	assert.Equal(t, []string{"r2"}, ids(got.Records))
}

func TestRunSemanticRanksByVector(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{0, 1, 0}}
	e := New(seedStore(t), embedder, nil)

	got, err := e.Run(context.Background(), "home-1", "when was the weapon spotted?")
	require.NoError(t, err)
	assert.Equal(t, KindSemantic, got.Kind)
	assert.False(t, got.KeywordFallback)
	require.NotEmpty(t, got.Records)
	assert.Equal(t, "r2", got.Records[0].ID)
	assert.InDelta(t, 1.0, got.Scores[0], 1e-9)
}

func TestRunSemanticFallsBackWhenEmbedderFails(t *testing.T) {
	e := New(seedStore(t), &stubEmbedder{failing: true}, nil)

	got, err := e.Run(context.Background(), "home-1", "person on the floor")
	require.NoError(t, err)
	assert.True(t, got.KeywordFallback)
	require.NotEmpty(t, got.Records)
	assert.Equal(t, "r3", got.Records[0].ID)
}

func TestRunSemanticWithoutEmbedder(t *testing.T) {
	e := New(seedStore(t), nil, nil)

	got, err := e.Run(context.Background(), "home-1", "knife")
	require.NoError(t, err)
	assert.True(t, got.KeywordFallback)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "r2", got.Records[0].ID)
}

func TestRunEmptySessionIsEmptyResult(t *testing.T) {
	e := New(store.New(nil), nil, nil)

	got, err := e.Run(context.Background(), "nope", "between 0 and 10 seconds")
	require.NoError(t, err)
	assert.Empty(t, got.Records)
}

package store

import (
	"testing"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedded(id string, ts float64, vec []float32, desc string) models.InsightRecord {
	return models.InsightRecord{
		ID:          id,
		SessionID:   "home-1",
		SourceID:    "cam-1",
		Modality:    models.ModalityVision,
		Timestamp:   ts,
		ThreatLevel: models.LevelNone,
		Description: desc,
		Embedding:   vec,
	}
}

func TestQueryBySemanticRanksByCosine(t *testing.T) {
	s := New(nil)

	for _, r := range []models.InsightRecord{
		embedded("aligned", 1, []float32{1, 0, 0}, "person at the door"),
		embedded("opposite", 2, []float32{-1, 0, 0}, "empty hallway"),
		embedded("partial", 3, []float32{1, 1, 0}, "person in the kitchen"),
	} {
		_, err := s.Append(r)
		require.NoError(t, err)
	}

	matches, fellBack := s.QueryBySemantic("home-1", []float32{1, 0, 0}, "person", 10)
	assert.False(t, fellBack)
	require.Len(t, matches, 3)

	assert.Equal(t, "aligned", matches[0].Record.ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "partial", matches[1].Record.ID)
	assert.Equal(t, "opposite", matches[2].Record.ID)

	// Strictly descending scores.
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestQueryBySemanticTopK(t *testing.T) {
	s := New(nil)

	for i := range 8 {
		_, err := s.Append(embedded(
			string(rune('a'+i)), float64(i),
			[]float32{1, float32(i) * 0.1, 0},
			"observation",
		))
		require.NoError(t, err)
	}

	matches, fellBack := s.QueryBySemantic("home-1", []float32{1, 0, 0}, "observation", 3)
	assert.False(t, fellBack)
	assert.Len(t, matches, 3)
}

func TestQueryBySemanticKeywordFallback(t *testing.T) {
	s := New(nil)

	// No record has an embedding: degrade, don't error.
	for _, r := range []models.InsightRecord{
		record("r1", "home-1", "cam-1", 1, models.LevelHigh, models.DetectionWeapon),
		record("r2", "home-1", "cam-1", 2, models.LevelNone),
	} {
		_, err := s.Append(r)
		require.NoError(t, err)
	}

	matches, fellBack := s.QueryBySemantic("home-1", nil, "weapon", 5)
	assert.True(t, fellBack)
	require.Len(t, matches, 1)
	assert.Equal(t, "r1", matches[0].Record.ID)
}

func TestQueryBySemanticUnknownSession(t *testing.T) {
	s := New(nil)
	matches, fellBack := s.QueryBySemantic("ghost", []float32{1}, "anything", 5)
	assert.Nil(t, matches)
	assert.False(t, fellBack)
}

func TestCosine(t *testing.T) {
	got, ok := cosine([]float32{1, 0}, []float32{0, 1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, got, 1e-9)

	_, ok = cosine([]float32{1, 0}, []float32{1})
	assert.False(t, ok)

	_, ok = cosine([]float32{0, 0}, []float32{1, 0})
	assert.False(t, ok)
}

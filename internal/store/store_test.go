package store

import (
	"fmt"
	"testing"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, session, source string, ts float64, level models.ThreatLevel, detections ...models.Detection) models.InsightRecord {
	return models.InsightRecord{
		ID:          id,
		SessionID:   session,
		SourceID:    source,
		Modality:    models.ModalityVision,
		Timestamp:   ts,
		ThreatLevel: level,
		Detections:  detections,
		Description: fmt.Sprintf("record %s at %.1fs", id, ts),
	}
}

func TestAppendValidation(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name   string
		record models.InsightRecord
	}{
		{"missing id", record("", "home-1", "cam-1", 1, models.LevelNone)},
		{"missing session", record("r1", "", "cam-1", 1, models.LevelNone)},
		{"missing source", record("r1", "home-1", "", 1, models.LevelNone)},
		{"negative timestamp", record("r1", "home-1", "cam-1", -0.5, models.LevelNone)},
		{"unknown level", record("r1", "home-1", "cam-1", 1, models.ThreatLevel("apocalyptic"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Append(tt.record)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	// Nothing was stored.
	assert.Empty(t, s.Sessions())
}

func TestAppendIdempotent(t *testing.T) {
	s := New(nil)

	_, err := s.Append(record("r1", "home-1", "cam-1", 1.0, models.LevelLow))
	require.NoError(t, err)

	// Same id again, even with different content, is a no-op.
	id, err := s.Append(record("r1", "home-1", "cam-1", 99.0, models.LevelCritical))
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	got := s.Timeline("home-1", "")
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Timestamp)
	assert.Equal(t, models.LevelLow, got[0].ThreatLevel)
}

func TestRecordsAreImmutable(t *testing.T) {
	s := New(nil)

	orig := record("r1", "home-1", "cam-1", 2.0, models.LevelMedium, models.DetectionSmoke)
	_, err := s.Append(orig)
	require.NoError(t, err)

	first, ok := s.Get("home-1", "r1")
	require.True(t, ok)

	// Mutating the returned copy must not leak into the store.
	first.Description = "tampered"
	first.Detections[0] = models.DetectionWeapon
	first.ThreatLevel = models.LevelCritical

	second, ok := s.Get("home-1", "r1")
	require.True(t, ok)
	assert.Equal(t, orig.Description, second.Description)
	assert.Equal(t, []models.Detection{models.DetectionSmoke}, second.Detections)
	assert.Equal(t, models.LevelMedium, second.ThreatLevel)
}

func TestQueryByTimeRange(t *testing.T) {
	s := New(nil)

	// Deliberately out of order, across two sources.
	for _, r := range []models.InsightRecord{
		record("r3", "home-1", "cam-1", 12.0, models.LevelNone),
		record("r1", "home-1", "cam-1", 3.0, models.LevelNone),
		record("r4", "home-1", "watch-1", 20.0, models.LevelNone),
		record("r2", "home-1", "cam-1", 7.5, models.LevelNone),
	} {
		_, err := s.Append(r)
		require.NoError(t, err)
	}

	got := s.QueryByTimeRange("home-1", "", 3.0, 12.0)
	require.Len(t, got, 3)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r2", got[1].ID)
	assert.Equal(t, "r3", got[2].ID)

	// Inclusive bounds.
	edge := s.QueryByTimeRange("home-1", "", 12.0, 20.0)
	require.Len(t, edge, 2)
	assert.Equal(t, "r3", edge[0].ID)
	assert.Equal(t, "r4", edge[1].ID)

	// Source filter.
	cam := s.QueryByTimeRange("home-1", "cam-1", 0, 100)
	require.Len(t, cam, 3)

	// Unknown session/source: empty, not an error.
	assert.Empty(t, s.QueryByTimeRange("nope", "", 0, 100))
	assert.Empty(t, s.QueryByTimeRange("home-1", "cam-9", 0, 100))
}

func TestQueryByThreatLevel(t *testing.T) {
	s := New(nil)

	for _, r := range []models.InsightRecord{
		record("r1", "home-1", "cam-1", 1, models.LevelHigh),
		record("r2", "home-1", "cam-2", 2, models.LevelHigh),
		record("r3", "home-1", "cam-1", 3, models.LevelNone),
	} {
		_, err := s.Append(r)
		require.NoError(t, err)
	}

	high := s.QueryByThreatLevel("home-1", models.LevelHigh, "")
	assert.Len(t, high, 2)

	cam2 := s.QueryByThreatLevel("home-1", models.LevelHigh, "cam-2")
	require.Len(t, cam2, 1)
	assert.Equal(t, "r2", cam2[0].ID)

	assert.Empty(t, s.QueryByThreatLevel("home-1", models.LevelCritical, ""))
}

func TestLatestTimestamp(t *testing.T) {
	s := New(nil)

	_, ok := s.LatestTimestamp("home-1")
	assert.False(t, ok)

	for _, ts := range []float64{5.0, 30.0, 12.0} {
		_, err := s.Append(record(fmt.Sprintf("r%v", ts), "home-1", "cam-1", ts, models.LevelNone))
		require.NoError(t, err)
	}

	latest, ok := s.LatestTimestamp("home-1")
	require.True(t, ok)
	assert.Equal(t, 30.0, latest)
}

func TestSessionLifecycle(t *testing.T) {
	s := New(nil)

	_, err := s.Append(record("r1", "home-1", "cam-1", 1, models.LevelNone))
	require.NoError(t, err)
	_, err = s.Append(record("r2", "home-1", "watch-1", 2, models.LevelNone))
	require.NoError(t, err)

	sess, ok := s.Session("home-1")
	require.True(t, ok)
	assert.Equal(t, models.SessionActive, sess.Status)
	assert.Equal(t, []string{"cam-1", "watch-1"}, sess.Sources)
	assert.Equal(t, 2, sess.Records)

	require.True(t, s.CloseSession("home-1"))
	sess, _ = s.Session("home-1")
	assert.Equal(t, models.SessionClosed, sess.Status)

	assert.False(t, s.CloseSession("unknown"))
}

type fixedPins map[string]bool

func (p fixedPins) PinnedEvidence(string) map[string]bool { return p }

func TestRetentionEvictsOldestButNotPinned(t *testing.T) {
	s := New(nil)

	for i := range 10 {
		_, err := s.Append(record(fmt.Sprintf("r%d", i), "home-1", "cam-1", float64(i), models.LevelNone))
		require.NoError(t, err)
	}

	evicted := s.ApplyRetention("home-1", 0, 4, fixedPins{"r1": true})
	assert.Equal(t, 6, evicted)

	left := s.Timeline("home-1", "")
	require.Len(t, left, 4)
	// r1 survives despite being old; the rest are the newest records.
	assert.Equal(t, "r1", left[0].ID)
	assert.Equal(t, "r7", left[1].ID)
	assert.Equal(t, "r9", left[3].ID)
}

func TestRetentionByAge(t *testing.T) {
	s := New(nil)

	for _, ts := range []float64{0, 10, 50, 60} {
		_, err := s.Append(record(fmt.Sprintf("r%v", ts), "home-1", "cam-1", ts, models.LevelNone))
		require.NoError(t, err)
	}

	// Newest is 60; max age 30 drops 0 and 10.
	evicted := s.ApplyRetention("home-1", 30, 0, nil)
	assert.Equal(t, 2, evicted)
	left := s.Timeline("home-1", "")
	require.Len(t, left, 2)
	assert.Equal(t, 50.0, left[0].Timestamp)
}

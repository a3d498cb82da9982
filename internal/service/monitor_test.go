package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hearthwatch/hearthwatch/internal/config"
	"github.com/hearthwatch/hearthwatch/internal/embedding"
	"github.com/hearthwatch/hearthwatch/internal/engine"
	"github.com/hearthwatch/hearthwatch/internal/metrics"
	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/hearthwatch/hearthwatch/internal/query"
	"github.com/hearthwatch/hearthwatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vec     []float32
	failing bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.failing {
		return nil, errors.New("embedding backend down")
	}
	return s.vec, nil
}

func (s *stubEmbedder) Model() string  { return "stub" }
func (s *stubEmbedder) Dimension() int { return len(s.vec) }

type fakeArchiver struct {
	mu          sync.Mutex
	insights    []models.InsightRecord
	assessments []models.ThreatAssessment
}

func (f *fakeArchiver) ArchiveInsight(ctx context.Context, record models.InsightRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insights = append(f.insights, record)
	return nil
}

func (f *fakeArchiver) ArchiveAssessment(ctx context.Context, a models.ThreatAssessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessments = append(f.assessments, a)
	return nil
}

func (f *fakeArchiver) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.insights), len(f.assessments)
}

func newMonitor(t *testing.T, embedder *stubEmbedder, archiver Archiver) *Monitor {
	t.Helper()
	st := store.New(nil)
	tuning := config.DefaultTuning()
	eng := engine.New(st, tuning, nil, nil)

	// A nil *stubEmbedder must become a nil interface, not a typed nil.
	var emb embedding.Embedder
	if embedder != nil {
		emb = embedder
	}
	queries := query.New(st, emb, nil)
	return NewMonitor(st, eng, queries, emb, archiver, metrics.NewCollector(), tuning, nil)
}

func TestAppendAssignsIDAndEmbeds(t *testing.T) {
	m := newMonitor(t, &stubEmbedder{vec: []float32{0.1, 0.2}}, nil)

	id, err := m.Append(context.Background(), models.InsightRecord{
		SessionID:   "home-1",
		SourceID:    "cam-1",
		Modality:    models.ModalityVision,
		Timestamp:   1.0,
		Description: "quiet hallway",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, ok := m.store.Get("home-1", id)
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, got.Embedding)
}

func TestAppendDegradesWhenEmbedderFails(t *testing.T) {
	m := newMonitor(t, &stubEmbedder{failing: true}, nil)

	id, err := m.Append(context.Background(), models.InsightRecord{
		SessionID: "home-1",
		SourceID:  "cam-1",
		Timestamp: 1.0,
	})
	require.NoError(t, err)

	got, ok := m.store.Get("home-1", id)
	require.True(t, ok)
	assert.Empty(t, got.Embedding)
}

func TestAppendValidationError(t *testing.T) {
	m := newMonitor(t, nil, nil)

	_, err := m.Append(context.Background(), models.InsightRecord{
		SessionID: "home-1",
		Timestamp: 1.0,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestAppendTriggersEvaluation(t *testing.T) {
	m := newMonitor(t, nil, nil)

	var mu sync.Mutex
	var got []models.ThreatAssessment
	m.Subscribe(func(a models.ThreatAssessment) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, a)
	})

	_, err := m.Append(context.Background(), models.InsightRecord{
		SessionID:  "home-1",
		SourceID:   "detector-1",
		Modality:   models.ModalitySensor,
		Timestamp:  3.0,
		Detections: []models.Detection{models.DetectionSmoke},
	})
	require.NoError(t, err)
	_, err = m.Append(context.Background(), models.InsightRecord{
		SessionID:  "home-1",
		SourceID:   "mic-1",
		Modality:   models.ModalitySensor,
		Timestamp:  3.5,
		Detections: []models.Detection{models.DetectionAudioAlarm},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, a := range got {
			if a.ThreatLevel == models.LevelCritical {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestArchiverReceivesWrites(t *testing.T) {
	arch := &fakeArchiver{}
	m := newMonitor(t, nil, arch)

	_, err := m.Append(context.Background(), models.InsightRecord{
		SessionID:  "home-1",
		SourceID:   "cam-1",
		Modality:   models.ModalityVision,
		Timestamp:  1.0,
		Detections: []models.Detection{models.DetectionWeapon},
	})
	require.NoError(t, err)
	_, err = m.Append(context.Background(), models.InsightRecord{
		SessionID:  "home-1",
		SourceID:   "cam-2",
		Modality:   models.ModalityVision,
		Timestamp:  1.5,
		Detections: []models.Detection{models.DetectionUnfamiliarFace},
	})
	require.NoError(t, err)

	// Both records and the intrusion assessment arrive write-behind.
	require.Eventually(t, func() bool {
		insights, assessments := arch.counts()
		return insights == 2 && assessments >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueryRoundTrip(t *testing.T) {
	m := newMonitor(t, nil, nil)

	_, err := m.Append(context.Background(), models.InsightRecord{
		SessionID: "home-1", SourceID: "cam-1", Timestamp: 5.0,
		Description: "cat on the couch",
	})
	require.NoError(t, err)

	res, err := m.Query(context.Background(), "home-1", "between 0 and 10 seconds")
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestCloseSessionUnknown(t *testing.T) {
	m := newMonitor(t, nil, nil)
	assert.False(t, m.CloseSession("nope"))
}

func TestCloseSessionStopsEscalation(t *testing.T) {
	m := newMonitor(t, nil, nil)

	_, err := m.Append(context.Background(), models.InsightRecord{
		SessionID:  "home-1",
		SourceID:   "watch-1",
		Modality:   models.ModalitySensor,
		Timestamp:  2.0,
		Detections: []models.Detection{models.DetectionAccelerometerSpike},
	})
	require.NoError(t, err)
	_, err = m.Append(context.Background(), models.InsightRecord{
		SessionID:  "home-1",
		SourceID:   "cam-1",
		Modality:   models.ModalityVision,
		Timestamp:  3.0,
		Detections: []models.Detection{models.DetectionPersonOnGround},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		for _, st := range m.ScenarioStates("home-1") {
			if st.Kind == models.ScenarioFall && st.Status == models.StatusConfirmed {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, m.CloseSession("home-1"))
	for _, st := range m.ScenarioStates("home-1") {
		assert.NotEqual(t, models.StatusConfirmed, st.Status)
	}

	sess, ok := m.Session("home-1")
	require.True(t, ok)
	assert.Equal(t, models.SessionClosed, sess.Status)
}

func TestStats(t *testing.T) {
	m := newMonitor(t, nil, nil)

	for i := range 3 {
		_, err := m.Append(context.Background(), models.InsightRecord{
			SessionID: "home-1", SourceID: "cam-1", Timestamp: float64(i),
		})
		require.NoError(t, err)
	}
	_, err := m.Append(context.Background(), models.InsightRecord{
		SessionID: "home-2", SourceID: "cam-1", Timestamp: 0,
	})
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 4, stats.Records)
	require.NotNil(t, stats.Operations.Append)
	assert.EqualValues(t, 4, stats.Operations.Append.Count)
}

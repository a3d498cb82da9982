// Package service provides the monitoring business logic: it wires the
// temporal store, the embedder, the correlation engine, the query engine,
// and the optional SurrealDB archive behind one API.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hearthwatch/hearthwatch/internal/config"
	"github.com/hearthwatch/hearthwatch/internal/embedding"
	"github.com/hearthwatch/hearthwatch/internal/engine"
	"github.com/hearthwatch/hearthwatch/internal/metrics"
	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/hearthwatch/hearthwatch/internal/query"
	"github.com/hearthwatch/hearthwatch/internal/store"
)

const archiveWriteTimeout = 10 * time.Second

// Archiver is the write-behind persistence sink. Satisfied by
// *archive.Client; nil disables archiving.
type Archiver interface {
	ArchiveInsight(ctx context.Context, record models.InsightRecord) error
	ArchiveAssessment(ctx context.Context, a models.ThreatAssessment) error
}

// Monitor is the top-level service. One monitor serves all sessions.
type Monitor struct {
	store     *store.Store
	engine    *engine.Engine
	queries   *query.Engine
	embedder  embedding.Embedder
	archiver  Archiver
	collector *metrics.Collector
	tuning    config.Tuning
	logger    *slog.Logger
}

// NewMonitor wires the monitor together and subscribes it to the engine's
// assessment stream. embedder and archiver may be nil.
func NewMonitor(
	st *store.Store,
	eng *engine.Engine,
	queries *query.Engine,
	embedder embedding.Embedder,
	archiver Archiver,
	collector *metrics.Collector,
	tuning config.Tuning,
	logger *slog.Logger,
) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	m := &Monitor{
		store:     st,
		engine:    eng,
		queries:   queries,
		embedder:  embedder,
		archiver:  archiver,
		collector: collector,
		tuning:    tuning,
		logger:    logger,
	}
	eng.SetCollector(collector)
	eng.Subscribe(m.onAssessment)
	return m
}

// Append validates, embeds, stores one insight record and triggers an
// evaluation. Embedding failures degrade the record (stored without vector)
// instead of failing the append. Returns the record id.
func (m *Monitor) Append(ctx context.Context, record models.InsightRecord) (string, error) {
	started := time.Now()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	if m.embedder != nil && len(record.Embedding) == 0 {
		embedStart := time.Now()
		vec, err := m.embedder.Embed(ctx, embedding.SearchableText(record))
		if err != nil {
			m.logger.Warn("embedding unavailable, storing record without vector",
				"session", record.SessionID, "record", record.ID, "error", err)
		} else {
			record.Embedding = vec
			m.collector.RecordTiming(metrics.OpEmbedding, time.Since(embedStart))
			metrics.EmbedDuration.Observe(time.Since(embedStart).Seconds())
		}
	}

	id, err := m.store.Append(record)
	if err != nil {
		metrics.AppendRejected.Inc()
		return "", err
	}

	metrics.RecordsAppended.WithLabelValues(string(record.Modality)).Inc()
	m.applyRetention(record.SessionID)

	if m.archiver != nil {
		// Write-behind: the archive never blocks the append path.
		if stored, ok := m.store.Get(record.SessionID, id); ok {
			go m.archiveInsight(stored)
		}
	}

	m.engine.Trigger(record.SessionID)
	m.collector.RecordTiming(metrics.OpAppend, time.Since(started))
	return id, nil
}

func (m *Monitor) applyRetention(sessionID string) {
	if m.tuning.RetentionMaxAgeSeconds <= 0 && m.tuning.RetentionMaxRecords <= 0 {
		return
	}
	evicted := m.store.ApplyRetention(sessionID,
		m.tuning.RetentionMaxAgeSeconds, m.tuning.RetentionMaxRecords, m.engine)
	if evicted > 0 {
		m.logger.Debug("retention applied", "session", sessionID, "evicted", evicted)
	}
}

func (m *Monitor) archiveInsight(record models.InsightRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveWriteTimeout)
	defer cancel()

	started := time.Now()
	if err := m.archiver.ArchiveInsight(ctx, record); err != nil {
		m.logger.Warn("archive insight failed",
			"session", record.SessionID, "record", record.ID, "error", err)
		return
	}
	m.collector.RecordTiming(metrics.OpArchiveWrite, time.Since(started))
}

// onAssessment receives every emitted assessment: it updates metrics and
// persists the assessment write-behind.
func (m *Monitor) onAssessment(a models.ThreatAssessment) {
	metrics.AssessmentsEmitted.WithLabelValues(string(a.ThreatLevel)).Inc()
	for _, action := range a.Actions {
		metrics.ActionsIssued.WithLabelValues(string(action.Kind)).Inc()
	}

	if m.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveWriteTimeout)
		defer cancel()

		started := time.Now()
		if err := m.archiver.ArchiveAssessment(ctx, a); err != nil {
			m.logger.Warn("archive assessment failed",
				"session", a.SessionID, "assessment", a.ID, "error", err)
			return
		}
		m.collector.RecordTiming(metrics.OpArchiveWrite, time.Since(started))
	}()
}

// Query answers a retrospective query against a session.
func (m *Monitor) Query(ctx context.Context, sessionID, text string) (query.Result, error) {
	started := time.Now()
	result, err := m.queries.Run(ctx, sessionID, text)
	if err == nil && result.Kind == query.KindSemantic {
		m.collector.RecordTiming(metrics.OpSemanticSearch, time.Since(started))
	}
	return result, err
}

// Acknowledge resolves an escalating scenario. Returns false when the
// scenario is not in an escalating state (the engine treats that as a no-op).
func (m *Monitor) Acknowledge(sessionID string, kind models.ScenarioKind) bool {
	return m.engine.Acknowledge(sessionID, kind)
}

// CloseSession closes a session in both store and engine, cancelling any
// pending escalations. Returns false for unknown sessions.
func (m *Monitor) CloseSession(sessionID string) bool {
	if !m.store.CloseSession(sessionID) {
		return false
	}
	m.engine.CloseSession(sessionID)
	return true
}

// Subscribe forwards to the engine's assessment stream.
func (m *Monitor) Subscribe(fn engine.AssessmentFunc) {
	m.engine.Subscribe(fn)
}

// Timeline returns a session's full ordered history, optionally one source.
func (m *Monitor) Timeline(sessionID, sourceID string) []models.InsightRecord {
	return m.store.Timeline(sessionID, sourceID)
}

// Sessions lists known sessions, newest first, with the active-session gauge
// refreshed as a side effect.
func (m *Monitor) Sessions() []models.Session {
	sessions := m.store.Sessions()
	active := 0
	for _, s := range sessions {
		if s.Status == models.SessionActive {
			active++
		}
	}
	metrics.ActiveSessions.Set(float64(active))
	return sessions
}

// Session returns one session's metadata.
func (m *Monitor) Session(sessionID string) (models.Session, bool) {
	return m.store.Session(sessionID)
}

// ScenarioStates returns the engine's scenario snapshot for a session.
func (m *Monitor) ScenarioStates(sessionID string) []models.ScenarioState {
	return m.engine.ScenarioStates(sessionID)
}

// Stats summarizes monitor activity.
type Stats struct {
	Sessions       int              `json:"sessions"`
	ActiveSessions int              `json:"active_sessions"`
	Records        int              `json:"records"`
	Operations     metrics.Snapshot `json:"operations"`
}

// Stats returns a point-in-time activity summary.
func (m *Monitor) Stats() Stats {
	sessions := m.store.Sessions()
	stats := Stats{
		Sessions:   len(sessions),
		Operations: m.collector.Snapshot(),
	}
	for _, s := range sessions {
		stats.Records += s.Records
		if s.Status == models.SessionActive {
			stats.ActiveSessions++
		}
	}
	metrics.ActiveSessions.Set(float64(stats.ActiveSessions))
	return stats
}

// StartIdleSweeper closes sessions with no appends for the configured idle
// timeout. Blocks until ctx is done; run it in a goroutine.
func (m *Monitor) StartIdleSweeper(ctx context.Context, interval time.Duration) {
	if m.tuning.SessionIdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range m.store.IdleSessions(m.tuning.SessionIdleTimeout) {
				m.logger.Info("closing idle session", "session", id)
				m.CloseSession(id)
			}
		}
	}
}

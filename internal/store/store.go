package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// Store is the temporal insight store. Appends are the only mutation and
// records are immutable once stored, so the store is safe for
// single-writer-many-reader access per session and fully parallel across
// sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
	logger   *slog.Logger
}

// sessionLog holds one session's records, ascending by timestamp, plus the
// secondary indexes. The embedding index has its own lock so appends never
// block in-flight semantic queries; a just-appended record may be briefly
// absent from similarity results.
type sessionLog struct {
	mu         sync.RWMutex
	meta       models.Session
	lastAppend time.Time
	records    []*models.InsightRecord
	byID       map[string]*models.InsightRecord
	byLevel    map[models.ThreatLevel][]*models.InsightRecord
	sources    map[string]bool

	embMu    sync.RWMutex
	embedded []*models.InsightRecord
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*sessionLog),
		logger:   logger,
	}
}

// Append validates and stores a record, creating the session on first sight.
// A record whose id already exists is an idempotent no-op (producers deliver
// at least once). Returns the record id.
func (s *Store) Append(record models.InsightRecord) (string, error) {
	if record.ID == "" {
		return "", fmt.Errorf("%w: id is required", ErrValidation)
	}
	if record.SessionID == "" {
		return "", fmt.Errorf("%w: session_id is required", ErrValidation)
	}
	if record.SourceID == "" {
		return "", fmt.Errorf("%w: source_id is required", ErrValidation)
	}
	if record.Timestamp < 0 {
		return "", fmt.Errorf("%w: timestamp %v is negative", ErrValidation, record.Timestamp)
	}
	if record.ThreatLevel == "" {
		record.ThreatLevel = models.LevelNone
	}
	if !record.ThreatLevel.Valid() {
		return "", fmt.Errorf("%w: unknown threat level %q", ErrValidation, record.ThreatLevel)
	}
	record.StoredAt = time.Now()

	sess := s.getOrCreateSession(record.SessionID)

	stored := record.Clone()

	sess.mu.Lock()
	if _, exists := sess.byID[stored.ID]; exists {
		sess.mu.Unlock()
		s.logger.Debug("duplicate record ignored", "session", record.SessionID, "id", record.ID)
		return record.ID, nil
	}
	sess.insertLocked(&stored)
	sess.mu.Unlock()

	// Embedding index update happens outside the record lock; readers see
	// the new vector eventually.
	if len(stored.Embedding) > 0 {
		sess.embMu.Lock()
		sess.embedded = append(sess.embedded, &stored)
		sess.embMu.Unlock()
	}

	s.logger.Debug("record appended",
		"session", record.SessionID,
		"source", record.SourceID,
		"timestamp", record.Timestamp,
		"threat_level", record.ThreatLevel,
	)
	return record.ID, nil
}

func (s *Store) getOrCreateSession(id string) *sessionLog {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.mu.Lock()
		sess.lastAppend = time.Now()
		sess.mu.Unlock()
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess = &sessionLog{
		meta: models.Session{
			ID:        id,
			StartedAt: time.Now(),
			Status:    models.SessionActive,
		},
		lastAppend: time.Now(),
		byID:       make(map[string]*models.InsightRecord),
		byLevel:    make(map[models.ThreatLevel][]*models.InsightRecord),
		sources:    make(map[string]bool),
	}
	s.sessions[id] = sess
	s.logger.Info("session created", "session", id)
	return sess
}

// insertLocked places the record at its sorted position. Caller holds mu.
func (l *sessionLog) insertLocked(r *models.InsightRecord) {
	i := sort.Search(len(l.records), func(i int) bool {
		return l.records[i].Timestamp > r.Timestamp
	})
	l.records = append(l.records, nil)
	copy(l.records[i+1:], l.records[i:])
	l.records[i] = r

	l.byID[r.ID] = r
	l.byLevel[r.ThreatLevel] = append(l.byLevel[r.ThreatLevel], r)
	l.sources[r.SourceID] = true
}

// QueryByTimeRange returns records with start <= timestamp <= end, ascending
// by timestamp. Source filters to one camera/sensor when non-empty. Unknown
// sessions and sources yield an empty slice, never an error.
func (s *Store) QueryByTimeRange(sessionID, sourceID string, start, end float64) []models.InsightRecord {
	sess := s.session(sessionID)
	if sess == nil {
		return nil
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	lo := sort.Search(len(sess.records), func(i int) bool {
		return sess.records[i].Timestamp >= start
	})
	var out []models.InsightRecord
	for _, r := range sess.records[lo:] {
		if r.Timestamp > end {
			break
		}
		if sourceID != "" && r.SourceID != sourceID {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// QueryByThreatLevel returns records at exactly the given producer threat
// level, optionally filtered by source. Order is unspecified.
func (s *Store) QueryByThreatLevel(sessionID string, level models.ThreatLevel, sourceID string) []models.InsightRecord {
	sess := s.session(sessionID)
	if sess == nil {
		return nil
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	var out []models.InsightRecord
	for _, r := range sess.byLevel[level] {
		if sourceID != "" && r.SourceID != sourceID {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// Timeline returns a source's full ordered history, or the whole session's
// when sourceID is empty.
func (s *Store) Timeline(sessionID, sourceID string) []models.InsightRecord {
	sess := s.session(sessionID)
	if sess == nil {
		return nil
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	out := make([]models.InsightRecord, 0, len(sess.records))
	for _, r := range sess.records {
		if sourceID != "" && r.SourceID != sourceID {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// Get returns a record by id, or false when absent.
func (s *Store) Get(sessionID, recordID string) (models.InsightRecord, bool) {
	sess := s.session(sessionID)
	if sess == nil {
		return models.InsightRecord{}, false
	}
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	r, ok := sess.byID[recordID]
	if !ok {
		return models.InsightRecord{}, false
	}
	return r.Clone(), true
}

// LatestTimestamp returns the newest producer timestamp seen for a session.
// This is the session's media clock "now" for window computations.
func (s *Store) LatestTimestamp(sessionID string) (float64, bool) {
	sess := s.session(sessionID)
	if sess == nil {
		return 0, false
	}
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	if len(sess.records) == 0 {
		return 0, false
	}
	return sess.records[len(sess.records)-1].Timestamp, true
}

// Session returns session metadata, or false for unknown ids.
func (s *Store) Session(sessionID string) (models.Session, bool) {
	sess := s.session(sessionID)
	if sess == nil {
		return models.Session{}, false
	}
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.snapshotLocked(), true
}

// Sessions lists all known sessions, newest first.
func (s *Store) Sessions() []models.Session {
	s.mu.RLock()
	logs := make([]*sessionLog, 0, len(s.sessions))
	for _, sess := range s.sessions {
		logs = append(logs, sess)
	}
	s.mu.RUnlock()

	out := make([]models.Session, 0, len(logs))
	for _, sess := range logs {
		sess.mu.RLock()
		out = append(out, sess.snapshotLocked())
		sess.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (l *sessionLog) snapshotLocked() models.Session {
	meta := l.meta
	meta.Records = len(l.records)
	meta.Sources = make([]string, 0, len(l.sources))
	for src := range l.sources {
		meta.Sources = append(meta.Sources, src)
	}
	sort.Strings(meta.Sources)
	return meta
}

// CloseSession marks a session closed. Records are retained until explicit
// retention expiry. Returns false for unknown sessions.
func (s *Store) CloseSession(sessionID string) bool {
	sess := s.session(sessionID)
	if sess == nil {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.meta.Status == models.SessionClosed {
		return true
	}
	sess.meta.Status = models.SessionClosed
	s.logger.Info("session closed", "session", sessionID)
	return true
}

// IdleSessions returns ids of active sessions with no appends for at least
// maxIdle. The caller decides whether to close them.
func (s *Store) IdleSessions(maxIdle time.Duration) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	cutoff := time.Now().Add(-maxIdle)
	for id, sess := range s.sessions {
		sess.mu.RLock()
		idle := sess.meta.Status == models.SessionActive && sess.lastAppend.Before(cutoff)
		sess.mu.RUnlock()
		if idle {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) session(id string) *sessionLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

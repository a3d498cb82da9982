package store

import "github.com/hearthwatch/hearthwatch/internal/models"

// Pinner reports record ids that must survive retention because an
// unresolved scenario still references them as evidence. The correlation
// engine implements this.
type Pinner interface {
	PinnedEvidence(sessionID string) map[string]bool
}

// ApplyRetention evicts a session's oldest records first until both limits
// hold: records older than maxAgeSeconds behind the session's newest
// timestamp are dropped, and at most maxRecords remain. A zero limit
// disables that limit. Records pinned as evidence are never evicted.
// Returns the number of evicted records.
func (s *Store) ApplyRetention(sessionID string, maxAgeSeconds float64, maxRecords int, pinner Pinner) int {
	sess := s.session(sessionID)
	if sess == nil {
		return 0
	}

	var pinned map[string]bool
	if pinner != nil {
		pinned = pinner.PinnedEvidence(sessionID)
	}

	sess.mu.Lock()
	evicted := sess.evictLocked(maxAgeSeconds, maxRecords, pinned)
	sess.mu.Unlock()

	if len(evicted) == 0 {
		return 0
	}

	// Drop evicted vectors from the embedding index.
	sess.embMu.Lock()
	kept := sess.embedded[:0]
	for _, r := range sess.embedded {
		if !evicted[r.ID] {
			kept = append(kept, r)
		}
	}
	sess.embedded = kept
	sess.embMu.Unlock()

	s.logger.Info("retention applied", "session", sessionID, "evicted", len(evicted))
	return len(evicted)
}

// evictLocked removes eviction candidates oldest-first and rebuilds the
// secondary indexes. Caller holds mu.
func (l *sessionLog) evictLocked(maxAgeSeconds float64, maxRecords int, pinned map[string]bool) map[string]bool {
	if len(l.records) == 0 {
		return nil
	}

	newest := l.records[len(l.records)-1].Timestamp
	evicted := make(map[string]bool)
	kept := l.records[:0]

	remaining := len(l.records)
	for _, r := range l.records {
		tooOld := maxAgeSeconds > 0 && newest-r.Timestamp > maxAgeSeconds
		overCount := maxRecords > 0 && remaining > maxRecords
		if (tooOld || overCount) && !pinned[r.ID] {
			evicted[r.ID] = true
			remaining--
			continue
		}
		kept = append(kept, r)
	}
	if len(evicted) == 0 {
		return nil
	}
	l.records = kept

	for id := range evicted {
		delete(l.byID, id)
	}
	l.byLevel = make(map[models.ThreatLevel][]*models.InsightRecord, len(l.byLevel))
	for _, r := range l.records {
		l.byLevel[r.ThreatLevel] = append(l.byLevel[r.ThreatLevel], r)
	}
	return evicted
}

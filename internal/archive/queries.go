package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// insightRow is the archive representation of an insight record.
type insightRow struct {
	RecordID    string    `json:"record_id"`
	SessionID   string    `json:"session_id"`
	SourceID    string    `json:"source_id"`
	Modality    string    `json:"modality"`
	Timestamp   float64   `json:"timestamp"`
	ThreatLevel string    `json:"threat_level"`
	Detections  []string  `json:"detections"`
	Description *string   `json:"description,omitempty"`
	PeopleCount int       `json:"people_count"`
	WeaponType  *string   `json:"weapon_type,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	StoredAt    time.Time `json:"stored_at,omitempty"`
}

// assessmentRow is the archive representation of a threat assessment.
type assessmentRow struct {
	AssessmentID string                    `json:"assessment_id"`
	SessionID    string                    `json:"session_id"`
	EvaluatedAt  time.Time                 `json:"evaluated_at"`
	ThreatLevel  string                    `json:"threat_level"`
	Reasoning    string                    `json:"reasoning"`
	Degraded     bool                      `json:"degraded"`
	Evidence     []string                  `json:"evidence"`
	Actions      []models.EscalationAction `json:"actions"`
	Scenarios    []models.ScenarioState    `json:"scenarios"`
}

// LevelCount is one threat level with its archived record count.
type LevelCount struct {
	ThreatLevel string `json:"threat_level"`
	Count       int    `json:"count"`
}

func toInsightRow(r models.InsightRecord) insightRow {
	row := insightRow{
		RecordID:    r.ID,
		SessionID:   r.SessionID,
		SourceID:    r.SourceID,
		Modality:    string(r.Modality),
		Timestamp:   r.Timestamp,
		ThreatLevel: string(r.ThreatLevel),
		Detections:  make([]string, len(r.Detections)),
		PeopleCount: r.PeopleCount,
		Embedding:   r.Embedding,
		StoredAt:    r.StoredAt,
	}
	for i, d := range r.Detections {
		row.Detections[i] = string(d)
	}
	if r.Description != "" {
		row.Description = &r.Description
	}
	if r.WeaponType != "" {
		row.WeaponType = &r.WeaponType
	}
	return row
}

func fromInsightRow(row insightRow) models.InsightRecord {
	r := models.InsightRecord{
		ID:          row.RecordID,
		SessionID:   row.SessionID,
		SourceID:    row.SourceID,
		Modality:    models.Modality(row.Modality),
		Timestamp:   row.Timestamp,
		ThreatLevel: models.ThreatLevel(row.ThreatLevel),
		PeopleCount: row.PeopleCount,
		Embedding:   row.Embedding,
		StoredAt:    row.StoredAt,
	}
	for _, d := range row.Detections {
		r.Detections = append(r.Detections, models.Detection(d))
	}
	if row.Description != nil {
		r.Description = *row.Description
	}
	if row.WeaponType != nil {
		r.WeaponType = *row.WeaponType
	}
	return r
}

// ArchiveInsight writes one insight record. Re-archiving the same record id
// is a no-op.
func (c *Client) ArchiveInsight(ctx context.Context, record models.InsightRecord) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		INSERT IGNORE INTO insight $row
	`, map[string]any{"row": toInsightRow(record)})
	if err != nil {
		return fmt.Errorf("archive insight: %w", err)
	}
	return nil
}

// ArchiveAssessment writes one threat assessment. Idempotent per assessment id.
func (c *Client) ArchiveAssessment(ctx context.Context, a models.ThreatAssessment) error {
	row := assessmentRow{
		AssessmentID: a.ID,
		SessionID:    a.SessionID,
		EvaluatedAt:  a.EvaluatedAt,
		ThreatLevel:  string(a.ThreatLevel),
		Reasoning:    a.Reasoning,
		Degraded:     a.Degraded,
		Evidence:     a.Evidence,
		Actions:      a.Actions,
		Scenarios:    a.Scenarios,
	}
	if row.Evidence == nil {
		row.Evidence = []string{}
	}
	_, err := surrealdb.Query[any](ctx, c.db, `
		INSERT IGNORE INTO assessment $row
	`, map[string]any{"row": row})
	if err != nil {
		return fmt.Errorf("archive assessment: %w", err)
	}
	return nil
}

// InsightsByTimeRange returns archived records for a session within
// [start, end], ascending by timestamp.
func (c *Client) InsightsByTimeRange(ctx context.Context, sessionID string, start, end float64) ([]models.InsightRecord, error) {
	results, err := surrealdb.Query[[]insightRow](ctx, c.db, `
		SELECT * FROM insight
		WHERE session_id = $session AND timestamp >= $start AND timestamp <= $end
		ORDER BY timestamp ASC
	`, map[string]any{"session": sessionID, "start": start, "end": end})
	if err != nil {
		return nil, fmt.Errorf("insights by time range: %w", err)
	}
	return collectInsights(results), nil
}

// InsightsByThreatLevel returns archived records at exactly the given level,
// ascending by timestamp.
func (c *Client) InsightsByThreatLevel(ctx context.Context, sessionID string, level models.ThreatLevel) ([]models.InsightRecord, error) {
	results, err := surrealdb.Query[[]insightRow](ctx, c.db, `
		SELECT * FROM insight
		WHERE session_id = $session AND threat_level = $level
		ORDER BY timestamp ASC
	`, map[string]any{"session": sessionID, "level": string(level)})
	if err != nil {
		return nil, fmt.Errorf("insights by threat level: %w", err)
	}
	return collectInsights(results), nil
}

// SemanticSearch runs an HNSW nearest-neighbour search over a session's
// archived embeddings.
func (c *Client) SemanticSearch(ctx context.Context, sessionID string, embedding []float32, limit int) ([]models.InsightRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	// HNSW with ef=40 for better recall.
	sql := fmt.Sprintf(`
		SELECT * FROM insight
		WHERE session_id = $session AND embedding <|%d,40|> $emb
	`, limit)
	results, err := surrealdb.Query[[]insightRow](ctx, c.db, sql, map[string]any{
		"session": sessionID,
		"emb":     embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return collectInsights(results), nil
}

// AssessmentsBySession returns a session's archived assessments in
// evaluation order.
func (c *Client) AssessmentsBySession(ctx context.Context, sessionID string) ([]models.ThreatAssessment, error) {
	results, err := surrealdb.Query[[]assessmentRow](ctx, c.db, `
		SELECT * FROM assessment
		WHERE session_id = $session
		ORDER BY evaluated_at ASC
	`, map[string]any{"session": sessionID})
	if err != nil {
		return nil, fmt.Errorf("assessments by session: %w", err)
	}

	var out []models.ThreatAssessment
	if results != nil && len(*results) > 0 {
		for _, row := range (*results)[0].Result {
			out = append(out, models.ThreatAssessment{
				ID:          row.AssessmentID,
				SessionID:   row.SessionID,
				EvaluatedAt: row.EvaluatedAt,
				ThreatLevel: models.ThreatLevel(row.ThreatLevel),
				Reasoning:   row.Reasoning,
				Degraded:    row.Degraded,
				Evidence:    row.Evidence,
				Actions:     row.Actions,
				Scenarios:   row.Scenarios,
			})
		}
	}
	return out, nil
}

// SessionSummary aggregates archived record counts per session.
type SessionSummary struct {
	SessionID string  `json:"session_id"`
	Records   int     `json:"records"`
	LastSeen  float64 `json:"last_seen"`
}

// Sessions returns per-session record counts over the whole archive.
func (c *Client) Sessions(ctx context.Context) ([]SessionSummary, error) {
	results, err := surrealdb.Query[[]SessionSummary](ctx, c.db, `
		SELECT session_id, count() AS records, math::max(timestamp) AS last_seen
		FROM insight GROUP BY session_id ORDER BY session_id ASC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []SessionSummary{}, nil
	}
	return (*results)[0].Result, nil
}

// ThreatDistribution returns per-level archived record counts for a session.
func (c *Client) ThreatDistribution(ctx context.Context, sessionID string) ([]LevelCount, error) {
	results, err := surrealdb.Query[[]LevelCount](ctx, c.db, `
		SELECT threat_level, count() AS count FROM insight
		WHERE session_id = $session
		GROUP BY threat_level ORDER BY count DESC
	`, map[string]any{"session": sessionID})
	if err != nil {
		return nil, fmt.Errorf("threat distribution: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []LevelCount{}, nil
	}
	return (*results)[0].Result, nil
}

func collectInsights(results *[]surrealdb.QueryResult[[]insightRow]) []models.InsightRecord {
	var out []models.InsightRecord
	if results != nil && len(*results) > 0 {
		for _, row := range (*results)[0].Result {
			out = append(out, fromInsightRow(row))
		}
	}
	return out
}

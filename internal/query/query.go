// Package query translates natural-language query text into temporal store
// calls: time-range patterns, threat-level keywords, and a semantic-search
// fallback.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/hearthwatch/hearthwatch/internal/embedding"
	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/hearthwatch/hearthwatch/internal/store"
)

const semanticTopK = 10

// Engine answers retrospective queries against the temporal store. It is
// stateless; an empty result is a valid answer, not an error.
type Engine struct {
	store    *store.Store
	embedder embedding.Embedder
	logger   *slog.Logger
}

// Result carries the matched records plus how the query was interpreted.
type Result struct {
	Kind            Kind                   `json:"kind"`
	Interpretation  string                 `json:"interpretation"`
	SourceID        string                 `json:"source_id,omitempty"`
	Records         []models.InsightRecord `json:"records"`
	Scores          []float64              `json:"scores,omitempty"`
	KeywordFallback bool                   `json:"keyword_fallback,omitempty"`
}

// New creates a query engine. embedder may be nil; semantic queries then use
// keyword matching only.
func New(s *store.Store, embedder embedding.Embedder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, embedder: embedder, logger: logger}
}

// Run evaluates one query text against a session.
func (e *Engine) Run(ctx context.Context, sessionID, text string) (Result, error) {
	p := Parse(text)

	switch p.Kind {
	case KindTimeRange:
		start, end := p.Start, p.End
		if p.Relative {
			now, ok := e.store.LatestTimestamp(sessionID)
			if !ok {
				now = 0
			}
			start, end = math.Max(0, now-p.End), now
		}
		records := e.store.QueryByTimeRange(sessionID, p.SourceID, start, end)
		e.logger.Debug("time-range query",
			"session", sessionID, "start", start, "end", end,
			"source", p.SourceID, "matches", len(records))
		return Result{
			Kind:           KindTimeRange,
			Interpretation: fmt.Sprintf("events from %.1fs to %.1fs", start, end),
			SourceID:       p.SourceID,
			Records:        records,
		}, nil

	case KindThreatLevel:
		records := e.store.QueryByThreatLevel(sessionID, p.Level, p.SourceID)
		e.logger.Debug("threat-level query",
			"session", sessionID, "level", p.Level,
			"source", p.SourceID, "matches", len(records))
		return Result{
			Kind:           KindThreatLevel,
			Interpretation: fmt.Sprintf("events at threat level %s", p.Level),
			SourceID:       p.SourceID,
			Records:        records,
		}, nil

	default:
		return e.semantic(ctx, sessionID, text, p.SourceID)
	}
}

func (e *Engine) semantic(ctx context.Context, sessionID, text, sourceID string) (Result, error) {
	var vec []float32
	if e.embedder != nil {
		v, err := e.embedder.Embed(ctx, text)
		if err != nil {
			// Degrade to keyword matching rather than failing the query.
			e.logger.Warn("query embedding failed, using keyword fallback",
				"session", sessionID, "error", err)
		} else {
			vec = v
		}
	}

	matches, fellBack := e.store.QueryBySemantic(sessionID, vec, text, semanticTopK)

	result := Result{
		Kind:            KindSemantic,
		Interpretation:  "semantic search",
		SourceID:        sourceID,
		KeywordFallback: fellBack,
	}
	if fellBack {
		result.Interpretation = "keyword search"
	}
	for _, m := range matches {
		if sourceID != "" && m.Record.SourceID != sourceID {
			continue
		}
		result.Records = append(result.Records, m.Record)
		result.Scores = append(result.Scores, m.Score)
	}
	e.logger.Debug("semantic query",
		"session", sessionID, "matches", len(result.Records), "fallback", fellBack)
	return result, nil
}

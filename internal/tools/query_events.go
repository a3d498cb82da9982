package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/hearthwatch/hearthwatch/internal/query"
)

// QueryEventsInput defines the input schema for the query_events tool.
type QueryEventsInput struct {
	Session string `json:"session" jsonschema:"required,Session ID to query"`
	Query   string `json:"query" jsonschema:"required,Natural language query (time range, threat level, or free text)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max semantic results 1-50, default 10"`
}

// queryEventsResult wraps query output with the interpretation applied.
type queryEventsResult struct {
	Interpretation string                 `json:"interpretation"`
	Count          int                    `json:"count"`
	Records        []models.InsightRecord `json:"records"`
}

// NewQueryEventsHandler creates the query_events tool handler.
// Time-range and threat-level phrasings hit indexed archive queries;
// everything else runs a vector search over archived embeddings.
func NewQueryEventsHandler(deps *Dependencies) mcp.ToolHandlerFor[QueryEventsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input QueryEventsInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Session == "" {
			return ErrorResult("Session cannot be empty", "Provide a session ID"), nil, nil
		}
		if input.Query == "" {
			return ErrorResult("Query cannot be empty", "Provide a query text"), nil, nil
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			return ErrorResult("Limit must be 1-50", "Reduce limit value"), nil, nil
		}

		parsed := query.Parse(input.Query)

		var (
			records        []models.InsightRecord
			interpretation string
			err            error
		)
		switch parsed.Kind {
		case query.KindTimeRange:
			start, end := parsed.Start, parsed.End
			if parsed.Relative {
				// Relative ranges anchor to the newest archived timestamp.
				latest, latestErr := latestTimestamp(ctx, deps, input.Session)
				if latestErr != nil {
					deps.Logger.Error("anchor lookup failed", "error", latestErr)
					return ErrorResult("Failed to resolve relative time range", "Archive may be unavailable"), nil, nil
				}
				start = latest - parsed.End
				if start < 0 {
					start = 0
				}
				end = latest
			}
			interpretation = "time_range"
			records, err = deps.Archive.InsightsByTimeRange(ctx, input.Session, start, end)

		case query.KindThreatLevel:
			interpretation = "threat_level"
			records, err = deps.Archive.InsightsByThreatLevel(ctx, input.Session, parsed.Level)

		default:
			interpretation = "semantic"
			if deps.Embedder == nil {
				return ErrorResult("Semantic search is unavailable without an embedding provider",
					"Use a time range or threat level query instead"), nil, nil
			}
			emb, embErr := deps.Embedder.Embed(ctx, input.Query)
			if embErr != nil {
				deps.Logger.Error("embedding failed", "error", embErr)
				return ErrorResult("Failed to generate query embedding", "Check embedding provider connection"), nil, nil
			}
			records, err = deps.Archive.SemanticSearch(ctx, input.Session, emb, limit)
		}
		if err != nil {
			deps.Logger.Error("query failed", "error", err)
			return ErrorResult("Query failed", "Archive may be unavailable"), nil, nil
		}

		if parsed.SourceID != "" {
			filtered := records[:0]
			for _, r := range records {
				if r.SourceID == parsed.SourceID {
					filtered = append(filtered, r)
				}
			}
			records = filtered
		}
		if records == nil {
			records = []models.InsightRecord{}
		}

		queryLog := input.Query
		if len(queryLog) > 30 {
			queryLog = queryLog[:30] + "..."
		}
		deps.Logger.Info("query_events completed", "query", queryLog, "results", len(records))

		return JSONResult(queryEventsResult{
			Interpretation: interpretation,
			Count:          len(records),
			Records:        records,
		}), nil, nil
	}
}

// latestTimestamp returns the newest archived session timestamp, or 0 for an
// empty session.
func latestTimestamp(ctx context.Context, deps *Dependencies, sessionID string) (float64, error) {
	sessions, err := deps.Archive.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	for _, s := range sessions {
		if s.SessionID == sessionID {
			return s.LastSeen, nil
		}
	}
	return 0, nil
}

package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hearthwatch/hearthwatch/internal/archive"
)

// StatsInput defines the input schema for the stats tool.
type StatsInput struct {
	Session string `json:"session" jsonschema:"required,Session ID"`
}

// sessionStats summarizes a session's archived contents.
type sessionStats struct {
	Session      string               `json:"session"`
	Records      int                  `json:"records"`
	Assessments  int                  `json:"assessments"`
	Distribution []archive.LevelCount `json:"distribution"`
}

// NewStatsHandler creates the stats tool handler.
func NewStatsHandler(deps *Dependencies) mcp.ToolHandlerFor[StatsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Session == "" {
			return ErrorResult("Session cannot be empty", "Provide a session ID"), nil, nil
		}

		distribution, err := deps.Archive.ThreatDistribution(ctx, input.Session)
		if err != nil {
			deps.Logger.Error("distribution query failed", "error", err)
			return ErrorResult("Stats query failed", "Archive may be unavailable"), nil, nil
		}
		assessments, err := deps.Archive.AssessmentsBySession(ctx, input.Session)
		if err != nil {
			deps.Logger.Error("assessments query failed", "error", err)
			return ErrorResult("Stats query failed", "Archive may be unavailable"), nil, nil
		}

		total := 0
		for _, lc := range distribution {
			total += lc.Count
		}

		deps.Logger.Info("stats completed", "session", input.Session, "records", total)
		return JSONResult(sessionStats{
			Session:      input.Session,
			Records:      total,
			Assessments:  len(assessments),
			Distribution: distribution,
		}), nil, nil
	}
}

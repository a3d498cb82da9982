package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// ThreatEventsInput defines the input schema for the threat_events tool.
type ThreatEventsInput struct {
	Session string `json:"session" jsonschema:"required,Session ID"`
	Level   string `json:"level,omitempty" jsonschema:"Threat level filter: critical, high, medium or low (default high)"`
}

// threatEventsResult pairs level-filtered records with the session's
// emitted assessments.
type threatEventsResult struct {
	Level       models.ThreatLevel        `json:"level"`
	Records     []models.InsightRecord    `json:"records"`
	Assessments []models.ThreatAssessment `json:"assessments"`
}

// NewThreatEventsHandler creates the threat_events tool handler.
func NewThreatEventsHandler(deps *Dependencies) mcp.ToolHandlerFor[ThreatEventsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ThreatEventsInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Session == "" {
			return ErrorResult("Session cannot be empty", "Provide a session ID"), nil, nil
		}
		level := models.ThreatLevel(input.Level)
		if input.Level == "" {
			level = models.LevelHigh
		}
		switch level {
		case models.LevelCritical, models.LevelHigh, models.LevelMedium, models.LevelLow:
		default:
			return ErrorResult("Unknown threat level", "Use critical, high, medium or low"), nil, nil
		}

		records, err := deps.Archive.InsightsByThreatLevel(ctx, input.Session, level)
		if err != nil {
			deps.Logger.Error("threat events query failed", "error", err)
			return ErrorResult("Threat events query failed", "Archive may be unavailable"), nil, nil
		}
		assessments, err := deps.Archive.AssessmentsBySession(ctx, input.Session)
		if err != nil {
			deps.Logger.Error("assessments query failed", "error", err)
			return ErrorResult("Assessments query failed", "Archive may be unavailable"), nil, nil
		}
		if records == nil {
			records = []models.InsightRecord{}
		}
		if assessments == nil {
			assessments = []models.ThreatAssessment{}
		}

		deps.Logger.Info("threat_events completed",
			"session", input.Session, "level", level,
			"records", len(records), "assessments", len(assessments))
		return JSONResult(threatEventsResult{
			Level:       level,
			Records:     records,
			Assessments: assessments,
		}), nil, nil
	}
}

package tools

import (
	"context"
	"math"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// TimelineInput defines the input schema for the timeline tool.
type TimelineInput struct {
	Session string  `json:"session" jsonschema:"required,Session ID"`
	Start   float64 `json:"start,omitempty" jsonschema:"Range start in session seconds, default 0"`
	End     float64 `json:"end,omitempty" jsonschema:"Range end in session seconds, default unbounded"`
	Source  string  `json:"source,omitempty" jsonschema:"Filter to a single producer, e.g. cam-1"`
}

// NewTimelineHandler creates the timeline tool handler. Returns archived
// records in session-time order.
func NewTimelineHandler(deps *Dependencies) mcp.ToolHandlerFor[TimelineInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TimelineInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Session == "" {
			return ErrorResult("Session cannot be empty", "Provide a session ID"), nil, nil
		}
		end := input.End
		if end <= 0 {
			end = math.MaxFloat64
		}
		if input.Start < 0 || end < input.Start {
			return ErrorResult("Invalid time range", "End must not precede start"), nil, nil
		}

		records, err := deps.Archive.InsightsByTimeRange(ctx, input.Session, input.Start, end)
		if err != nil {
			deps.Logger.Error("timeline query failed", "error", err)
			return ErrorResult("Timeline query failed", "Archive may be unavailable"), nil, nil
		}
		if input.Source != "" {
			filtered := records[:0]
			for _, r := range records {
				if r.SourceID == input.Source {
					filtered = append(filtered, r)
				}
			}
			records = filtered
		}
		if records == nil {
			records = []models.InsightRecord{}
		}

		deps.Logger.Info("timeline completed", "session", input.Session, "records", len(records))
		return JSONResult(records), nil, nil
	}
}

package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hearthwatch/hearthwatch/internal/archive"
)

// ListSessionsInput defines the input schema for the list_sessions tool.
type ListSessionsInput struct{}

// NewListSessionsHandler creates the list_sessions tool handler.
func NewListSessionsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListSessionsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListSessionsInput) (
		*mcp.CallToolResult, any, error,
	) {
		sessions, err := deps.Archive.Sessions(ctx)
		if err != nil {
			deps.Logger.Error("sessions query failed", "error", err)
			return ErrorResult("Sessions query failed", "Archive may be unavailable"), nil, nil
		}
		if sessions == nil {
			sessions = []archive.SessionSummary{}
		}
		deps.Logger.Info("list_sessions completed", "count", len(sessions))
		return JSONResult(sessions), nil, nil
	}
}

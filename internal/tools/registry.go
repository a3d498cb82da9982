package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_events",
		Description: "Query a session's archived observations with natural language (time ranges, threat levels, or free-text semantic search)",
	}, NewQueryEventsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "timeline",
		Description: "List a session's archived observations in session-time order, optionally bounded and filtered by producer",
	}, NewTimelineHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "threat_events",
		Description: "List a session's observations at a given threat level together with its emitted assessments",
	}, NewThreatEventsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List all archived sessions with record counts",
	}, NewListSessionsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Summarize a session: record count, assessment count and threat level distribution",
	}, NewStatsHandler(deps))
}

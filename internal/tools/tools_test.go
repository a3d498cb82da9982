package tools_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/hearthwatch/internal/tools"
)

// testLogger creates a logger for test visibility.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// connect spins up an in-memory MCP server with all tools registered and
// returns a connected client session.
func connect(t *testing.T, ctx context.Context) *mcp.ClientSession {
	t.Helper()

	impl := &mcp.Implementation{
		Name:    "test-hearthwatch",
		Version: "0.0.1-test",
	}
	server := mcp.NewServer(impl, nil)

	// Validation paths run before any archive access, so nil deps suffice.
	deps := &tools.Dependencies{
		Archive:  nil,
		Embedder: nil,
		Logger:   testLogger(),
	}
	tools.RegisterAll(server, deps)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	go func() {
		_ = server.Run(ctx, serverTransport)
	}()
	time.Sleep(50 * time.Millisecond)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")
	t.Cleanup(func() { session.Close() })
	return session
}

func TestToolRegistration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session := connect(t, ctx)

	result, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, result.Tools, 5)

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"query_events", "timeline", "threat_events", "list_sessions", "stats"} {
		assert.True(t, names[want], "tool %s should be registered", want)
	}
}

func TestInputValidation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session := connect(t, ctx)

	cases := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"query_events empty session", "query_events", map[string]any{"session": "", "query": "fire"}},
		{"query_events empty query", "query_events", map[string]any{"session": "home-1", "query": ""}},
		{"query_events limit too large", "query_events", map[string]any{"session": "home-1", "query": "fire", "limit": 500}},
		{"timeline empty session", "timeline", map[string]any{"session": ""}},
		{"timeline inverted range", "timeline", map[string]any{"session": "home-1", "start": 20.0, "end": 10.0}},
		{"threat_events unknown level", "threat_events", map[string]any{"session": "home-1", "level": "volcano"}},
		{"stats empty session", "stats", map[string]any{"session": ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      tc.tool,
				Arguments: tc.args,
			})
			require.NoError(t, err)
			assert.True(t, result.IsError, "expected a tool error")
			require.Len(t, result.Content, 1)
			_, ok := result.Content[0].(*mcp.TextContent)
			assert.True(t, ok, "content should be TextContent")
		})
	}
}

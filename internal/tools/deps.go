// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/hearthwatch/hearthwatch/internal/archive"
	"github.com/hearthwatch/hearthwatch/internal/embedding"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Archive  *archive.Client
	Embedder embedding.Embedder
	Logger   *slog.Logger
}

// Package config loads hearthwatch configuration from the environment and
// an optional YAML tuning file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// EmbedProvider identifies the embedding backend.
type EmbedProvider string

const (
	ProviderOllama EmbedProvider = "ollama"
	ProviderOpenAI EmbedProvider = "openai"
	// ProviderNone disables embeddings entirely; the store degrades to
	// keyword matching for semantic queries.
	ProviderNone EmbedProvider = "none"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	ServerAddr string

	// SurrealDB archive (disabled when ArchiveURL is empty)
	ArchiveURL       string
	ArchiveNamespace string
	ArchiveDatabase  string
	ArchiveUser      string
	ArchivePass      string
	ArchiveAuthLevel string

	// Embedding
	EmbedProvider  EmbedProvider
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string
	OpenAIAPIKey   string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Scenario tuning overrides (YAML), applied on top of defaults.
	TuningFile string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		ServerAddr: getEnv("HEARTHWATCH_ADDR", ":8590"),

		ArchiveURL:       getEnv("HEARTHWATCH_ARCHIVE_URL", ""),
		ArchiveNamespace: getEnv("HEARTHWATCH_ARCHIVE_NAMESPACE", "hearthwatch"),
		ArchiveDatabase:  getEnv("HEARTHWATCH_ARCHIVE_DATABASE", "monitoring"),
		ArchiveUser:      getEnv("HEARTHWATCH_ARCHIVE_USER", "root"),
		ArchivePass:      getEnv("HEARTHWATCH_ARCHIVE_PASS", "root"),
		ArchiveAuthLevel: getEnv("HEARTHWATCH_ARCHIVE_AUTH_LEVEL", "root"),

		EmbedProvider:  EmbedProvider(getEnv("HEARTHWATCH_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("HEARTHWATCH_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("HEARTHWATCH_EMBED_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),

		LogFile:  getEnv("HEARTHWATCH_LOG_FILE", "/tmp/hearthwatch.log"),
		LogLevel: parseLogLevel(getEnv("HEARTHWATCH_LOG_LEVEL", "INFO")),

		TuningFile: getEnv("HEARTHWATCH_TUNING_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

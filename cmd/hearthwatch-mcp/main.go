// Package main provides the entry point for the hearthwatch MCP server.
// It exposes the SurrealDB archive's read path to agent tooling over stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hearthwatch/hearthwatch/internal/archive"
	"github.com/hearthwatch/hearthwatch/internal/config"
	"github.com/hearthwatch/hearthwatch/internal/embedding"
	"github.com/hearthwatch/hearthwatch/internal/server"
	"github.com/hearthwatch/hearthwatch/internal/tools"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()

	// Stdout is the MCP transport, so logs go to stderr and the log file.
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("hearthwatch-mcp starting",
		"version", version,
		"archive_url", cfg.ArchiveURL,
		"embedding_model", cfg.EmbedModel,
	)

	if cfg.ArchiveURL == "" {
		logger.Error("HEARTHWATCH_ARCHIVE_URL is required, the MCP server reads from the archive")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	archiveClient, err := archive.NewClient(ctx, archive.Config{
		URL:       cfg.ArchiveURL,
		Namespace: cfg.ArchiveNamespace,
		Database:  cfg.ArchiveDatabase,
		Username:  cfg.ArchiveUser,
		Password:  cfg.ArchivePass,
		AuthLevel: cfg.ArchiveAuthLevel,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to archive", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing archive connection")
		_ = archiveClient.Close(context.Background())
	}()

	if err := archiveClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
		logger.Error("failed to initialize archive schema", "error", err)
		os.Exit(1)
	}

	var embedder embedding.Embedder
	if le, err := embedding.New(cfg); err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	} else if le != nil {
		embedder = le
		logger.Info("embedder initialized", "model", le.Model())
	} else {
		logger.Warn("embeddings disabled, semantic queries unavailable")
	}

	srv := server.NewMCP(version, logger)
	srv.Setup()

	deps := &tools.Dependencies{
		Archive:  archiveClient,
		Embedder: embedder,
		Logger:   logger,
	}
	tools.RegisterAll(srv.Server(), deps)
	logger.Info("tools registered", "count", 5)

	logger.Info("server ready, awaiting connections")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

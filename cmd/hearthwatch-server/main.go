// Package main provides the HTTP server for Hearthwatch.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hearthwatch/hearthwatch/internal/archive"
	"github.com/hearthwatch/hearthwatch/internal/config"
	"github.com/hearthwatch/hearthwatch/internal/embedding"
	"github.com/hearthwatch/hearthwatch/internal/engine"
	"github.com/hearthwatch/hearthwatch/internal/metrics"
	"github.com/hearthwatch/hearthwatch/internal/query"
	"github.com/hearthwatch/hearthwatch/internal/server"
	"github.com/hearthwatch/hearthwatch/internal/service"
	"github.com/hearthwatch/hearthwatch/internal/store"
)

const version = "0.1.0"

// idleSweepInterval is how often closed-over idle sessions are reaped.
const idleSweepInterval = time.Minute

func main() {
	wipeArchive := flag.Bool("wipe", false, "wipe all archived data on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	logger.Info("starting hearthwatch-server",
		"version", version,
		"addr", cfg.ServerAddr,
		"embed_provider", cfg.EmbedProvider,
	)

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		logger.Error("failed to load tuning", "error", err)
		os.Exit(1)
	}

	// Embedder is optional; without one, semantic queries fall back to
	// keyword matching.
	var embedder embedding.Embedder
	if le, err := embedding.New(cfg); err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	} else if le != nil {
		embedder = le
		logger.Info("embedder initialized", "model", le.Model(), "dimension", le.Dimension())
	} else {
		logger.Warn("embeddings disabled, semantic queries degrade to keyword matching")
	}

	// The archive is optional too. The in-memory store is the hot path;
	// SurrealDB only receives write-behind copies.
	var archiver service.Archiver
	if cfg.ArchiveURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		archiveClient, err := archive.NewClient(ctx, archive.Config{
			URL:       cfg.ArchiveURL,
			Namespace: cfg.ArchiveNamespace,
			Database:  cfg.ArchiveDatabase,
			Username:  cfg.ArchiveUser,
			Password:  cfg.ArchivePass,
			AuthLevel: cfg.ArchiveAuthLevel,
		}, logger)
		if err != nil {
			cancel()
			logger.Error("failed to connect to archive", "error", err)
			os.Exit(1)
		}
		if *wipeArchive || os.Getenv("HEARTHWATCH_WIPE_ARCHIVE") == "true" {
			if err := archiveClient.WipeData(ctx); err != nil {
				cancel()
				logger.Error("failed to wipe archive", "error", err)
				os.Exit(1)
			}
		}
		if err := archiveClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			cancel()
			logger.Error("failed to initialize archive schema", "error", err)
			os.Exit(1)
		}
		cancel()
		defer func() {
			logger.Info("closing archive connection")
			_ = archiveClient.Close(context.Background())
		}()
		archiver = archiveClient
		logger.Info("archive connected", "url", cfg.ArchiveURL)
	}

	st := store.New(logger)
	eng := engine.New(st, tuning, engine.NewClock(), logger)
	queries := query.New(st, embedder, logger)
	monitor := service.NewMonitor(st, eng, queries, embedder, archiver, metrics.NewCollector(), tuning, logger)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go monitor.StartIdleSweeper(sweepCtx, idleSweepInterval)

	srv := server.New(monitor, logger)
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // long enough for slow embedding providers
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.ServerAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.Shutdown()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

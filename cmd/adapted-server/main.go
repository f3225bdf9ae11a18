// Package main provides the HTTP server for adapted.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/app"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/config"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/server"
)

func main() {
	// Parse flags
	rebuild := flag.Bool("rebuild", false, "rebuild every index before serving")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("starting adapted-server", "port", cfg.ServerPort, "record_backend", cfg.RecordBackend)

	// Build the pipeline
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error("failed to close pipeline", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Rebuild up front if requested (via flag or env var)
	if *rebuild || os.Getenv("ADAPTED_REBUILD_ON_START") == "true" {
		for _, c := range models.AllCollections() {
			if _, err := a.Index.Rebuild(ctx, c); err != nil {
				logger.Error("startup rebuild failed", "collection", c, "error", err)
			}
		}
	}

	a.Start(ctx)

	api := server.NewAPI(a.Orchestrator, a.Projects, a.Index, a.Jobs, a.Metrics, logger)
	httpServer := server.NewHTTPServer(net.JoinHostPort("", cfg.ServerPort), api.Handler())

	if err := server.Serve(ctx, httpServer, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// Package main provides the entry point for the adapted MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/app"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/config"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/server"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("adapted-mcp starting",
		"version", version,
		"record_backend", cfg.RecordBackend,
		"llm_model", cfg.LLMModel,
		"embedding_model", cfg.EmbedModel,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing pipeline")
		_ = a.Close(context.Background())
	}()
	a.Start(ctx)

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()

	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Orchestrator: a.Orchestrator,
		Projects:     a.Projects,
		Index:        a.Index,
		Logger:       logger,
	})
	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// Package app wires the record store, index lifecycle, oracles and services
// into one container shared by every transport.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/config"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/db"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/llm"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/parser"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/ranking"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/retrieval"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/store"
)

// Oracles are the external models the pipeline depends on.
type Oracles struct {
	Completer llm.Completer
	Embedder  index.Embedder
}

// App holds every long-lived component.
type App struct {
	Config       config.Config
	Metrics      *metrics.Collector
	Store        store.Store
	Index        *index.Manager
	Refresher    *index.Refresher
	Retriever    *retrieval.Retriever
	Ranker       *ranking.Ranker
	Orchestrator *service.Orchestrator
	Projects     *service.ProjectService
	Jobs         *service.JobManager
	Logger       *slog.Logger

	db *db.Client
}

// New builds the store and oracles from configuration and assembles the app.
// Initialization order: store, oracles, index manager, retriever, ranker,
// orchestrator.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	mc := metrics.NewCollector()

	st, dbClient, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewEmbedder(ctx, cfg, mc, logger)
	if err != nil {
		closeDB(ctx, dbClient, logger)
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	model, err := llm.NewModel(ctx, cfg, mc, logger)
	if err != nil {
		closeDB(ctx, dbClient, logger)
		return nil, fmt.Errorf("init model: %w", err)
	}
	limiter := llm.NewRateLimiter(llm.DefaultRateLimit(cfg.LLMRequestsPerM))

	a := Assemble(cfg, st, Oracles{
		Completer: llm.NewLimitedCompleter(model, limiter),
		Embedder:  embedder,
	}, mc, logger)
	a.db = dbClient

	logger.Info("pipeline initialized",
		"record_backend", cfg.RecordBackend,
		"llm_provider", cfg.LLMProvider,
		"llm_model", model.Model(),
		"embedding_model", embedder.Model(),
		"index_dir", cfg.IndexDir,
	)
	return a, nil
}

// Assemble wires components around an existing store and oracles.
func Assemble(cfg config.Config, st store.Store, oracles Oracles, mc *metrics.Collector, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	manager := index.NewManager(index.Config{
		Dir:            cfg.IndexDir,
		LedgerPath:     cfg.LedgerFile,
		UpdateInterval: cfg.UpdateInterval,
		Chunk:          parser.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		BatchSize:      cfg.EmbedBatchSize,
	}, st, oracles.Embedder, logger, index.WithMetrics(mc))

	retriever := retrieval.New(manager, st, mc, logger)
	ranker := ranking.NewRanker(oracles.Completer, mc, logger)
	orchestrator := service.NewOrchestrator(oracles.Completer, retriever, ranker, logger,
		service.WithMaxAttempts(cfg.GenerationAttempts),
		service.WithDefaultRankingMethod(cfg.RankingMethod),
		service.WithMetrics(mc),
	)

	return &App{
		Config:       cfg,
		Metrics:      mc,
		Store:        st,
		Index:        manager,
		Refresher:    index.NewRefresher(manager, cfg.RefreshInterval, logger),
		Retriever:    retriever,
		Ranker:       ranker,
		Orchestrator: orchestrator,
		Projects:     service.NewProjectService(retriever, st),
		Jobs:         service.NewJobManager(manager, logger),
		Logger:       logger,
	}
}

// openStore routes every collection to the configured backend.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, *db.Client, error) {
	switch cfg.RecordBackend {
	case config.BackendSurrealDB:
		client, err := db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := client.InitSchema(ctx); err != nil {
			closeDB(ctx, client, logger)
			return nil, nil, fmt.Errorf("initialize schema: %w", err)
		}
		backends := make(map[models.Collection]store.RecordStore)
		for _, c := range models.AllCollections() {
			backends[c] = client
		}
		return store.NewMultiStore(backends, client), client, nil

	default:
		files := store.NewFileStore(map[models.Collection]string{
			models.CollectionResources: cfg.ResourcesFile,
			models.CollectionQuestions: cfg.QuestionsFile,
			models.CollectionProjects:  cfg.ProjectsFile,
		}, logger)
		return files, nil, nil
	}
}

// Start launches the background index refresher.
func (a *App) Start(ctx context.Context) {
	a.Refresher.Start(ctx)
}

// Close stops background work and releases connections.
func (a *App) Close(ctx context.Context) error {
	a.Refresher.Stop()
	if a.db != nil {
		return a.db.Close(ctx)
	}
	return nil
}

func closeDB(ctx context.Context, client *db.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(ctx); err != nil {
		logger.Warn("failed to close database", "error", err)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
)

const (
	// maxBodyBytes caps request bodies.
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// IndexAdmin exposes index state and manual rebuilds.
type IndexAdmin interface {
	Status() []index.CollectionStatus
	Rebuild(ctx context.Context, c models.Collection) (*index.Index, error)
}

// API serves the HTTP routes.
type API struct {
	orchestrator *service.Orchestrator
	projects     *service.ProjectService
	index        IndexAdmin
	jobs         *service.JobManager
	metrics      *metrics.Collector
	logger       *slog.Logger
}

// NewAPI creates the HTTP API.
func NewAPI(o *service.Orchestrator, p *service.ProjectService, idx IndexAdmin, jobs *service.JobManager, mc *metrics.Collector, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{orchestrator: o, projects: p, index: idx, jobs: jobs, metrics: mc, logger: logger}
}

// Handler returns the routed handler wrapped in request logging.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate-roadmap", a.handleRoadmap)
	mux.HandleFunc("POST /api/generate-quiz", a.handleQuiz)
	mux.HandleFunc("POST /api/generate-recommendations", a.handleRecommendations)
	mux.HandleFunc("POST /api/rank-resources", a.handleRank)
	mux.HandleFunc("GET /api/get-project", a.handleGetProject)
	mux.HandleFunc("GET /api/projects-overview", a.handleProjectsOverview)
	mux.HandleFunc("GET /api/index/status", a.handleIndexStatus)
	mux.HandleFunc("POST /api/index/rebuild", a.handleIndexRebuild)
	mux.HandleFunc("GET /api/jobs", a.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", a.handleGetJob)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.metrics.Snapshot())
	})

	return HTTPLoggingMiddleware(a.logger, mux)
}

// NewHTTPServer creates an http.Server with timeouts sized for model calls.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // Long for LLM responses
		IdleTimeout:  120 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func (a *API) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	var req service.RoadmapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "Missing topic parameter")
		return
	}

	roadmap, failure := a.orchestrator.GenerateRoadmap(r.Context(), req)
	if failure != nil {
		writeJSON(w, statusFor(failure.Kind), failure)
		return
	}
	writeJSON(w, http.StatusOK, roadmap)
}

func (a *API) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req service.QuizRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "Missing topic parameter")
		return
	}

	quiz, failure := a.orchestrator.GenerateQuiz(r.Context(), req)
	if failure != nil {
		writeJSON(w, statusFor(failure.Kind), failure)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Summary string `json:"summary"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Summary == "" {
		writeError(w, http.StatusBadRequest, "Missing summary parameter")
		return
	}

	records, err := a.orchestrator.Recommendations(r.Context(), req.Summary)
	if err != nil {
		a.writeFailure(w, "generate resources", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) handleRank(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic         string `json:"topic"`
		RankingMethod string `json:"rankingMethod"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "Missing topic parameter")
		return
	}

	ranked, used, err := a.orchestrator.RankResources(r.Context(), req.Topic, req.RankingMethod)
	if err != nil {
		a.writeFailure(w, "rank resources", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"topic":            req.Topic,
		"rankingAlgorithm": used,
		"resources":        ranked,
	})
}

func (a *API) handleGetProject(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "Missing project title parameter")
		return
	}

	project, err := a.projects.GetProject(r.Context(), title)
	if err != nil {
		a.writeFailure(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (a *API) handleProjectsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := a.projects.Overview(r.Context())
	if err != nil {
		a.writeFailure(w, "get projects overview", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (a *API) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.index.Status())
}

// handleIndexRebuild rebuilds synchronously, or starts a background job and
// answers 202 when async=true. Large collections can outlast the write timeout,
// so clients embedding many records should use the async form.
func (a *API) handleIndexRebuild(w http.ResponseWriter, r *http.Request) {
	collections := models.AllCollections()
	if name := r.URL.Query().Get("collection"); name != "" {
		c, err := models.ParseCollection(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		collections = []models.Collection{c}
	}

	if r.URL.Query().Get("async") == "true" {
		job := a.jobs.StartRebuild(context.WithoutCancel(r.Context()), collections)
		writeJSON(w, http.StatusAccepted, job.Snapshot())
		return
	}

	var errs []error
	for _, c := range collections {
		if _, err := a.index.Rebuild(r.Context(), c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		writeJSON(w, http.StatusInternalServerError, service.NewErrorResult("rebuild index", err))
		return
	}
	writeJSON(w, http.StatusOK, a.index.Status())
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.jobs.ListJobs())
}

func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := a.jobs.GetJob(r.PathValue("id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *API) writeFailure(w http.ResponseWriter, action string, err error) {
	result := service.NewErrorResult(action, err)
	a.logger.Warn("request failed", "action", action, "kind", result.Kind, "error", err)
	writeJSON(w, statusFor(result.Kind), result)
}

// statusFor maps an error kind onto an HTTP status. Input errors detected
// before the orchestrator are answered with 400 by the handlers themselves.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorKindNotFound:
		return http.StatusNotFound
	case models.ErrorKindInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

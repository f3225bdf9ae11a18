package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/config"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/ranking"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/retrieval"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoCompleter answers topic validation with the quoted topic and every
// other prompt with reply.
type echoCompleter struct {
	reply string
	calls int
}

func (e *echoCompleter) Generate(_ context.Context, prompt string) (string, error) {
	e.calls++
	if strings.HasPrefix(prompt, "You are an AI that helps validate") {
		start := strings.Index(prompt, `"`)
		end := strings.Index(prompt[start+1:], `"`)
		return prompt[start+1 : start+1+end], nil
	}
	return e.reply, nil
}

type stubRetriever struct {
	resources []models.Record
	projects  []models.Record
	err       error
}

func (s *stubRetriever) Resources(context.Context, string) ([]models.Record, error) {
	return s.resources, s.err
}

func (s *stubRetriever) Questions(context.Context, string, string, []string) ([]models.Record, error) {
	return nil, s.err
}

func (s *stubRetriever) ProjectByTitle(_ context.Context, title string) (models.Record, error) {
	for _, p := range s.projects {
		if strings.EqualFold(p.Title, title) {
			return p, nil
		}
	}
	return models.Record{}, retrieval.ErrNotFound
}

func (s *stubRetriever) Records(context.Context, models.Collection) ([]models.Record, error) {
	return s.projects, nil
}

type stubIndex struct {
	rebuilt []models.Collection
	fail    bool
}

func (s *stubIndex) Status() []index.CollectionStatus {
	return []index.CollectionStatus{{Collection: models.CollectionResources, Loaded: true, Documents: 3}}
}

func (s *stubIndex) Rebuild(_ context.Context, c models.Collection) (*index.Index, error) {
	s.rebuilt = append(s.rebuilt, c)
	if s.fail {
		return nil, fmt.Errorf("%w: %s: embedder down", index.ErrRebuildFailed, c)
	}
	return &index.Index{Collection: c}, nil
}

func validRoadmap() string {
	var cps []string
	for i := 0; i < 5; i++ {
		cps = append(cps, fmt.Sprintf(`{"title": "Step %d", "description": "a\nb", "totalHoursNeeded": 4, "resources": [
			{"name": "a", "url": "https://a", "type": "video"},
			{"name": "b", "url": "https://b", "type": "article"},
			{"name": "c", "url": "https://c", "type": "course"}]}`, i+1))
	}
	return `{"mainTopic": "Go", "description": "Learn Go", "checkpoints": [` + strings.Join(cps, ",") + `]}`
}

func newTestAPI(c *echoCompleter, r *stubRetriever, idx *stubIndex) (*API, *metrics.Collector) {
	logger := config.DiscardLogger()
	mc := metrics.NewCollector()
	o := service.NewOrchestrator(c, r, ranking.NewRanker(nil, mc, logger), logger, service.WithMetrics(mc))
	return NewAPI(o, service.NewProjectService(r, r), idx, service.NewJobManager(idx, logger), mc, logger), mc
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGenerateRoadmapRoute(t *testing.T) {
	c := &echoCompleter{reply: validRoadmap()}
	api, _ := newTestAPI(c, &stubRetriever{resources: []models.Record{{Title: "Go", URL: "https://a"}}}, &stubIndex{})
	h := api.Handler()

	rec := do(t, h, http.MethodPost, "/api/generate-roadmap", `{"topic": "Go", "hoursPerDay": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roadmap := decode[models.Roadmap](t, rec)
	assert.Len(t, roadmap.Checkpoints, 5)
	assert.NotEmpty(t, roadmap.Checkpoints[0].DeadlineDate)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	t.Run("missing topic is rejected before any model call", func(t *testing.T) {
		calls := c.calls
		rec := do(t, h, http.MethodPost, "/api/generate-roadmap", `{"summary": "x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing topic parameter", decode[map[string]string](t, rec)["error"])
		assert.Equal(t, calls, c.calls)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/generate-roadmap", `{"topic":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/generate-roadmap", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestGenerateRoadmapRouteFailure(t *testing.T) {
	api, mc := newTestAPI(&echoCompleter{reply: `{"mainTopic": "Go", "checkpoints": []}`}, &stubRetriever{}, &stubIndex{})

	rec := do(t, api.Handler(), http.MethodPost, "/api/generate-roadmap", `{"topic": "Go"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	failure := decode[models.ErrorResult](t, rec)
	assert.Equal(t, models.ErrorKindValidation, failure.Kind)
	assert.True(t, strings.HasPrefix(failure.Error, "Failed to generate roadmap: "))
	assert.Equal(t, int64(1), mc.Count(metrics.CountGenerationFailed))

	api, _ = newTestAPI(&echoCompleter{}, &stubRetriever{err: index.ErrIndexUnavailable}, &stubIndex{})
	rec = do(t, api.Handler(), http.MethodPost, "/api/generate-roadmap", `{"topic": "Go"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, models.ErrorKindIndexUnavailable, decode[models.ErrorResult](t, rec).Kind)
}

func TestGenerateQuizRoute(t *testing.T) {
	api, _ := newTestAPI(&echoCompleter{}, &stubRetriever{}, &stubIndex{})
	rec := do(t, api.Handler(), http.MethodPost, "/api/generate-quiz", `{"domain": "CS"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendationsRoute(t *testing.T) {
	r := &stubRetriever{resources: []models.Record{
		{Title: "a", URL: "https://a", Difficulty: "intermediate"},
		{Title: "b", URL: "https://b", Difficulty: "beginner"},
	}}
	api, _ := newTestAPI(&echoCompleter{}, r, &stubIndex{})
	h := api.Handler()

	rec := do(t, h, http.MethodPost, "/api/generate-recommendations", `{"summary": "domain interests: go\nvisualLearning: 9.0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]models.Record](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Title)

	rec = do(t, h, http.MethodPost, "/api/generate-recommendations", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing summary parameter", decode[map[string]string](t, rec)["error"])
}

func TestRankResourcesRoute(t *testing.T) {
	r := &stubRetriever{resources: []models.Record{{Title: "Advanced Go", URL: "https://a"}, {Title: "Go Basics", URL: "https://b"}}}
	api, _ := newTestAPI(&echoCompleter{}, r, &stubIndex{})

	rec := do(t, api.Handler(), http.MethodPost, "/api/rank-resources", `{"topic": "Go", "rankingMethod": "rule-based"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		RankingAlgorithm string                  `json:"rankingAlgorithm"`
		Resources        []models.RankedResource `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rule-based", body.RankingAlgorithm)
	require.Len(t, body.Resources, 2)
	assert.Equal(t, "Go Basics", body.Resources[0].Title)
	assert.Equal(t, 1, body.Resources[0].Rank)

	rec = do(t, api.Handler(), http.MethodPost, "/api/rank-resources", `{"topic": "Go", "rankingMethod": "coin-flip"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectRoutes(t *testing.T) {
	r := &stubRetriever{projects: []models.Record{{Title: "Weather App", Link: "https://w", Checkpoints: []models.ProjectCheckpoint{
		{Checkpoint: "# Intro", Content: []models.ProjectItem{{Type: "p", Text: "**hello**"}}},
	}}}}
	api, _ := newTestAPI(&echoCompleter{}, r, &stubIndex{})
	h := api.Handler()

	rec := do(t, h, http.MethodGet, "/api/get-project?title=weather%20app", "")
	require.Equal(t, http.StatusOK, rec.Code)
	project := decode[models.Project](t, rec)
	assert.Equal(t, "Intro", project.Content[0].Title)
	assert.Equal(t, "hello", project.Content[0].Elements[0].Content)

	rec = do(t, h, http.MethodGet, "/api/get-project", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing project title parameter", decode[map[string]string](t, rec)["error"])

	rec = do(t, h, http.MethodGet, "/api/get-project?title=Chess", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[models.ErrorResult](t, rec).Error, "not found")

	rec = do(t, h, http.MethodGet, "/api/projects-overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[[]models.ProjectOverview](t, rec)
	require.Len(t, overview, 1)
	assert.Equal(t, "https://w", overview[0].Link)
}

func TestIndexRoutes(t *testing.T) {
	idx := &stubIndex{}
	api, _ := newTestAPI(&echoCompleter{}, &stubRetriever{}, idx)
	h := api.Handler()

	rec := do(t, h, http.MethodGet, "/api/index/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]index.CollectionStatus](t, rec), 1)

	rec = do(t, h, http.MethodPost, "/api/index/rebuild?collection=questions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.Collection{models.CollectionQuestions}, idx.rebuilt)

	idx.rebuilt = nil
	rec = do(t, h, http.MethodPost, "/api/index/rebuild", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AllCollections(), idx.rebuilt)

	rec = do(t, h, http.MethodPost, "/api/index/rebuild?collection=videos", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	idx.fail = true
	rec = do(t, h, http.MethodPost, "/api/index/rebuild?collection=resources", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[models.ErrorResult](t, rec).Error, "embedder down")
}

func TestAsyncRebuildJob(t *testing.T) {
	api, _ := newTestAPI(&echoCompleter{}, &stubRetriever{}, &stubIndex{})
	h := api.Handler()

	rec := do(t, h, http.MethodPost, "/api/index/rebuild?collection=projects&async=true", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	job := decode[*service.Job](t, rec)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, 1, job.Total)

	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/api/jobs/"+job.ID, "")
		var got struct {
			Status service.JobStatus `json:"status"`
		}
		return rec.Code == http.StatusOK &&
			json.Unmarshal(rec.Body.Bytes(), &got) == nil &&
			got.Status == service.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	rec = do(t, h, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.Job](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/api/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, config.DiscardLogger()) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHealthAndStats(t *testing.T) {
	api, mc := newTestAPI(&echoCompleter{}, &stubRetriever{}, &stubIndex{})
	mc.Inc(metrics.CountRankFallback)
	h := api.Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[metrics.Snapshot](t, rec).Counters[metrics.CountRankFallback])
}

func TestHTTPLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := config.SetupLoggerWithWriters(&buf, &bytes.Buffer{}, -4)
	h := HTTPLoggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	do(t, h, http.MethodGet, "/fine?x=1", "")
	do(t, h, http.MethodGet, "/boom", "")

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "status=204")
	assert.Contains(t, out, `query="x=1"`)
	assert.Contains(t, out, "request failed")
	assert.Contains(t, out, "status=500")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(models.ErrorKindNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(models.ErrorKindInput))
	assert.Equal(t, http.StatusInternalServerError, statusFor(models.ErrorKindOracleUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(models.ErrorKind("")))
	assert.True(t, errors.Is(fmt.Errorf("x: %w", retrieval.ErrNotFound), service.ErrNotFound))
}

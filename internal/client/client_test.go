package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("ADAPTED_SERVER_URL", "")
	t.Setenv("ADAPTED_CLIENT_TIMEOUT", "")
	c := New("")
	assert.Equal(t, "http://localhost:8000", c.Endpoint())

	t.Setenv("ADAPTED_SERVER_URL", "http://api.internal:9000/")
	t.Setenv("ADAPTED_CLIENT_TIMEOUT", "30s")
	c = New("")
	assert.Equal(t, "http://api.internal:9000", c.Endpoint())
	assert.Equal(t, "30s", c.httpClient.Timeout.String())
}

func TestGenerateRoadmap(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate-roadmap", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		var req service.RoadmapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Go", req.Topic)
		assert.Equal(t, 2.0, req.HoursPerDay)

		_ = json.NewEncoder(w).Encode(models.Roadmap{MainTopic: "Go", Checkpoints: make([]models.Checkpoint, 5)})
	})

	roadmap, err := c.GenerateRoadmap(t.Context(), service.RoadmapRequest{Topic: "Go", HoursPerDay: 2})
	require.NoError(t, err)
	assert.Equal(t, "Go", roadmap.MainTopic)
	assert.Len(t, roadmap.Checkpoints, 5)
}

func TestErrorResponses(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get-project":
			assert.Equal(t, "Chess Engine", r.URL.Query().Get("title"))
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.ErrorResult{Error: "Failed to get project: not found", Kind: models.ErrorKindNotFound})
		case "/api/generate-quiz":
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Missing topic parameter"})
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	})

	_, err := c.GetProject(t.Context(), "Chess Engine")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, models.ErrorKindNotFound, apiErr.Kind)

	_, err = c.GenerateQuiz(t.Context(), service.QuizRequest{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Missing topic parameter", apiErr.Message)
	assert.False(t, IsNotFound(err))

	_, err = c.Stats(t.Context())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "boom", apiErr.Message)
	assert.EqualError(t, err, "server error 502: boom")
}

func TestIndexCalls(t *testing.T) {
	var rebuilt string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/index/rebuild":
			rebuilt = r.URL.Query().Get("collection")
		case "/health":
			_, _ = w.Write([]byte("ok\n"))
			return
		}
		_, _ = w.Write([]byte(`[{"collection": "resources", "loaded": true, "documents": 12, "stale": false}]`))
	})

	status, err := c.IndexStatus(t.Context())
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, 12, status[0].Documents)

	_, err = c.RebuildIndex(t.Context(), "questions")
	require.NoError(t, err)
	assert.Equal(t, "questions", rebuilt)

	require.NoError(t, c.Health(t.Context()))
}

func TestJobCalls(t *testing.T) {
	var query url.Values
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/index/rebuild":
			query = r.URL.Query()
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"id": "ab12cd34", "status": "pending", "total": 1}`))
		case r.URL.Path == "/api/jobs":
			_, _ = w.Write([]byte(`[{"id": "ab12cd34", "status": "completed"}]`))
		case r.URL.Path == "/api/jobs/ab12cd34":
			_, _ = w.Write([]byte(`{"id": "ab12cd34", "status": "completed", "progress": 1, "total": 1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "job not found"}`))
		}
	})

	job, err := c.RebuildIndexAsync(t.Context(), "projects")
	require.NoError(t, err)
	assert.Equal(t, "ab12cd34", job.ID)
	assert.Equal(t, "true", query.Get("async"))
	assert.Equal(t, "projects", query.Get("collection"))

	job, err = c.GetJob(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, service.JobStatusCompleted, job.Status)

	jobs, err := c.ListJobs(t.Context())
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	_, err = c.GetJob(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

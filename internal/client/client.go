// Package client provides an HTTP client for the adapted server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
)

// RequestIDHeader carries a client-generated id the server logs with the request.
const RequestIDHeader = "X-Request-Id"

// Client talks to the adapted HTTP API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new client.
// If endpoint is empty, uses ADAPTED_SERVER_URL env var or defaults to localhost:8000.
// Timeout can be configured via ADAPTED_CLIENT_TIMEOUT env var (default 5m, generation waits on the model).
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("ADAPTED_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8000"
	}

	timeout := 5 * time.Minute
	if t := os.Getenv("ADAPTED_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Kind    models.ErrorKind
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// do sends a request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// decodeError reads either an ErrorResult or a {"error": ...} body.
func decodeError(status int, data []byte) error {
	var result models.ErrorResult
	if err := json.Unmarshal(data, &result); err == nil && result.Error != "" {
		return &APIError{Status: status, Kind: result.Kind, Message: result.Error}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(data))}
}

// RankResult is the rank-resources response.
type RankResult struct {
	Topic            string                  `json:"topic"`
	RankingAlgorithm string                  `json:"rankingAlgorithm"`
	Resources        []models.RankedResource `json:"resources"`
}

// GenerateRoadmap requests a roadmap.
func (c *Client) GenerateRoadmap(ctx context.Context, req service.RoadmapRequest) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	if err := c.do(ctx, http.MethodPost, "/api/generate-roadmap", req, &roadmap); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// GenerateQuiz requests a quiz.
func (c *Client) GenerateQuiz(ctx context.Context, req service.QuizRequest) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := c.do(ctx, http.MethodPost, "/api/generate-quiz", req, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Recommendations requests resources for a learner summary.
func (c *Client) Recommendations(ctx context.Context, summary string) ([]models.Record, error) {
	var records []models.Record
	body := map[string]string{"summary": summary}
	if err := c.do(ctx, http.MethodPost, "/api/generate-recommendations", body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RankResources requests a ranked resource list.
func (c *Client) RankResources(ctx context.Context, topic, method string) (*RankResult, error) {
	var result RankResult
	body := map[string]string{"topic": topic, "rankingMethod": method}
	if err := c.do(ctx, http.MethodPost, "/api/rank-resources", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProject fetches a formatted project by title.
func (c *Client) GetProject(ctx context.Context, title string) (*models.Project, error) {
	var project models.Project
	path := "/api/get-project?" + url.Values{"title": {title}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ProjectsOverview lists all projects.
func (c *Client) ProjectsOverview(ctx context.Context) ([]models.ProjectOverview, error) {
	var overview []models.ProjectOverview
	if err := c.do(ctx, http.MethodGet, "/api/projects-overview", nil, &overview); err != nil {
		return nil, err
	}
	return overview, nil
}

// IndexStatus reports per-collection index state.
func (c *Client) IndexStatus(ctx context.Context) ([]index.CollectionStatus, error) {
	var status []index.CollectionStatus
	if err := c.do(ctx, http.MethodGet, "/api/index/status", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// RebuildIndex rebuilds one collection, or all when collection is empty.
func (c *Client) RebuildIndex(ctx context.Context, collection string) ([]index.CollectionStatus, error) {
	path := "/api/index/rebuild"
	if collection != "" {
		path += "?" + url.Values{"collection": {collection}}.Encode()
	}
	var status []index.CollectionStatus
	if err := c.do(ctx, http.MethodPost, path, nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// RebuildIndexAsync starts a background rebuild and returns the job without
// waiting for it.
func (c *Client) RebuildIndexAsync(ctx context.Context, collection string) (*service.Job, error) {
	q := url.Values{"async": {"true"}}
	if collection != "" {
		q.Set("collection", collection)
	}
	var job service.Job
	if err := c.do(ctx, http.MethodPost, "/api/index/rebuild?"+q.Encode(), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob fetches a rebuild job by id.
func (c *Client) GetJob(ctx context.Context, id string) (*service.Job, error) {
	var job service.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs lists recent rebuild jobs, newest first.
func (c *Client) ListJobs(ctx context.Context) ([]service.Job, error) {
	var jobs []service.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Stats fetches pipeline statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

// maxFinishedJobs bounds how many completed or failed jobs are remembered.
const maxFinishedJobs = 50

// JobStatus represents the state of a background job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Finished reports whether the job has reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// RebuildOutcome is the result of rebuilding one collection within a job.
type RebuildOutcome struct {
	Collection models.Collection `json:"collection"`
	Documents  int               `json:"documents"`
	DurationMs int64             `json:"durationMs"`
	Error      string            `json:"error,omitempty"`
}

// Job is a background index rebuild over one or more collections.
type Job struct {
	ID          string              `json:"id"`
	Status      JobStatus           `json:"status"`
	Collections []models.Collection `json:"collections"`
	Progress    int                 `json:"progress"`
	Total       int                 `json:"total"`
	Results     []RebuildOutcome    `json:"results"`
	Error       string              `json:"error,omitempty"`
	StartedAt   time.Time           `json:"startedAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`

	mu sync.RWMutex
}

// Snapshot returns a thread-safe copy of job state.
func (j *Job) Snapshot() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Collections: slices.Clone(j.Collections),
		Progress:    j.Progress,
		Total:       j.Total,
		Results:     slices.Clone(j.Results),
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// Rebuilder rebuilds one collection's index.
type Rebuilder interface {
	Rebuild(ctx context.Context, c models.Collection) (*index.Index, error)
}

// JobManager runs and tracks background rebuild jobs.
type JobManager struct {
	rebuilder Rebuilder
	logger    *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobManager creates a new job manager.
func NewJobManager(r Rebuilder, logger *slog.Logger) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		rebuilder: r,
		logger:    logger,
		jobs:      make(map[string]*Job),
	}
}

// StartRebuild creates a job and rebuilds the collections one after another in
// the background. Cancelling ctx stops the job after the current collection.
// A failed collection does not stop the others.
func (m *JobManager) StartRebuild(ctx context.Context, collections []models.Collection) *Job {
	job := &Job{
		ID:          uuid.New().String()[:8],
		Status:      JobStatusPending,
		Collections: slices.Clone(collections),
		Total:       len(collections),
		Results:     []RebuildOutcome{},
		StartedAt:   time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.pruneLocked()
	m.mu.Unlock()

	m.logger.Info("job created", "job_id", job.ID, "collections", collections)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("rebuild job panicked", "job_id", job.ID, "panic", r)
				m.finish(job, fmt.Errorf("internal panic: %v", r))
			}
		}()
		m.run(ctx, job)
	}()

	return job
}

func (m *JobManager) run(ctx context.Context, job *Job) {
	job.mu.Lock()
	job.Status = JobStatusRunning
	job.mu.Unlock()

	failed := 0
	for _, c := range job.Collections {
		if err := ctx.Err(); err != nil {
			m.finish(job, fmt.Errorf("cancelled before %s: %w", c, err))
			return
		}

		start := time.Now()
		idx, err := m.rebuilder.Rebuild(ctx, c)
		outcome := RebuildOutcome{Collection: c, DurationMs: time.Since(start).Milliseconds()}
		if idx != nil {
			outcome.Documents = idx.Len()
		}
		if err != nil {
			outcome.Error = err.Error()
			failed++
		}

		job.mu.Lock()
		job.Results = append(job.Results, outcome)
		job.Progress++
		job.mu.Unlock()
	}

	if failed > 0 {
		m.finish(job, fmt.Errorf("%d of %d collections failed to rebuild", failed, job.Total))
		return
	}
	m.finish(job, nil)
}

// finish marks the job completed, or failed when err is non-nil.
func (m *JobManager) finish(job *Job, err error) {
	job.mu.Lock()
	now := time.Now()
	job.CompletedAt = &now
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = JobStatusCompleted
	}
	job.mu.Unlock()

	if err != nil {
		m.logger.Error("job failed", "job_id", job.ID, "error", err)
		return
	}
	m.logger.Info("job completed", "job_id", job.ID, "collections", job.Total)
}

// GetJob returns a snapshot of a job, or nil if unknown.
func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	job := m.jobs[id]
	m.mu.RUnlock()
	if job == nil {
		return nil
	}
	return job.Snapshot()
}

// ListJobs returns snapshots of all jobs, most recent first.
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job.Snapshot())
	}
	m.mu.RUnlock()

	slices.SortFunc(jobs, func(a, b *Job) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return jobs
}

// pruneLocked drops the oldest finished jobs beyond maxFinishedJobs.
func (m *JobManager) pruneLocked() {
	var finished []*Job
	for _, job := range m.jobs {
		job.mu.RLock()
		if job.Status.Finished() {
			finished = append(finished, job)
		}
		job.mu.RUnlock()
	}
	if len(finished) <= maxFinishedJobs {
		return
	}
	slices.SortFunc(finished, func(a, b *Job) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	for _, job := range finished[:len(finished)-maxFinishedJobs] {
		delete(m.jobs, job.ID)
	}
}

package index

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Refresher periodically rebuilds stale collections in the background.
type Refresher struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewRefresher creates a refresher that checks staleness every interval.
func NewRefresher(m *Manager, interval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Refresher{
		manager:  m,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the first check immediately and then one per interval until ctx
// is canceled or Stop is called.
func (r *Refresher) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.run(ctx)
}

// Stop ends the loop and waits for an in-progress check to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	if r.started.Load() {
		<-r.done
	}
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	r.logger.Info("index refresher started", "interval", r.interval.String())
	r.check(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("index refresher stopped")
			return
		case <-ticker.C:
			r.check(ctx)
		}
	}
}

func (r *Refresher) check(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("index refresh panicked", "panic", rec)
		}
	}()
	if err := r.manager.Refresh(ctx); err != nil && ctx.Err() == nil {
		r.logger.Warn("index refresh incomplete", "error", err)
	}
}

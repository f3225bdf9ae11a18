package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/parser"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrIndexUnavailable means no index exists and none could be built.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrRebuildFailed wraps any failure during a rebuild. Nothing is changed when it is returned.
	ErrRebuildFailed = errors.New("index rebuild failed")
	// ErrNoRecords means the record store returned nothing to index.
	ErrNoRecords = errors.New("no records to index")
)

// Embedder produces vectors for documents and queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Dimension() int
}

// Config controls index storage, staleness and rebuild batching.
type Config struct {
	Dir            string
	LedgerPath     string
	UpdateInterval time.Duration
	Chunk          parser.ChunkConfig
	BatchSize      int
	Concurrency    int
}

// CollectionStatus describes one collection's index.
type CollectionStatus struct {
	Collection models.Collection `json:"collection"`
	Loaded     bool              `json:"loaded"`
	Documents  int               `json:"documents"`
	Generation string            `json:"generation,omitempty"`
	Model      string            `json:"model,omitempty"`
	LastUpdate *time.Time        `json:"lastUpdate,omitempty"`
	Stale      bool              `json:"stale"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for staleness and build stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMetrics records rebuild timings and events.
func WithMetrics(mc *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = mc }
}

// Manager owns the lifecycle of every collection's index.
//
// Readers load a published *Index through an atomic pointer and never block on
// rebuilds. Rebuilds of one collection are collapsed with singleflight, and
// commits are serialized so the ledger file has a single writer.
type Manager struct {
	cfg      Config
	store    store.RecordStore
	embedder Embedder
	ledger   *Ledger
	metrics  *metrics.Collector
	logger   *slog.Logger
	now      func() time.Time

	indices  map[models.Collection]*atomic.Pointer[Index]
	group    singleflight.Group
	commitMu sync.Mutex
}

// NewManager creates a manager. The ledger is loaded immediately; indices are
// loaded lazily on first use.
func NewManager(cfg Config, rs store.RecordStore, embedder Embedder, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Chunk.Size == 0 {
		cfg.Chunk = parser.DefaultChunkConfig()
	}

	m := &Manager{
		cfg:      cfg,
		store:    rs,
		embedder: embedder,
		ledger:   LoadLedger(cfg.LedgerPath, logger),
		logger:   logger,
		now:      time.Now,
		indices:  make(map[models.Collection]*atomic.Pointer[Index]),
	}
	for _, c := range models.AllCollections() {
		m.indices[c] = &atomic.Pointer[Index]{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) slot(c models.Collection) (*atomic.Pointer[Index], error) {
	p, ok := m.indices[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	return p, nil
}

// GetIndex returns the current index of c.
//
// The in-memory index is preferred, then the persisted artifact. Only when
// neither exists is a rebuild attempted. A stale index is served as is with a
// warning; refreshing it is the Refresher's job.
func (m *Manager) GetIndex(ctx context.Context, c models.Collection) (*Index, error) {
	p, err := m.slot(c)
	if err != nil {
		return nil, err
	}
	if idx := p.Load(); idx != nil {
		m.warnIfStale(c)
		return idx, nil
	}

	idx, _, err := m.shared(ctx, "get:"+string(c), func(ctx context.Context) (*Index, error) {
		if idx := p.Load(); idx != nil {
			return idx, nil
		}
		if idx := m.loadPersisted(c); idx != nil {
			p.Store(idx)
			return idx, nil
		}
		m.logger.Info("no index found, building", "collection", c)
		idx, err := m.Rebuild(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrIndexUnavailable, c, err)
		}
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	m.warnIfStale(c)
	return idx, nil
}

// shared runs fn once per key across concurrent callers. fn gets a context
// that outlives any single caller, so one caller giving up does not cancel
// the work for the others; that caller just stops waiting.
func (m *Manager) shared(ctx context.Context, key string, fn func(context.Context) (*Index, error)) (*Index, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		return res.Val.(*Index), res.Shared, nil
	}
}

func (m *Manager) loadPersisted(c models.Collection) *Index {
	path := artifactPath(m.cfg.Dir, c)
	idx, err := loadIndex(path)
	if err != nil {
		m.logger.Warn("persisted index unusable", "collection", c, "path", path, "error", err)
		return nil
	}
	if idx == nil {
		return nil
	}
	if idx.Model != m.embedder.Model() || (m.embedder.Dimension() > 0 && idx.Dimension != m.embedder.Dimension()) {
		m.logger.Warn("persisted index built with a different embedding model",
			"collection", c, "index_model", idx.Model, "index_dimension", idx.Dimension,
			"model", m.embedder.Model(), "dimension", m.embedder.Dimension())
		return nil
	}
	m.logger.Info("index loaded", "collection", c, "documents", idx.Len(), "generation", idx.Generation)
	return idx
}

func (m *Manager) warnIfStale(c models.Collection) {
	if !m.IsStale(c) {
		return
	}
	m.metrics.Inc(metrics.CountStaleIndexServed)
	last, ok := m.ledger.Get(c)
	attrs := []any{"collection", c, "update_interval", m.cfg.UpdateInterval.String()}
	if ok {
		attrs = append(attrs, "last_update", last.Format(time.RFC3339))
	}
	m.logger.Warn("serving stale index", attrs...)
}

// IsStale reports whether c was last rebuilt longer ago than the update
// interval. A collection with no ledger entry is always stale.
func (m *Manager) IsStale(c models.Collection) bool {
	last, ok := m.ledger.Get(c)
	if !ok {
		return true
	}
	return m.now().Sub(last) > m.cfg.UpdateInterval
}

// Rebuild reads every record of c, embeds it and publishes a new index.
//
// Concurrent calls for the same collection share one rebuild, which keeps
// running if the caller that started it goes away. On failure the
// previous index, its artifact and the ledger are left as they were.
func (m *Manager) Rebuild(ctx context.Context, c models.Collection) (*Index, error) {
	if _, err := m.slot(c); err != nil {
		return nil, err
	}
	idx, shared, err := m.shared(ctx, "rebuild:"+string(c), func(ctx context.Context) (*Index, error) {
		return m.rebuild(ctx, c)
	})
	if shared {
		m.logger.Debug("joined in-flight rebuild", "collection", c)
	}
	return idx, err
}

func (m *Manager) rebuild(ctx context.Context, c models.Collection) (*Index, error) {
	start := time.Now()
	m.logger.Info("rebuilding index", "collection", c)

	idx, err := m.build(ctx, c)
	if err == nil {
		err = m.commit(c, idx)
	}
	duration := time.Since(start)

	if err != nil {
		m.metrics.Inc(metrics.CountRebuildFailed)
		if errors.Is(err, ErrNoRecords) {
			m.logger.Warn("rebuild skipped, keeping existing index", "collection", c, "error", err)
		} else {
			m.logger.Error("rebuild failed, keeping existing index", "collection", c, "duration_ms", duration.Milliseconds(), "error", err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrRebuildFailed, c, err)
	}

	m.metrics.RecordTiming(metrics.OpIndexRebuild, duration)
	m.logger.Info("index rebuilt", "collection", c, "documents", idx.Len(),
		"generation", idx.Generation, "duration_ms", duration.Milliseconds())
	return idx, nil
}

func (m *Manager) build(ctx context.Context, c models.Collection) (*Index, error) {
	records, err := m.store.Records(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	docs, err := parser.BuildDocuments(c, records, m.cfg.Chunk)
	if err != nil {
		return nil, fmt.Errorf("build documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoRecords
	}

	vectors, err := m.embedAll(ctx, docs)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(docs))
	for i, d := range docs {
		entries[i] = Entry{Document: d, Vector: vectors[i]}
	}
	return &Index{
		Collection: c,
		BuiltAt:    m.now().UTC(),
		Generation: uuid.NewString(),
		Model:      m.embedder.Model(),
		Dimension:  m.embedder.Dimension(),
		Entries:    entries,
	}, nil
}

// embedAll embeds documents in fixed-size batches with bounded concurrency.
// The first failing batch cancels the rest.
func (m *Manager) embedAll(ctx context.Context, docs []models.Document) ([][]float32, error) {
	vectors := make([][]float32, len(docs))
	size := m.cfg.BatchSize
	dim := m.embedder.Dimension()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)

	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, d := range docs[start:end] {
				texts = append(texts, d.Text)
			}
			vecs, err := m.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed documents %d-%d: %w", start, end, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embed documents %d-%d: got %d vectors", start, end, len(vecs))
			}
			for i, v := range vecs {
				if dim > 0 && len(v) != dim {
					return fmt.Errorf("embed document %d: dimension %d, want %d", start+i, len(v), dim)
				}
				vectors[start+i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// commit persists the artifact, advances the ledger and publishes the index.
// The artifact path always holds a complete index: the new file replaces the
// old one by rename, and a failed ledger write puts the previous bytes back
// the same way.
func (m *Manager) commit(c models.Collection, idx *Index) error {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	path := artifactPath(m.cfg.Dir, c)
	previous, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read current index: %w", err)
	}
	hadPrevious := err == nil

	if err := saveIndex(path, idx); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	prev, hadEntry := m.ledger.Get(c)
	m.ledger.Advance(c, idx.BuiltAt)
	if err := m.ledger.Save(); err != nil {
		m.ledger.restore(c, prev, hadEntry)
		if hadPrevious {
			if rerr := writeFileAtomic(path, previous); rerr != nil {
				m.logger.Error("restore previous index failed", "collection", c, "path", path, "error", rerr)
			}
		} else {
			_ = os.Remove(path)
		}
		return fmt.Errorf("save ledger: %w", err)
	}

	m.indices[c].Store(idx)
	return nil
}

// Refresh rebuilds every stale collection. Failures are logged and joined;
// collections that fail keep serving their previous index.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []error
	for _, c := range models.AllCollections() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !m.IsStale(c) {
			m.logger.Debug("index fresh", "collection", c)
			continue
		}
		if _, err := m.Rebuild(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status reports every collection's index state without loading anything.
func (m *Manager) Status() []CollectionStatus {
	out := make([]CollectionStatus, 0, len(m.indices))
	for _, c := range models.AllCollections() {
		st := CollectionStatus{Collection: c, Stale: m.IsStale(c)}
		if last, ok := m.ledger.Get(c); ok {
			st.LastUpdate = &last
		}
		if idx := m.indices[c].Load(); idx != nil {
			st.Loaded = true
			st.Documents = idx.Len()
			st.Generation = idx.Generation
			st.Model = idx.Model
		}
		out = append(out, st)
	}
	return out
}

// Search embeds query and returns the k nearest documents of c.
func (m *Manager) Search(ctx context.Context, c models.Collection, query string, k int) ([]Hit, error) {
	idx, err := m.GetIndex(ctx, c)
	if err != nil {
		return nil, err
	}
	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return idx.Search(vec, k), nil
}

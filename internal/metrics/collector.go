// Package metrics collects in-memory timings and event counts for the pipeline.
package metrics

import (
	"maps"
	"sync"
	"time"
)

// stat tracks the count, sum and extremes of one observed quantity.
type stat[T ~int64] struct {
	n        int64
	sum      T
	min, max T
}

func (s *stat[T]) observe(v T) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.n++
	s.sum += v
}

func (s *stat[T]) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.n)
}

// opStats aggregates one operation. Token stats stay empty unless the
// operation reported usage.
type opStats struct {
	latency   stat[time.Duration]
	inTokens  stat[int64]
	outTokens stat[int64]
}

// OperationSnapshot is the reported view of one operation.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int64   `json:"minTimeMs"`
	MaxTimeMs   int64   `json:"maxTimeMs"`

	// Nil unless the operation reported token usage.
	TotalInputTokens  *int64   `json:"totalInputTokens,omitempty"`
	TotalOutputTokens *int64   `json:"totalOutputTokens,omitempty"`
	AvgInputTokens    *float64 `json:"avgInputTokens,omitempty"`
	AvgOutputTokens   *float64 `json:"avgOutputTokens,omitempty"`
	MinInputTokens    *int64   `json:"minInputTokens,omitempty"`
	MaxInputTokens    *int64   `json:"maxInputTokens,omitempty"`
	MinOutputTokens   *int64   `json:"minOutputTokens,omitempty"`
	MaxOutputTokens   *int64   `json:"maxOutputTokens,omitempty"`
}

// Snapshot is the pipeline statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptimeSeconds"`
	Embedding     *OperationSnapshot `json:"embedding,omitempty"`
	LLMGenerate   *OperationSnapshot `json:"llmGenerate,omitempty"`
	IndexRebuild  *OperationSnapshot `json:"indexRebuild,omitempty"`
	Retrieve      *OperationSnapshot `json:"retrieve,omitempty"`
	Rank          *OperationSnapshot `json:"rank,omitempty"`
	Generate      *OperationSnapshot `json:"generate,omitempty"`
	Counters      map[string]int64   `json:"counters,omitempty"`
}

// Operation names for timings.
const (
	OpEmbedding    = "embedding"
	OpLLMGenerate  = "llm_generate"
	OpIndexRebuild = "index_rebuild"
	OpRetrieve     = "retrieve"
	OpRank         = "rank"
	OpGenerate     = "generate"
)

// Counter names for discrete events.
const (
	CountRebuildFailed    = "index_rebuild_failed"
	CountStaleIndexServed = "stale_index_served"
	CountFallbackWidened  = "retrieval_fallback"
	CountRankFallback     = "rank_fallback"
	CountGenerationFailed = "generation_failed"
)

// Collector aggregates in-memory runtime statistics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	mu       sync.RWMutex
	started  time.Time
	ops      map[string]*opStats
	counters map[string]int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		started:  time.Now(),
		ops:      make(map[string]*opStats),
		counters: make(map[string]int64),
	}
}

// op returns the stats for name, creating them. Caller holds the write lock.
func (c *Collector) op(name string) *opStats {
	s := c.ops[name]
	if s == nil {
		s = &opStats{}
		c.ops[name] = s
	}
	return s
}

// RecordTiming records one run of op.
func (c *Collector) RecordTiming(op string, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.op(op).latency.observe(d)
	c.mu.Unlock()
}

// RecordLLMUsage records one model call with its token usage.
func (c *Collector) RecordLLMUsage(op string, d time.Duration, inputTokens, outputTokens int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	s := c.op(op)
	s.latency.observe(d)
	s.inTokens.observe(inputTokens)
	s.outTokens.observe(outputTokens)
	c.mu.Unlock()
}

// Inc bumps a named event counter.
func (c *Collector) Inc(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name]++
}

// Count returns the current value of a counter.
func (c *Collector) Count(name string) int64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[name]
}

func (s *opStats) snapshot() *OperationSnapshot {
	if s == nil || s.latency.n == 0 {
		return nil
	}
	snap := &OperationSnapshot{
		Count:       s.latency.n,
		TotalTimeMs: s.latency.sum.Milliseconds(),
		AvgTimeMs:   s.latency.mean() / float64(time.Millisecond),
		MinTimeMs:   s.latency.min.Milliseconds(),
		MaxTimeMs:   s.latency.max.Milliseconds(),
	}
	if s.inTokens.sum == 0 && s.outTokens.sum == 0 {
		return snap
	}
	in, out := s.inTokens, s.outTokens
	avgIn, avgOut := in.mean(), out.mean()
	snap.TotalInputTokens, snap.TotalOutputTokens = &in.sum, &out.sum
	snap.AvgInputTokens, snap.AvgOutputTokens = &avgIn, &avgOut
	snap.MinInputTokens, snap.MaxInputTokens = &in.min, &in.max
	snap.MinOutputTokens, snap.MaxOutputTokens = &out.min, &out.max
	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.started).Seconds(),
		Embedding:     c.ops[OpEmbedding].snapshot(),
		LLMGenerate:   c.ops[OpLLMGenerate].snapshot(),
		IndexRebuild:  c.ops[OpIndexRebuild].snapshot(),
		Retrieve:      c.ops[OpRetrieve].snapshot(),
		Rank:          c.ops[OpRank].snapshot(),
		Generate:      c.ops[OpGenerate].snapshot(),
		Counters:      maps.Clone(c.counters),
	}
}

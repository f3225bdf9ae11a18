// Package retrieval turns a topic into a deduplicated, bounded list of records.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/store"
)

// Search sizes and result caps.
const (
	ResourceK = 40
	QuestionK = 30
	ProjectK  = 10

	// MinResources triggers the topic keyspace fallback when fewer unique
	// resources come back from similarity search.
	MinResources = 15
	MaxResources = 20
	MaxQuestions = 15
)

// ErrNotFound is returned when a lookup by title finds no exact match.
var ErrNotFound = errors.New("not found")

// Searcher runs similarity search over a collection.
type Searcher interface {
	Search(ctx context.Context, c models.Collection, query string, k int) ([]index.Hit, error)
}

// Retriever fetches records relevant to a topic.
type Retriever struct {
	searcher Searcher
	topics   store.TopicIndex
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New creates a retriever. topics may be nil, which disables the resource fallback.
func New(searcher Searcher, topics store.TopicIndex, mc *metrics.Collector, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{searcher: searcher, topics: topics, metrics: mc, logger: logger}
}

// Retrieve returns the documents of c most similar to query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, c models.Collection, k int) ([]models.Document, error) {
	start := time.Now()
	hits, err := r.searcher.Search(ctx, c, query, k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", c, err)
	}
	r.metrics.RecordTiming(metrics.OpRetrieve, time.Since(start))

	docs := make([]models.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	return docs, nil
}

// Resources returns up to MaxResources unique resources for topic.
//
// When the topic keyspace knows the topic, similarity hits filed under
// unrelated keys are dropped, so "java" never yields javascript resources.
// When fewer than MinResources unique URLs remain, records under the matching
// keys are appended before deduplication.
func (r *Retriever) Resources(ctx context.Context, topic string) ([]models.Record, error) {
	docs, err := r.Retrieve(ctx, topic, models.CollectionResources, ResourceK)
	if err != nil {
		return nil, err
	}

	var match topicMatch
	if r.topics != nil {
		if match, err = r.matchTopic(ctx, topic); err != nil {
			r.logger.Warn("topic keyspace unavailable", "topic", topic, "error", err)
		}
	}

	records := recordsOf(docs)
	if match.found() {
		kept := match.filter(records)
		if dropped := len(records) - len(kept); dropped > 0 {
			r.logger.Debug("dropped resources filed under other topics", "topic", topic, "dropped", dropped)
		}
		records = kept
	}
	unique := Dedup(records, byKey(models.CollectionResources))

	if len(unique) < MinResources && match.found() {
		extra, err := r.topics.RecordsByTopicKeys(ctx, match.fallbackKeys()...)
		if err != nil {
			r.logger.Warn("topic fallback failed", "topic", topic, "error", err)
		} else if len(extra) > 0 {
			r.metrics.Inc(metrics.CountFallbackWidened)
			r.logger.Debug("widened resources from topic keyspace", "topic", topic, "found", len(unique), "added", len(extra))
			unique = Dedup(append(unique, extra...), byKey(models.CollectionResources))
		}
	}

	return truncate(unique, MaxResources), nil
}

// topicMatch is the part of the topic keyspace a query topic maps onto.
type topicMatch struct {
	exact string
	words []string
}

func (m topicMatch) found() bool { return m.exact != "" || len(m.words) > 0 }

// fallbackKeys prefers the exact key and widens to token matches only
// without one.
func (m topicMatch) fallbackKeys() []string {
	if m.exact != "" {
		return []string{m.exact}
	}
	return m.words
}

// allows reports whether rec may be served for the matched topic. Records
// that carry no topic at all are kept.
func (m topicMatch) allows(rec models.Record) bool {
	keys := make([]string, 0, len(rec.Topics)+1)
	if rec.TopicKey != "" {
		keys = append(keys, rec.TopicKey)
	}
	for _, t := range rec.Topics {
		if k := models.NormalizeTopicKey(t); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if k == m.exact || slices.Contains(m.words, k) {
			return true
		}
	}
	return false
}

func (m topicMatch) filter(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if m.allows(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// matchTopic finds the exact key and every key that matches on token
// boundaries.
func (r *Retriever) matchTopic(ctx context.Context, topic string) (topicMatch, error) {
	var m topicMatch
	normalized := models.NormalizeTopicKey(topic)
	if normalized == "" {
		return m, nil
	}
	keys, err := r.topics.TopicKeys(ctx)
	if err != nil {
		return m, fmt.Errorf("topic keys: %w", err)
	}
	for _, key := range keys {
		switch {
		case key == normalized:
			m.exact = key
		case MatchTopicKey(normalized, key):
			m.words = append(m.words, key)
		}
	}
	return m, nil
}

// Questions returns up to MaxQuestions unique questions for the given topic,
// difficulty and tags.
func (r *Retriever) Questions(ctx context.Context, topic, difficulty string, tags []string) ([]models.Record, error) {
	query := fmt.Sprintf("Topic: %s, Difficulty: %s, Tags: %s", topic, difficulty, strings.Join(tags, ", "))
	docs, err := r.Retrieve(ctx, query, models.CollectionQuestions, QuestionK)
	if err != nil {
		return nil, err
	}

	var questions []models.Record
	for _, rec := range recordsOf(docs) {
		if rec.Question != "" {
			questions = append(questions, rec)
		}
	}
	return truncate(Dedup(questions, byKey(models.CollectionQuestions)), MaxQuestions), nil
}

// ProjectByTitle returns the project whose title equals title, ignoring case.
func (r *Retriever) ProjectByTitle(ctx context.Context, title string) (models.Record, error) {
	docs, err := r.Retrieve(ctx, "Title: "+title, models.CollectionProjects, ProjectK)
	if err != nil {
		return models.Record{}, err
	}
	want := strings.TrimSpace(title)
	for _, d := range docs {
		if strings.EqualFold(strings.TrimSpace(d.Record.Title), want) {
			return d.Record, nil
		}
	}
	return models.Record{}, fmt.Errorf("%w: project %q", ErrNotFound, title)
}

// Dedup keeps the first record for every key. Records with an empty key are dropped.
func Dedup(records []models.Record, key func(models.Record) string) []models.Record {
	seen := make(map[string]bool, len(records))
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		k := key(rec)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, rec)
	}
	return out
}

// MatchTopicKey reports whether two normalized topic keys overlap on whole
// tokens: one key's underscore-separated tokens appear as a contiguous run in
// the other's. "java" does not match "javascript" but "machine_learning"
// matches "machine_learning_basics".
func MatchTopicKey(topic, key string) bool {
	if topic == "" || key == "" {
		return false
	}
	a, b := strings.Split(topic, "_"), strings.Split(key, "_")
	return containsRun(a, b) || containsRun(b, a)
}

func containsRun(haystack, needle []string) bool {
	if len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}

func byKey(c models.Collection) func(models.Record) string {
	return func(r models.Record) string { return r.Key(c) }
}

func recordsOf(docs []models.Document) []models.Record {
	out := make([]models.Record, len(docs))
	for i, d := range docs {
		out[i] = d.Record
	}
	return out
}

func truncate(records []models.Record, n int) []models.Record {
	if len(records) > n {
		return records[:n]
	}
	return records
}

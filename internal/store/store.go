// Package store provides read access to the raw records behind each collection.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

// ErrUnknownCollection is returned when no backend serves a collection.
var ErrUnknownCollection = errors.New("unknown collection")

// RecordStore returns the current records of a collection.
type RecordStore interface {
	Records(ctx context.Context, c models.Collection) ([]models.Record, error)
}

// TopicIndex exposes the normalized topic keyspace used by fallback lookups.
type TopicIndex interface {
	TopicKeys(ctx context.Context) ([]string, error)
	// RecordsByTopicKeys returns the records filed under any of keys, in key
	// order. A record filed under several keys appears once.
	RecordsByTopicKeys(ctx context.Context, keys ...string) ([]models.Record, error)
}

// Store is a RecordStore that also serves the topic keyspace.
type Store interface {
	RecordStore
	TopicIndex
}

// MultiStore routes each collection to its own backend.
type MultiStore struct {
	backends map[models.Collection]RecordStore
	topics   TopicIndex
}

// NewMultiStore creates a router. topics serves the resource keyspace.
func NewMultiStore(backends map[models.Collection]RecordStore, topics TopicIndex) *MultiStore {
	return &MultiStore{backends: backends, topics: topics}
}

// Records implements RecordStore.
func (m *MultiStore) Records(ctx context.Context, c models.Collection) ([]models.Record, error) {
	b, ok := m.backends[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	return b.Records(ctx, c)
}

// TopicKeys implements TopicIndex.
func (m *MultiStore) TopicKeys(ctx context.Context) ([]string, error) {
	if m.topics == nil {
		return nil, nil
	}
	return m.topics.TopicKeys(ctx)
}

// RecordsByTopicKeys implements TopicIndex.
func (m *MultiStore) RecordsByTopicKeys(ctx context.Context, keys ...string) ([]models.Record, error) {
	if m.topics == nil {
		return nil, nil
	}
	return m.topics.RecordsByTopicKeys(ctx, keys...)
}

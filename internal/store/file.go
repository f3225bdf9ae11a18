package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"gopkg.in/yaml.v3"
)

// FileStore reads collections from JSON or YAML files.
//
// A file holds either a flat list of records or a mapping of topic to record
// list. Files are re-read on every call so out-of-band edits are picked up by
// the next rebuild.
type FileStore struct {
	paths  map[models.Collection]string
	logger *slog.Logger
}

// NewFileStore creates a store over the given per-collection paths.
func NewFileStore(paths map[models.Collection]string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{paths: paths, logger: logger}
}

// Records implements RecordStore. A missing file is an empty collection.
func (s *FileStore) Records(ctx context.Context, c models.Collection) ([]models.Record, error) {
	groups, err := s.load(ctx, c)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	for _, key := range sortedKeys(groups) {
		records = append(records, groups[key]...)
	}
	return records, nil
}

// TopicKeys implements TopicIndex over the resources file.
func (s *FileStore) TopicKeys(ctx context.Context) ([]string, error) {
	groups, err := s.load(ctx, models.CollectionResources)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(groups)
	// Flat files have no keyspace.
	if len(keys) == 1 && keys[0] == "" {
		return nil, nil
	}
	return keys, nil
}

// RecordsByTopicKeys implements TopicIndex over the resources file.
func (s *FileStore) RecordsByTopicKeys(ctx context.Context, keys ...string) ([]models.Record, error) {
	groups, err := s.load(ctx, models.CollectionResources)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(keys))
	var out []models.Record
	for _, key := range keys {
		key = models.NormalizeTopicKey(key)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, groups[key]...)
	}
	return out, nil
}

// load returns records grouped by normalized topic key; flat files use "".
func (s *FileStore) load(ctx context.Context, c models.Collection) (map[string][]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, ok := s.paths[c]
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("record file not found, treating collection as empty", "collection", c, "path", path)
		return map[string][]models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s records: %w", c, err)
	}

	raw, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s records: %w", c, err)
	}

	groups := make(map[string][]models.Record)
	switch v := raw.(type) {
	case []any:
		groups[""] = toRecords(v, "")
	case map[string]any:
		for topic, items := range v {
			list, ok := items.([]any)
			if !ok {
				s.logger.Debug("skipping non-list topic entry", "collection", c, "topic", topic)
				continue
			}
			key := models.NormalizeTopicKey(topic)
			groups[key] = append(groups[key], toRecords(list, key)...)
		}
	case nil:
	default:
		return nil, fmt.Errorf("decode %s records: unexpected top-level %T", c, raw)
	}
	return groups, nil
}

func decode(path string, data []byte) (any, error) {
	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func toRecords(items []any, topicKey string) []models.Record {
	out := make([]models.Record, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r := models.NormalizeRecord(m)
		r.TopicKey = topicKey
		out = append(out, r)
	}
	return out
}

func sortedKeys(groups map[string][]models.Record) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

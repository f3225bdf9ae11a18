// Package index builds, persists and serves per-collection vector indices.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

// Entry is one embedded document.
type Entry struct {
	Document models.Document `json:"document"`
	Vector   []float32       `json:"vector"`
}

// Hit is a search result.
type Hit struct {
	Document models.Document
	Score    float64
}

// Index is an immutable snapshot of a collection's embedded documents.
// Once published it is never mutated; rebuilds produce a new value.
type Index struct {
	Collection models.Collection `json:"collection"`
	BuiltAt    time.Time         `json:"built_at"`
	Generation string            `json:"generation"`
	Model      string            `json:"model"`
	Dimension  int               `json:"dimension"`
	Entries    []Entry           `json:"entries"`
}

// Len returns the number of embedded documents.
func (idx *Index) Len() int {
	return len(idx.Entries)
}

// Search returns the k entries most similar to query, best first.
// Entries with equal scores keep their build order.
func (idx *Index) Search(query []float32, k int) []Hit {
	if k <= 0 || len(idx.Entries) == 0 {
		return nil
	}

	queryNorm := vectorNorm(query)
	hits := make([]Hit, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		if len(e.Vector) != len(query) {
			continue
		}
		hits = append(hits, Hit{
			Document: e.Document,
			Score:    cosineSimilarity(query, e.Vector, queryNorm),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func cosineSimilarity(a, b []float32, normA float64) float64 {
	if normA == 0 {
		return 0
	}
	normB := vectorNorm(b)
	if normB == 0 {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	sum := 0.0
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

// artifactPath is where a collection's index is persisted.
func artifactPath(dir string, c models.Collection) string {
	return filepath.Join(dir, string(c)+".index.json")
}

// loadIndex reads a persisted index. A missing file returns (nil, nil).
func loadIndex(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}

	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	for i, e := range idx.Entries {
		if idx.Dimension > 0 && len(e.Vector) != idx.Dimension {
			return nil, fmt.Errorf("index %s entry %d: dimension %d, want %d", path, i, len(e.Vector), idx.Dimension)
		}
	}
	return &idx, nil
}

// saveIndex writes the index to a temp file and renames it into place so a
// crash never leaves a partial artifact behind.
func saveIndex(path string, idx *Index) error {
	raw, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return writeFileAtomic(path, raw)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path. Readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

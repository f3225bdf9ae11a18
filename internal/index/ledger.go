package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

// Ledger records the last successful rebuild time of each collection.
// It is persisted as a JSON object of RFC3339 timestamps.
type Ledger struct {
	mu      sync.RWMutex
	path    string
	entries map[models.Collection]time.Time
}

// LoadLedger reads the ledger at path. A missing or unreadable file yields an
// empty ledger, which makes every collection maximally stale.
func LoadLedger(path string, logger *slog.Logger) *Ledger {
	l := &Ledger{path: path, entries: make(map[models.Collection]time.Time)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l
	}
	if err != nil {
		logger.Warn("ledger unreadable, treating all collections as stale", "path", path, "error", err)
		return l
	}

	var stored map[string]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		logger.Warn("ledger corrupt, treating all collections as stale", "path", path, "error", err)
		return l
	}
	for name, ts := range stored {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			logger.Warn("ledger entry unparseable", "collection", name, "value", ts, "error", err)
			continue
		}
		l.entries[models.Collection(name)] = t
	}
	return l
}

// Get returns the last update time of c and whether one is recorded.
func (l *Ledger) Get(c models.Collection) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.entries[c]
	return t, ok
}

// Advance records t for c unless it is older than the current entry.
// It reports whether the entry changed.
func (l *Ledger) Advance(c models.Collection, t time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.entries[c]; ok && !t.After(cur) {
		return false
	}
	l.entries[c] = t
	return true
}

// Save persists the ledger atomically.
func (l *Ledger) Save() error {
	l.mu.RLock()
	out := make(map[string]string, len(l.entries))
	for c, t := range l.entries {
		out[string(c)] = t.UTC().Format(time.RFC3339)
	}
	l.mu.RUnlock()

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return writeFileAtomic(l.path, raw)
}

// restore puts back an entry previously returned by Get.
func (l *Ledger) restore(c models.Collection, t time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ok {
		l.entries[c] = t
	} else {
		delete(l.entries, c)
	}
}

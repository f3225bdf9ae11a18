package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// tables maps collections to their SurrealDB tables.
var tables = map[models.Collection]string{
	models.CollectionResources: "resource",
	models.CollectionQuestions: "question",
	models.CollectionProjects:  "project",
}

// Records returns every record of a collection, oldest first.
func (c *Client) Records(ctx context.Context, coll models.Collection) ([]models.Record, error) {
	table, ok := tables[coll]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCollection, coll)
	}

	start := time.Now()
	sql := fmt.Sprintf("SELECT * FROM %s ORDER BY created ASC", table)
	results, err := surrealdb.Query[[]map[string]any](ctx, c.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, wrapQueryError(err))
	}

	var rows []map[string]any
	if results != nil && len(*results) > 0 {
		rows = (*results)[0].Result
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		r := models.NormalizeRecord(row)
		if id := recordID(row["id"]); id != "" {
			r.ID = id
		}
		records = append(records, r)
	}

	c.logger.Debug("loaded records", "collection", coll, "count", len(records), "duration_ms", time.Since(start).Milliseconds())
	return records, nil
}

// TopicKeys returns the normalized distinct topics of all resources.
func (c *Client) TopicKeys(ctx context.Context) ([]string, error) {
	results, err := surrealdb.Query[[][]string](ctx, c.db, "SELECT VALUE topics FROM resource WHERE topics != NONE", nil)
	if err != nil {
		return nil, fmt.Errorf("select topics: %w", wrapQueryError(err))
	}

	seen := make(map[string]bool)
	if results != nil && len(*results) > 0 {
		for _, topics := range (*results)[0].Result {
			for _, t := range topics {
				if key := models.NormalizeTopicKey(t); key != "" {
					seen[key] = true
				}
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// RecordsByTopicKeys returns resources tagged with any of the normalized
// topic keys, grouped in key order. Stored topics are free text, so the
// table is read once and matched after normalization.
func (c *Client) RecordsByTopicKeys(ctx context.Context, keys ...string) ([]models.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	all, err := c.Records(ctx, models.CollectionResources)
	if err != nil {
		return nil, err
	}

	rank := make(map[string]int, len(keys))
	for _, k := range keys {
		k = models.NormalizeTopicKey(k)
		if _, ok := rank[k]; !ok {
			rank[k] = len(rank)
		}
	}
	groups := make([][]models.Record, len(rank))
	for _, r := range all {
		best := -1
		for _, t := range r.Topics {
			key := models.NormalizeTopicKey(t)
			if i, ok := rank[key]; ok && (best < 0 || i < best) {
				best = i
				r.TopicKey = key
			}
		}
		if best >= 0 {
			groups[best] = append(groups[best], r)
		}
	}

	var out []models.Record
	for _, g := range groups {
		out = append(out, g...)
	}
	return out, nil
}

func recordID(v any) string {
	switch id := v.(type) {
	case surrealmodels.RecordID:
		s, _ := models.RecordIDString(id)
		return s
	case *surrealmodels.RecordID:
		if id != nil {
			s, _ := models.RecordIDString(*id)
			return s
		}
	case string:
		return id
	}
	return ""
}

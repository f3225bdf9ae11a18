package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/parser"
)

const previewLength = 500

// ErrInvalidScores is returned when the model reply cannot be mapped back onto the input.
var ErrInvalidScores = errors.New("invalid model scores")

// Completer turns a prompt into a text reply.
type Completer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelScored asks the completion model to score each resource's complexity.
type ModelScored struct {
	completer Completer
}

// NewModelScored creates a model-scored strategy.
func NewModelScored(c Completer) *ModelScored {
	return &ModelScored{completer: c}
}

type resourceProjection struct {
	Index   int      `json:"index"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Preview string   `json:"preview"`
	Tags    []string `json:"tags"`
}

type modelScore struct {
	Index         *int     `json:"index"`
	Complexity    float64  `json:"complexity"`
	Prerequisites []string `json:"prerequisites"`
	Difficulty    string   `json:"difficulty"`
	Reasoning     string   `json:"reasoning"`
}

// Rank implements Strategy.
func (m *ModelScored) Rank(ctx context.Context, resources []models.Record, topic string) ([]models.RankedResource, error) {
	if len(resources) == 0 {
		return []models.RankedResource{}, nil
	}

	prompt, err := scoringPrompt(resources, topic)
	if err != nil {
		return nil, err
	}
	reply, err := m.completer.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("score resources: %w", err)
	}

	scores, err := parseScores(reply, len(resources))
	if err != nil {
		return nil, err
	}
	return applyScores(resources, scores), nil
}

func scoringPrompt(resources []models.Record, topic string) (string, error) {
	items := make([]resourceProjection, len(resources))
	for i, r := range resources {
		body := r.Content
		if strings.TrimSpace(body) == "" {
			body = r.Description
		}
		items[i] = resourceProjection{
			Index:   i,
			Title:   r.Title,
			URL:     r.URL,
			Preview: models.FirstRunes(body, previewLength),
			Tags:    r.Tags,
		}
	}
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode resources: %w", err)
	}

	return fmt.Sprintf(`You are an expert curriculum designer ordering learning resources about %q.

For every resource below, estimate:
- complexity: a number from 1 (absolute beginner) to 100 (expert only)
- prerequisites: concepts a learner must already know
- difficulty: one of "beginner", "intermediate" or "advanced"
- reasoning: one sentence explaining the score

Resources:
%s

Respond with ONLY a JSON array, one object per resource, using the resource's index:
[{"index": 0, "complexity": 15, "prerequisites": ["..."], "difficulty": "beginner", "reasoning": "..."}]`, topic, payload), nil
}

// parseScores extracts and validates the model's score array. Every index must
// refer to an input resource and appear at most once.
func parseScores(reply string, n int) ([]modelScore, error) {
	raw, err := parser.ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScores, err)
	}

	var scores []modelScore
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidScores, err)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrInvalidScores)
	}

	seen := make(map[int]bool, len(scores))
	for i, s := range scores {
		if s.Index == nil {
			return nil, fmt.Errorf("%w: entry %d has no index", ErrInvalidScores, i)
		}
		idx := *s.Index
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidScores, idx, n)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrInvalidScores, idx)
		}
		seen[idx] = true
	}
	return scores, nil
}

// applyScores orders scored resources by ascending complexity and appends the
// ones the model skipped in input order, so ranks always cover the full input.
func applyScores(resources []models.Record, scores []modelScore) []models.RankedResource {
	sorted := make([]modelScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Complexity != sorted[j].Complexity {
			return sorted[i].Complexity < sorted[j].Complexity
		}
		return *sorted[i].Index < *sorted[j].Index
	})

	n := len(resources)
	ranked := make([]models.RankedResource, 0, n)
	scored := make(map[int]bool, len(sorted))
	for _, s := range sorted {
		idx := *s.Index
		scored[idx] = true
		ranked = append(ranked, models.RankedResource{
			Record:        resources[idx],
			Score:         s.Complexity,
			Difficulty:    normalizeTier(s.Difficulty, len(ranked), n),
			Reasoning:     s.Reasoning,
			Prerequisites: s.Prerequisites,
		})
	}
	for i, r := range resources {
		if scored[i] {
			continue
		}
		ranked = append(ranked, models.RankedResource{
			Record:     r,
			Difficulty: normalizeTier(r.Difficulty, len(ranked), n),
			Reasoning:  "not scored by model",
		})
	}

	for pos := range ranked {
		ranked[pos].Rank = pos + 1
	}
	return ranked
}

// normalizeTier accepts a known tier name and otherwise derives one from position.
func normalizeTier(tier string, pos, n int) string {
	switch t := strings.ToLower(strings.TrimSpace(tier)); t {
	case TierBeginner, TierIntermediate, TierAdvanced:
		return t
	}
	return tierFor(pos, n)
}

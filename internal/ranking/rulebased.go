// Package ranking orders resources from introductory to advanced.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/parser"
)

// Difficulty tiers.
const (
	TierBeginner     = "beginner"
	TierIntermediate = "intermediate"
	TierAdvanced     = "advanced"
)

const wordsPerMinute = 200

var (
	basicKeywords    = []string{"basics", "introduction", "beginner", "getting started", "101"}
	advancedKeywords = []string{"advanced", "expert", "mastering", "deep dive", "architecture"}
)

// Strategy orders resources by estimated complexity, simplest first.
type Strategy interface {
	Rank(ctx context.Context, resources []models.Record, topic string) ([]models.RankedResource, error)
}

// RuleBased scores resources from reading time, title keywords, document
// shape and tag overlap. It makes no external calls and is deterministic.
type RuleBased struct{}

// Rank implements Strategy. It never returns an error.
func (RuleBased) Rank(_ context.Context, resources []models.Record, topic string) ([]models.RankedResource, error) {
	return RankByRules(resources, topic), nil
}

// RankByRules scores and orders resources. Equal scores keep input order.
func RankByRules(resources []models.Record, topic string) []models.RankedResource {
	ranked := make([]models.RankedResource, len(resources))
	for i, r := range resources {
		score, signals := ruleScore(r, topic)
		ranked[i] = models.RankedResource{
			Record:    r,
			Score:     score,
			Reasoning: "rule-based: " + strings.Join(signals, ", "),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})

	n := len(ranked)
	for pos := range ranked {
		ranked[pos].Rank = pos + 1
		ranked[pos].Difficulty = tierFor(pos, n)
	}
	return ranked
}

func ruleScore(r models.Record, topic string) (float64, []string) {
	minutes := readingMinutes(r)
	score := float64(2 * minutes)
	signals := []string{fmt.Sprintf("%d min read (+%d)", minutes, 2*minutes)}

	title := strings.ToLower(r.Title)
	for _, kw := range basicKeywords {
		if strings.Contains(title, kw) {
			score -= 20
			signals = append(signals, fmt.Sprintf("basic keyword %q (-20)", kw))
		}
	}
	for _, kw := range advancedKeywords {
		if strings.Contains(title, kw) {
			score += 30
			signals = append(signals, fmt.Sprintf("advanced keyword %q (+30)", kw))
		}
	}

	if parser.OutlineOf(r.Content).LooksLikeOverview() {
		score -= 10
		signals = append(signals, "overview structure (-10)")
	}

	topic = strings.TrimSpace(topic)
	for _, tag := range r.Tags {
		if topic != "" && strings.EqualFold(strings.TrimSpace(tag), topic) {
			score -= 15
			signals = append(signals, "tagged with topic (-15)")
			break
		}
	}
	return score, signals
}

// readingMinutes estimates reading time from the body, or the description
// when there is no body.
func readingMinutes(r models.Record) int {
	text := r.Content
	if strings.TrimSpace(text) == "" {
		text = r.Description
	}
	words := len(strings.Fields(text))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// tierFor maps a sorted position onto thirds of the list.
func tierFor(pos, n int) string {
	switch {
	case pos*3 < n:
		return TierBeginner
	case pos*3 >= 2*n:
		return TierAdvanced
	default:
		return TierIntermediate
	}
}

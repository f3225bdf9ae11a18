package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/ranking"
)

// Recommendation tuning.
const (
	MaxRecommendations = 3
	// visualLearningThreshold separates learners served beginner material
	// from those served intermediate material.
	visualLearningThreshold = 5.0
)

var (
	wordPattern  = regexp.MustCompile(`\w+`)
	floatPattern = regexp.MustCompile(`\d+\.\d+`)
)

// LearnerProfile is what Recommendations reads from a learner summary.
type LearnerProfile struct {
	Interests      []string
	VisualLearning float64
}

// ParseLearnerSummary reads "domain interests: a, b" and "visualLearning: 6.5"
// lines from a free-text summary. Later lines override earlier ones.
func ParseLearnerSummary(summary string) LearnerProfile {
	var p LearnerProfile
	for _, line := range strings.Split(summary, "\n") {
		if strings.Contains(line, "domain interests") {
			if _, rest, ok := strings.Cut(line, ":"); ok {
				p.Interests = wordPattern.FindAllString(rest, -1)
			}
		}
		if strings.Contains(line, "visualLearning") {
			if m := floatPattern.FindString(line); m != "" {
				if f, err := strconv.ParseFloat(m, 64); err == nil {
					p.VisualLearning = f
				}
			}
		}
	}
	return p
}

// Difficulty maps the visual learning score onto the tier recommended first.
func (p LearnerProfile) Difficulty() string {
	if p.VisualLearning > visualLearningThreshold {
		return ranking.TierBeginner
	}
	return ranking.TierIntermediate
}

// Recommendations returns up to three resources matching the learner's
// interests at the difficulty their summary suggests.
func (o *Orchestrator) Recommendations(ctx context.Context, summary string) ([]models.Record, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("%w: missing summary", ErrInput)
	}
	profile := ParseLearnerSummary(summary)
	if len(profile.Interests) == 0 {
		return nil, fmt.Errorf("%w: summary names no domain interests", ErrInput)
	}

	topic := strings.Join(profile.Interests, " ")
	records, err := o.retriever.Resources(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("retrieve resources: %w", err)
	}

	difficulty := profile.Difficulty()
	out := make([]models.Record, 0, MaxRecommendations)
	for _, r := range records {
		if r.Difficulty != difficulty {
			continue
		}
		out = append(out, r)
		if len(out) == MaxRecommendations {
			break
		}
	}
	o.logger.Info("recommendations selected", "topic", topic, "difficulty", difficulty, "candidates", len(records), "count", len(out))
	return out, nil
}

// RankResources retrieves resources for a topic and orders them with the
// requested method, reporting the method that produced the order.
func (o *Orchestrator) RankResources(ctx context.Context, topic, method string) ([]models.RankedResource, ranking.Method, error) {
	topic = SanitizeInput(topic)
	if topic == "" {
		return nil, "", fmt.Errorf("%w: missing topic", ErrInput)
	}
	if o.ranker == nil {
		return nil, "", fmt.Errorf("%w: ranking is not configured", ErrInput)
	}
	if method == "" {
		method = o.defaultRanking
	}
	m, err := ranking.ParseMethod(method)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInput, err)
	}

	records, err := o.retriever.Resources(ctx, topic)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve resources: %w", err)
	}
	ranked, used := o.ranker.RankResources(ctx, records, topic, m)
	return ranked, used, nil
}

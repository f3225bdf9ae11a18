package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

// Method selects a ranking strategy.
type Method string

const (
	MethodModelScored Method = "model-scored"
	MethodRuleBased   Method = "rule-based"
)

// ParseMethod validates a method name. An empty name selects model scoring.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case "":
		return MethodModelScored, nil
	case MethodModelScored, MethodRuleBased:
		return m, nil
	}
	return "", fmt.Errorf("unknown ranking method: %q", s)
}

func (m Method) String() string { return string(m) }

// Ranker runs the requested strategy and falls back to rule-based ranking
// when model scoring fails for any reason.
type Ranker struct {
	model   Strategy
	rules   Strategy
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewRanker creates a ranker. A nil completer disables model scoring.
func NewRanker(c Completer, mc *metrics.Collector, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Ranker{rules: RuleBased{}, metrics: mc, logger: logger}
	if c != nil {
		r.model = NewModelScored(c)
	}
	return r
}

// RankResources orders resources and reports the method that produced the
// result. Ranks are always 1..N. It never fails.
func (r *Ranker) RankResources(ctx context.Context, resources []models.Record, topic string, method Method) ([]models.RankedResource, Method) {
	start := time.Now()
	defer func() { r.metrics.RecordTiming(metrics.OpRank, time.Since(start)) }()

	if len(resources) == 0 {
		return []models.RankedResource{}, method
	}

	if method != MethodRuleBased && r.model != nil {
		ranked, err := r.tryModel(ctx, resources, topic)
		if err == nil {
			return ranked, MethodModelScored
		}
		r.metrics.Inc(metrics.CountRankFallback)
		r.logger.Warn("model ranking failed, using rule-based ranking", "topic", topic, "resources", len(resources), "error", err)
	}

	return RankByRules(resources, topic), MethodRuleBased
}

func (r *Ranker) tryModel(ctx context.Context, resources []models.Record, topic string) (ranked []models.RankedResource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("model ranking panicked: %v", rec)
		}
	}()
	ranked, err = r.model.Rank(ctx, resources, topic)
	if err == nil && len(ranked) != len(resources) {
		err = fmt.Errorf("%w: ranked %d of %d resources", ErrInvalidScores, len(ranked), len(resources))
	}
	return ranked, err
}

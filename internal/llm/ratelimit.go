package llm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when no request slot frees up within the wait budget.
var ErrRateLimited = errors.New("rate limit wait budget exhausted")

// RateLimitConfig holds rate limiting configuration for model calls.
type RateLimitConfig struct {
	// Requests is the number of calls allowed per Window.
	Requests int
	Window   time.Duration
	// MaxWait caps a single sleep. Reservations further out are released and retried.
	MaxWait time.Duration
	// MaxRounds bounds how many reservations Wait attempts.
	MaxRounds int
}

// DefaultRateLimit allows requestsPerMinute calls per minute with a burst of the same size.
func DefaultRateLimit(requestsPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		Requests:  requestsPerMinute,
		Window:    time.Minute,
		MaxWait:   time.Minute,
		MaxRounds: 3,
	}
}

// RateLimiter is a token bucket in front of the completion oracle.
type RateLimiter struct {
	limiter   *rate.Limiter
	maxWait   time.Duration
	maxRounds int
	now       func() time.Time
}

// NewRateLimiter creates a rate limiter. A non-positive request count disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	limit := rate.Inf
	burst := cfg.Requests
	if cfg.Requests > 0 && cfg.Window > 0 {
		limit = rate.Every(cfg.Window / time.Duration(cfg.Requests))
	} else {
		burst = 1
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 1
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = cfg.Window
	}
	return &RateLimiter{
		limiter:   rate.NewLimiter(limit, burst),
		maxWait:   cfg.MaxWait,
		maxRounds: cfg.MaxRounds,
		now:       time.Now,
	}
}

// Wait blocks until a request slot is available.
//
// Each round reserves one token. A reservation due within MaxWait is slept on
// and honored. A later one is released, the limiter sleeps MaxWait and tries
// again. After MaxRounds rounds Wait gives up with ErrRateLimited.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for round := 0; round < r.maxRounds; round++ {
		now := r.now()
		res := r.limiter.ReserveN(now, 1)
		if !res.OK() {
			return ErrRateLimited
		}

		delay := res.DelayFrom(now)
		if delay <= 0 {
			return nil
		}

		sleep := delay
		if delay > r.maxWait {
			res.CancelAt(now)
			sleep = r.maxWait
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			if delay <= r.maxWait {
				res.CancelAt(r.now())
			}
			return err
		}
		if delay <= r.maxWait {
			return nil
		}
	}
	return ErrRateLimited
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LimitedCompleter waits on a RateLimiter before every call to the wrapped Completer.
type LimitedCompleter struct {
	next    Completer
	limiter *RateLimiter
}

// NewLimitedCompleter wraps next with a rate limiter.
func NewLimitedCompleter(next Completer, limiter *RateLimiter) *LimitedCompleter {
	return &LimitedCompleter{next: next, limiter: limiter}
}

// Generate implements Completer.
func (l *LimitedCompleter) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Generate(ctx, prompt)
}

package rateLimit

import (
	"context"
	"time"

	"github.com/robertarktes/securesubmit-bookings/internal/observability"
)

type Counter interface {
	IncrWindow(ctx context.Context, key string, period time.Duration) (int64, error)
}

type RateLimiter struct {
	counter Counter
	logger  observability.Logger
}

func NewRateLimiter(counter Counter, logger observability.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, logger: logger}
}

// Allow counts one hit against key in a fixed window. Requests pass when the
// counter store is unreachable.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	n, err := rl.counter.IncrWindow(ctx, "rl:"+key, period)
	if err != nil {
		rl.logger.WithError(err).Warn("rate limiter unavailable")
		return true
	}
	if n > int64(rate) {
		observability.RateLimitExceeded.Inc()
		return false
	}
	return true
}

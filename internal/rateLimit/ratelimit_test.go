package rateLimit

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/stretchr/testify/assert"
)

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) IncrWindow(ctx context.Context, key string, period time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.hits[key]++
	return f.hits[key], nil
}

func TestAllow(t *testing.T) {
	rl := NewRateLimiter(&fakeCounter{hits: map[string]int64{}}, observability.NopLogger())
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "1.2.3.4", 2, time.Minute))
	assert.True(t, rl.Allow(ctx, "1.2.3.4", 2, time.Minute))
	assert.False(t, rl.Allow(ctx, "1.2.3.4", 2, time.Minute))
	assert.True(t, rl.Allow(ctx, "5.6.7.8", 2, time.Minute))
}

func TestAllow_FailsOpen(t *testing.T) {
	rl := NewRateLimiter(&fakeCounter{err: errors.New("redis down")}, observability.NopLogger())
	assert.True(t, rl.Allow(context.Background(), "k", 1, time.Minute))
}

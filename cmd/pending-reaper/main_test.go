package main

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReaper struct{ mock.Mock }

func (m *MockReaper) ReapStale(ctx context.Context, ttl time.Duration) (int, error) {
	args := m.Called(ctx, ttl)
	return args.Int(0), args.Error(1)
}

func TestReaper_RetriesThenSucceeds(t *testing.T) {
	svc := new(MockReaper)
	svc.On("ReapStale", mock.Anything, 30*time.Minute).Return(0, errors.New("serialization failure")).Once()
	svc.On("ReapStale", mock.Anything, 30*time.Minute).Return(2, nil).Once()

	r := NewReaper(svc, 30*time.Minute, observability.NopLogger())
	r.backoff = 0

	assert.NoError(t, r.RunOnce(context.Background()))
	svc.AssertNumberOfCalls(t, "ReapStale", 2)
}

func TestReaper_GivesUp(t *testing.T) {
	svc := new(MockReaper)
	svc.On("ReapStale", mock.Anything, time.Minute).Return(0, errors.New("down"))

	r := NewReaper(svc, time.Minute, observability.NopLogger())
	r.backoff = 0

	assert.Error(t, r.RunOnce(context.Background()))
	svc.AssertNumberOfCalls(t, "ReapStale", 3)
}

package app

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/config"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/stretchr/testify/assert"
)

type staticSettings struct {
	values map[string]string
	err    error
}

func (s staticSettings) GatewaySettings(ctx context.Context, gateway string) (map[string]string, error) {
	return s.values, s.err
}

func TestLoadSettings(t *testing.T) {
	cfg := &config.Config{ProcessorCurrency: "usd", AnonymousBookings: true, BookingsApprovalRequired: true}
	logger := observability.NopLogger()

	got := LoadSettings(context.Background(), cfg, staticSettings{values: map[string]string{"manual_approval": "true"}}, logger)
	assert.True(t, got.ManualApproval)
	assert.True(t, got.AnonymousBookingsAllowed)

	got = LoadSettings(context.Background(), cfg, staticSettings{err: errors.New("redis down")}, logger)
	assert.False(t, got.ManualApproval)
	assert.Equal(t, "usd", got.Currency)
}

func TestNewNotifier_WithoutSMTP(t *testing.T) {
	n := NewNotifier(&config.Config{}, observability.NopLogger())
	_, ok := n.(logNotifier)
	assert.True(t, ok)
}

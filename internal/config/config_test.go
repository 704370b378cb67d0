package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "PROCESSOR_CURRENCY", "BOOKINGS_ANONYMOUS", "SMTP_PORT", "PENDING_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "usd", cfg.ProcessorCurrency)
	assert.Equal(t, "1740", cfg.ProcessorVersionNumber)
	assert.Equal(t, "002914", cfg.ProcessorDeveloperID)
	assert.True(t, cfg.AnonymousBookings)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 30*time.Minute, cfg.PendingTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("GATEWAY_MANUAL_APPROVAL", "true")
	t.Setenv("BOOKINGS_ANONYMOUS", "0")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("REAPER_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.ManualApproval)
	assert.False(t, cfg.AnonymousBookings)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 5*time.Minute, cfg.ReaperInterval)
}

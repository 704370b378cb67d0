package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssb_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	ChargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssb_charges_total",
			Help: "Charge attempts by outcome",
		},
		[]string{"outcome"},
	)

	ChargeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ssb_charge_duration_seconds",
			Help:    "Duration of processor charge calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	RollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssb_rollbacks_total",
			Help: "Rollbacks after failed charges by outcome",
		},
		[]string{"outcome"},
	)

	SettlementFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssb_settlement_failures_total",
			Help: "Settlement records that could not be persisted",
		},
	)

	VoidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssb_voids_total",
			Help: "Voided bookings by outcome",
		},
		[]string{"outcome"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ssb_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ssb_outbox_lag_seconds",
			Help: "Lag of outbox publishing",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssb_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)

	ReapedBookings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssb_reaped_bookings_total",
			Help: "Stale unpaid bookings deleted by the reaper",
		},
	)
)

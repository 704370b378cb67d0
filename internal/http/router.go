package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/robertarktes/securesubmit-bookings/internal/rateLimit"
)

const bookingsPerMinute = 30

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Route("/v1/bookings", func(r chi.Router) {
		r.With(RateLimitMiddleware(rl, bookingsPerMinute), IdempotencyMiddleware).Post("/", h.CreateBooking)
		r.Get("/{id}", h.GetBooking)
		r.Get("/{id}/transactions", h.ListTransactions)
		r.Get("/{id}/audit", h.BookingAudit)
		r.Post("/{id}/reject", h.RejectBooking)
		r.Post("/{id}/void", h.VoidBooking)
	})
	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

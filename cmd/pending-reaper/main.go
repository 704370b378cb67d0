package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-co-op/gocron/v2"
	"github.com/robertarktes/securesubmit-bookings/internal/app"
	"github.com/robertarktes/securesubmit-bookings/internal/config"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	stack, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to build stack: %v", err)
	}
	defer stack.Close(context.Background())

	reaper := NewReaper(stack.Service, cfg.PendingTTL, logger)

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.ReaperInterval),
		gocron.NewTask(func(ctx context.Context) {
			if err := reaper.RunOnce(ctx); err != nil {
				logger.WithError(err).Error("reaper run failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Fatalf("failed to schedule reaper: %v", err)
	}
	sched.Start()
	logger.WithField("interval", cfg.ReaperInterval.String()).Info("Pending reaper started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown pending reaper")
	if err := sched.Shutdown(); err != nil {
		logger.WithError(err).Warn("scheduler shutdown")
	}
}

type StaleReaper interface {
	ReapStale(ctx context.Context, ttl time.Duration) (int, error)
}

type Reaper struct {
	svc     StaleReaper
	ttl     time.Duration
	logger  observability.Logger
	retries int
	backoff time.Duration
}

func NewReaper(svc StaleReaper, ttl time.Duration, logger observability.Logger) *Reaper {
	return &Reaper{svc: svc, ttl: ttl, logger: logger, retries: 3, backoff: time.Second}
}

func (r *Reaper) RunOnce(ctx context.Context) error {
	var err error
	for i := 0; i < r.retries; i++ {
		var n int
		n, err = r.svc.ReapStale(ctx, r.ttl)
		if err == nil {
			if n > 0 {
				r.logger.WithField("reaped", n).Info("stale bookings removed")
			}
			return nil
		}
		r.logger.WithError(err).WithField("attempt", i+1).Warn("reap failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff * time.Duration(1<<i)):
		}
	}
	return errors.Wrapf(err, "reap after %d attempts", r.retries)
}

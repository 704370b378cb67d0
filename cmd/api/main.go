package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisadapter "github.com/robertarktes/securesubmit-bookings/internal/adapters/redis"
	"github.com/robertarktes/securesubmit-bookings/internal/app"
	"github.com/robertarktes/securesubmit-bookings/internal/config"
	httphandler "github.com/robertarktes/securesubmit-bookings/internal/http"
	"github.com/robertarktes/securesubmit-bookings/internal/idempotency"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/robertarktes/securesubmit-bookings/internal/rateLimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	stack, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to build stack: %v", err)
	}
	defer stack.Close(context.Background())

	if err := stack.Repo.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate crdb: %v", err)
	}

	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(stack.Redis), cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(stack.Cache, logger)

	checks := map[string]httphandler.Check{
		"crdb":  stack.Repo.Ping,
		"redis": stack.Cache.Ping,
		"mongo": func(ctx context.Context) error { return stack.Mongo.Ping(ctx, nil) },
	}
	handlers := httphandler.NewHandlers(stack.Service, idemp, checks, logger)
	r := httphandler.SetupRouter(handlers, logger, rl)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	logger.WithField("addr", cfg.HTTPAddr).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}

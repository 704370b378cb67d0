package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/rabbit"
	"github.com/robertarktes/securesubmit-bookings/internal/app"
	"github.com/robertarktes/securesubmit-bookings/internal/config"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
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

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, rabbit.VoidQueue, []string{domain.EventBookingRejected})
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	worker := NewVoidWorker(stack.Service, logger)
	go worker.Run(ctx, deliveries)
	logger.Info("Void worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown void worker")
}

type Voider interface {
	Void(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
}

type VoidWorker struct {
	svc     Voider
	logger  observability.Logger
	retries int
	backoff time.Duration
}

func NewVoidWorker(svc Voider, logger observability.Logger) *VoidWorker {
	return &VoidWorker{svc: svc, logger: logger, retries: 3, backoff: time.Second}
}

func (w *VoidWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("delivery channel closed")
				return
			}
			if err := w.handle(ctx, d.Body); err != nil {
				w.logger.WithError(err).WithField("message_id", d.MessageId).Error("void failed")
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handle voids the booking named by a booking.rejected payload. Bookings that
// are already gone or belong to another gateway are acknowledged.
func (w *VoidWorker) handle(ctx context.Context, body []byte) error {
	var evt domain.BookingRejected
	if err := json.Unmarshal(body, &evt); err != nil {
		w.logger.WithError(err).Warn("dropping malformed rejection")
		return nil
	}
	log := w.logger.WithField("booking_id", evt.BookingID)

	var err error
	for i := 0; i < w.retries; i++ {
		_, err = w.svc.Void(ctx, evt.BookingID)
		switch {
		case err == nil:
			log.WithField("reason", evt.Reason).Info("rejected booking voided")
			return nil
		case errors.Is(err, domain.ErrNotFound):
			log.Info("rejected booking already gone")
			return nil
		case errors.Is(err, domain.ErrConflict):
			log.Info("rejected booking not paid through this gateway")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.backoff * time.Duration(1<<i)):
		}
	}
	return errors.Wrapf(err, "void after %d attempts", w.retries)
}

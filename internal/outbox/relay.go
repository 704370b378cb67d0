package outbox

import (
	"context"
	"time"

	"github.com/robertarktes/securesubmit-bookings/internal/adapters/crdb"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
)

const (
	relayInterval = 5 * time.Second
	batchSize     = 50
)

type Sink interface {
	Publish(ctx context.Context, key, messageID string, body []byte) error
}

type Relay struct {
	store  Store
	sink   Sink
	logger observability.Logger
}

func NewRelay(store Store, sink Sink, logger observability.Logger) *Relay {
	return &Relay{store: store, sink: sink, logger: logger}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(relayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RelayOnce(ctx)
		}
	}
}

// RelayOnce ships one batch and returns how many rows were published.
func (r *Relay) RelayOnce(ctx context.Context) int {
	published, err := r.store.ProcessOutbox(ctx, batchSize, func(rec crdb.OutboxRecord) error {
		log := r.logger.WithFields(map[string]interface{}{
			"outbox_id":  rec.ID.String(),
			"event_type": rec.EventType,
		})
		if err := r.sink.Publish(ctx, rec.EventType, rec.DedupeKey, rec.Payload); err != nil {
			log.WithError(err).Warn("publish failed, will retry")
			return err
		}
		if !rec.CreatedAt.IsZero() {
			observability.OutboxLag.Set(time.Since(rec.CreatedAt).Seconds())
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).Error("failed to relay outbox batch")
		return 0
	}
	return published
}

package outbox

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/crdb"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
)

type Store interface {
	AppendOutbox(ctx context.Context, record crdb.OutboxRecord) error
	ProcessOutbox(ctx context.Context, limit int, publish func(crdb.OutboxRecord) error) (int, error)
}

// Bus stores domain events as outbox rows; the relay ships them later.
type Bus struct {
	store Store
}

func NewBus(store Store) *Bus {
	return &Bus{store: store}
}

func (b *Bus) Publish(ctx context.Context, event domain.DomainEvent) error {
	rec, err := NewRecord(event)
	if err != nil {
		return err
	}
	return b.store.AppendOutbox(ctx, rec)
}

// NewRecord encodes an event as an outbox row, for callers that write it in
// their own transaction.
func NewRecord(event domain.DomainEvent) (crdb.OutboxRecord, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return crdb.OutboxRecord{}, errors.Wrapf(err, "encode %s", event.EventType())
	}
	id := uuid.New()
	return crdb.OutboxRecord{
		ID:            id,
		AggregateType: "booking",
		AggregateID:   event.AggregateID(),
		EventType:     event.EventType(),
		Payload:       payload,
		DedupeKey:     event.EventType() + ":" + id.String(),
	}, nil
}

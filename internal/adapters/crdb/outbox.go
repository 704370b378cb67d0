package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
)

type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string // NEW, PUBLISHED
	DedupeKey     string
}

// InsertOutbox writes the row inside the caller's transaction so it commits
// together with the state change it describes.
func (r *Repository) InsertOutbox(ctx context.Context, tx pgx.Tx, record OutboxRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, 'NEW', $6)
	`, record.ID, record.AggregateType, record.AggregateID, record.EventType, record.Payload, record.DedupeKey)
	return err
}

func (r *Repository) AppendOutbox(ctx context.Context, record OutboxRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		return r.InsertOutbox(ctx, tx, record)
	})
}

// RejectBooking moves a booking to Rejected and queues its event in one
// transaction.
func (r *Repository) RejectBooking(ctx context.Context, id uuid.UUID, record OutboxRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
		`, id, int(domain.StatusRejected))
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return r.InsertOutbox(ctx, tx, record)
	})
}

// ProcessOutbox claims up to limit NEW rows with FOR UPDATE SKIP LOCKED and
// hands each to publish. Rows publish accepted are marked PUBLISHED in the same
// transaction, so concurrent relays never ship the same row twice.
func (r *Repository) ProcessOutbox(ctx context.Context, limit int, publish func(OutboxRecord) error) (int, error) {
	published := 0
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		published = 0
		rows, err := tx.Query(ctx, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload_json, created_at, published_at, status, dedupe_key
			FROM outbox WHERE status = 'NEW' ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED
		`, limit)
		if err != nil {
			return err
		}
		records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OutboxRecord, error) {
			var rec OutboxRecord
			err := row.Scan(&rec.ID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &rec.Payload, &rec.CreatedAt, &rec.PublishedAt, &rec.Status, &rec.DedupeKey)
			return rec, err
		})
		if err != nil {
			return err
		}

		for _, rec := range records {
			if publish(rec) != nil {
				continue
			}
			if _, err := tx.Exec(ctx, `
				UPDATE outbox SET status = 'PUBLISHED', published_at = now() WHERE id = $1
			`, rec.ID); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

package crdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/shopspring/decimal"
)

const (
	SerializationFailureCode = "40001"
	UniqueViolationCode      = "23505"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() { observability.DBTxDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		return mapPgError(err)
	}

	return mapPgError(tx.Commit(ctx))
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case SerializationFailureCode:
			return domain.ErrSerializationFailure
		case UniqueViolationCode:
			return errors.Mark(errors.Wrap(err, pgErr.ConstraintName), domain.ErrConflict)
		}
	}
	return err
}

// SaveBooking persists a new booking with its ticket reservations and assigns
// its id. The id stays unset when the save fails.
func (r *Repository) SaveBooking(ctx context.Context, b *domain.Booking) error {
	id := uuid.New()
	if b.Payments == nil {
		b.Payments = map[string]domain.PaymentMeta{}
	}
	payments, err := json.Marshal(b.Payments)
	if err != nil {
		return err
	}

	err = r.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bookings (id, event_id, customer_id, price, status, gateway, payments, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, b.EventID, b.CustomerID, b.Price.String(), int(b.Status), b.Gateway, payments, b.CreatedAt)
		if err != nil {
			return err
		}
		for _, t := range b.Tickets {
			_, err := tx.Exec(ctx, `
				INSERT INTO ticket_bookings (booking_id, ticket_id, spaces, price)
				VALUES ($1, $2, $3, $4)
			`, id, t.TicketID, t.Spaces, t.Price.String())
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "save booking")
	}
	b.ID = id
	return nil
}

func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var (
		b        domain.Booking
		price    string
		status   int
		payments []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, event_id, customer_id, price::STRING, status, gateway, payments, created_at
		FROM bookings WHERE id = $1
	`, id).Scan(&b.ID, &b.EventID, &b.CustomerID, &price, &status, &b.Gateway, &payments, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.Price, err = decimal.NewFromString(price); err != nil {
		return nil, errors.Wrap(err, "booking price")
	}
	b.Status = domain.BookingStatus(status)
	if err := json.Unmarshal(payments, &b.Payments); err != nil {
		return nil, errors.Wrap(err, "booking payments")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ticket_id, spaces, price::STRING
		FROM ticket_bookings WHERE booking_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.TicketBooking
		var tp string
		if err := rows.Scan(&t.TicketID, &t.Spaces, &tp); err != nil {
			return nil, err
		}
		if t.Price, err = decimal.NewFromString(tp); err != nil {
			return nil, errors.Wrap(err, "ticket price")
		}
		b.Tickets = append(b.Tickets, t)
	}
	return &b, rows.Err()
}

func (r *Repository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
	`, id, int(status))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdatePayments(ctx context.Context, b *domain.Booking) error {
	payments, err := json.Marshal(b.Payments)
	if err != nil {
		return err
	}
	result, err := r.pool.Exec(ctx, `
		UPDATE bookings SET payments = $2, updated_at = now() WHERE id = $1
	`, b.ID, payments)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteTickets(ctx context.Context, bookingID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ticket_bookings WHERE booking_id = $1`, bookingID)
	return err
}

// StaleAwaitingPayment lists bookings still waiting for payment that were
// created before the cutoff and never recorded a charge.
func (r *Repository) StaleAwaitingPayment(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM bookings
		WHERE status = $1 AND created_at <= $2 AND payments = '{}'::JSONB
		ORDER BY created_at ASC LIMIT $3
	`, int(domain.StatusAwaitingPayment), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

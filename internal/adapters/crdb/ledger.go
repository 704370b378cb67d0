package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/shopspring/decimal"
)

// AppendSettlement inserts a transaction row. Rows are never updated; a
// second row for the same booking and transaction id is a conflict.
func (r *Repository) AppendSettlement(ctx context.Context, rec domain.SettlementRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, booking_id, gateway, amount, currency, at, transaction_id, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.BookingID, rec.Gateway, rec.Amount.String(), rec.Currency, rec.At,
		rec.TransactionID, rec.Status, rec.Notes)
	return mapPgError(err)
}

func (r *Repository) ListSettlements(ctx context.Context, bookingID uuid.UUID) ([]domain.SettlementRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, gateway, amount::STRING, currency, at, transaction_id, status, notes
		FROM transactions WHERE booking_id = $1 ORDER BY at ASC
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SettlementRecord
	for rows.Next() {
		var rec domain.SettlementRecord
		var amount string
		if err := rows.Scan(&rec.ID, &rec.BookingID, &rec.Gateway, &amount, &rec.Currency,
			&rec.At, &rec.TransactionID, &rec.Status, &rec.Notes); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, errors.Wrap(err, "settlement amount")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

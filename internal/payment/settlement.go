package payment

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
)

const SettlementCompleted = "Completed"

// SettlementRecorder appends transaction outcomes to the ledger. A failed
// write is reported but never undoes the charge.
type SettlementRecorder struct {
	ledger Ledger
	logger observability.Logger
}

func NewSettlementRecorder(ledger Ledger, logger observability.Logger) *SettlementRecorder {
	return &SettlementRecorder{ledger: ledger, logger: logger}
}

func (r *SettlementRecorder) Record(ctx context.Context, rec domain.SettlementRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	log := r.logger.WithFields(map[string]interface{}{
		"booking_id":     rec.BookingID,
		"transaction_id": rec.TransactionID,
	})

	err := r.ledger.AppendSettlement(ctx, rec)
	if errors.Is(err, domain.ErrConflict) {
		log.Debug("settlement already recorded")
		return nil
	}
	if err != nil {
		observability.SettlementFailures.Inc()
		err = errors.Mark(errors.Wrap(err, "append settlement"), domain.ErrRecordingFailure)
		log.WithError(err).Error("settlement record lost")
		return err
	}
	return nil
}

package payment

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	feedbackBookingDeleted    = "Booking deleted"
	feedbackBookingNotDeleted = "Booking could not be deleted"
)

// Void deletes a booking of this gateway whose creation failed after it was
// charged. The captured charge is not reversed: the processor's void API is
// not called, so the transaction id is logged and published for reconciliation.
func (g *Gateway) Void(ctx context.Context, b *domain.Booking) error {
	if b.Gateway != g.name {
		return nil
	}
	ctx, span := otel.Tracer("payment").Start(ctx, "payment.void")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", b.ID.String()))

	log := g.logger.WithField("booking_id", b.ID)
	if b.Status == domain.StatusDeleted {
		return nil
	}

	if err := g.bookings.DeleteBooking(ctx, b.ID, true); err != nil && !errors.Is(err, domain.ErrNotFound) {
		observability.VoidsTotal.WithLabelValues("failed").Inc()
		b.AddError(feedbackBookingNotDeleted)
		log.WithError(err).Error("void failed")
		return errors.Wrap(err, "void booking")
	}
	if err := g.bookings.DeleteTickets(ctx, b.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.WithError(err).Error("failed to delete ticket reservations on void")
	}
	b.PreviousStatus = b.Status
	b.Status = domain.StatusDeleted
	b.Feedback = feedbackBookingDeleted
	observability.VoidsTotal.WithLabelValues("deleted").Inc()

	evt := domain.BookingVoided{BookingID: b.ID, RefundIssued: false}
	if meta, ok := b.Payment(g.name); ok && meta.TransactionID != "" {
		evt.TransactionID = meta.TransactionID
		log.WithFields(map[string]interface{}{
			"transaction_id": meta.TransactionID,
			"amount":         meta.Amount.String(),
		}).Warn("booking voided with a captured charge that was not refunded")
	}
	if g.auditor != nil {
		_ = g.auditor.LogEvent(ctx, domain.EventBookingVoided, b.ID, map[string]interface{}{
			"transaction_id": evt.TransactionID,
			"refund_issued":  false,
		})
	}
	g.publish(ctx, evt)
	return nil
}

type FeedbackResult struct {
	OK      bool
	Message string
}

// Feedback picks the message shown to the customer once the booking flow is
// done. A failed priced booking of this gateway is voided.
func (g *Gateway) Feedback(ctx context.Context, ok bool, b *domain.Booking) FeedbackResult {
	ours := b.Gateway == g.name && b.HasPrice()
	if ok {
		if ours {
			return FeedbackResult{OK: true, Message: g.settings.BookingFeedback}
		}
		return FeedbackResult{OK: true, Message: g.settings.BookingFeedbackFree}
	}
	if ours && b.Saved() {
		_ = g.Void(ctx, b)
	}
	return FeedbackResult{OK: false}
}

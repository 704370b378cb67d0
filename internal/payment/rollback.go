package payment

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// RollbackContext is captured when booking processing starts and threaded
// through to the rollback.
type RollbackContext struct {
	ProcessingStartedAt time.Time
	Notices             *Notices
}

// RollbackCoordinator undoes what a failed paid booking left behind. Cleanup is
// best effort: every step runs even when an earlier one failed.
type RollbackCoordinator struct {
	settings  Settings
	bookings  BookingStore
	customers CustomerStore
	auditor   Auditor
	events    EventBus
	logger    observability.Logger
}

func NewRollbackCoordinator(settings Settings, bookings BookingStore, customers CustomerStore, auditor Auditor, events EventBus, logger observability.Logger) *RollbackCoordinator {
	return &RollbackCoordinator{
		settings:  settings,
		bookings:  bookings,
		customers: customers,
		auditor:   auditor,
		events:    events,
		logger:    logger,
	}
}

func (r *RollbackCoordinator) Rollback(ctx context.Context, booking *domain.Booking, customer *domain.Customer, rc RollbackContext) error {
	ctx, span := otel.Tracer("payment").Start(ctx, "payment.rollback")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", booking.ID.String()))

	if booking.Status == domain.StatusDeleted {
		return nil
	}
	log := r.logger.WithField("booking_id", booking.ID)

	var errs error
	customerDeleted := false
	if r.provisional(customer, rc.ProcessingStartedAt) {
		err := r.customers.DeleteCustomer(ctx, customer.ID)
		switch {
		case err == nil || errors.Is(err, domain.ErrNotFound):
			customerDeleted = true
			rc.Notices.ClearConfirms()
		default:
			log.WithError(err).WithField("customer_id", customer.ID).Error("failed to delete provisional customer")
			errs = errors.CombineErrors(errs, errors.Wrap(err, "delete customer"))
		}
	}

	if booking.Saved() {
		if err := r.bookings.DeleteTickets(ctx, booking.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.WithError(err).Error("failed to delete ticket reservations")
			errs = errors.CombineErrors(errs, errors.Wrap(err, "delete tickets"))
		}
		if err := r.bookings.DeleteBooking(ctx, booking.ID, true); err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.WithError(err).Error("failed to delete booking")
			errs = errors.CombineErrors(errs, errors.Wrap(err, "delete booking"))
		}
	}
	booking.PreviousStatus = booking.Status
	booking.Status = domain.StatusDeleted

	if booking.Saved() {
		if r.auditor != nil {
			_ = r.auditor.LogEvent(ctx, domain.EventBookingRolledBack, booking.ID, map[string]interface{}{
				"customer_deleted": customerDeleted,
				"partial":          errs != nil,
			})
		}
		if r.events != nil {
			evt := domain.BookingRolledBack{BookingID: booking.ID, CustomerDeleted: customerDeleted, Partial: errs != nil}
			if err := r.events.Publish(ctx, evt); err != nil {
				log.WithError(err).Warn("failed to publish rollback event")
			}
		}
	}

	if errs != nil {
		observability.RollbacksTotal.WithLabelValues("partial").Inc()
		return errors.Mark(errs, domain.ErrRollbackPartialFailure)
	}
	observability.RollbacksTotal.WithLabelValues("complete").Inc()
	return nil
}

// provisional reports whether the customer account was created by this booking
// attempt and may be removed with it.
func (r *RollbackCoordinator) provisional(customer *domain.Customer, startedAt time.Time) bool {
	if customer == nil || !customer.Anonymous {
		return false
	}
	if !r.settings.AnonymousBookingsAllowed || r.settings.RegistrationDisabled {
		return false
	}
	return customer.RegisteredSince(startedAt)
}

package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/crdb"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/robertarktes/securesubmit-bookings/internal/payment"
)

// Repository is the persistence the booking flow needs.
type Repository interface {
	SaveBooking(ctx context.Context, b *domain.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	RejectBooking(ctx context.Context, id uuid.UUID, record crdb.OutboxRecord) error
	UpdatePayments(ctx context.Context, b *domain.Booking) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error
	DeleteTickets(ctx context.Context, bookingID uuid.UUID) error
	StaleAwaitingPayment(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)

	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error

	ListSettlements(ctx context.Context, bookingID uuid.UUID) ([]domain.SettlementRecord, error)
}

type Catalog interface {
	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
}

type AuditTrail interface {
	History(ctx context.Context, bookingID uuid.UUID) ([]domain.AuditEntry, error)
}

type Notifier interface {
	Send(ctx context.Context, notice payment.Notice) error
}

// BookingStore adapts the repository to the gateway. Status changes only reach
// the customer when notify is set.
type BookingStore struct {
	repo     Repository
	notifier Notifier
	logger   observability.Logger
}

func NewBookingStore(repo Repository, notifier Notifier, logger observability.Logger) *BookingStore {
	return &BookingStore{repo: repo, notifier: notifier, logger: logger}
}

func (s *BookingStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, notify bool) error {
	if err := s.repo.UpdateBookingStatus(ctx, id, status); err != nil {
		return err
	}
	if notify {
		s.notifyStatus(ctx, id, status)
	}
	return nil
}

func (s *BookingStore) notifyStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) {
	if s.notifier == nil {
		return
	}
	log := s.logger.WithField("booking_id", id)
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		log.WithError(err).Warn("status notice skipped")
		return
	}
	c, err := s.repo.GetCustomer(ctx, b.CustomerID)
	if err != nil {
		log.WithError(err).Warn("status notice skipped")
		return
	}
	notice := payment.Notice{
		To:      c.Email,
		Subject: fmt.Sprintf("Booking %s", status),
		Body:    fmt.Sprintf("Hello %s,\n\nyour booking %s is now %s.", c.Name, id, status),
	}
	if err := s.notifier.Send(ctx, notice); err != nil {
		log.WithError(err).Warn("failed to send status notice")
	}
}

func (s *BookingStore) UpdatePayments(ctx context.Context, b *domain.Booking) error {
	return s.repo.UpdatePayments(ctx, b)
}

// DeleteBooking removes the booking row. The host has no per-user permission
// model, so override changes nothing here.
func (s *BookingStore) DeleteBooking(ctx context.Context, id uuid.UUID, override bool) error {
	return s.repo.DeleteBooking(ctx, id)
}

func (s *BookingStore) DeleteTickets(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTickets(ctx, id)
}

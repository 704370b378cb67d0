package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/robertarktes/securesubmit-bookings/internal/outbox"
	"github.com/robertarktes/securesubmit-bookings/internal/payment"
)

type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address domain.Address
}

type TicketRequest struct {
	TicketID uuid.UUID
	Spaces   int
}

type SubmitRequest struct {
	EventID  uuid.UUID
	Customer CustomerInput
	Tickets  []TicketRequest
	Token    string
}

// Outcome is what the customer sees once a submission has finished.
type Outcome struct {
	Booking *domain.Booking
	OK      bool
	Message string
	Errors  []string
}

type Service struct {
	repo     Repository
	catalog  Catalog
	gateway  *payment.Gateway
	audit    AuditTrail
	notifier Notifier
	logger   observability.Logger
	now      func() time.Time
}

func NewService(repo Repository, catalog Catalog, gateway *payment.Gateway, audit AuditTrail, notifier Notifier, logger observability.Logger) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		gateway:  gateway,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit adds a booking, saves it and lets the gateway charge it. Input and
// lookup problems are returned as errors; payment problems end up in the
// Outcome.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Outcome, error) {
	now := s.now().UTC()

	event, err := s.catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, errors.Wrapf(err, "event %s", req.EventID)
	}
	tickets, err := priceTickets(event, req.Tickets)
	if err != nil {
		return nil, err
	}

	notices := &payment.Notices{}
	customer, registered, err := s.resolveCustomer(ctx, req.Customer, now, notices)
	if err != nil {
		return nil, err
	}

	booking := domain.NewBooking(event.ID, customer.ID, tickets, now)
	att := s.gateway.BeginBooking(booking, customer, event, payment.NewTokenHolder(req.Token), notices, now)

	log := s.logger.WithFields(map[string]interface{}{
		"event_id":      event.ID,
		"customer_id":   customer.ID,
		"token_present": att.Token.Present(),
	})

	saved := true
	if err := s.repo.SaveBooking(ctx, booking); err != nil {
		log.WithError(err).Error("failed to save booking")
		booking.AddError("Booking could not be saved")
		saved = false
		if registered {
			s.discardCustomer(ctx, customer)
		}
	}

	ok := s.gateway.AfterSave(ctx, att, saved)
	fb := s.gateway.Feedback(ctx, ok, booking)

	if fb.OK {
		for _, n := range notices.Confirms {
			if s.notifier == nil {
				break
			}
			if err := s.notifier.Send(ctx, n); err != nil {
				log.WithError(err).Warn("failed to send confirmation")
			}
		}
	}

	log.WithFields(map[string]interface{}{
		"booking_id": booking.ID,
		"status":     booking.Status.String(),
		"ok":         fb.OK,
	}).Info("booking submitted")

	return &Outcome{Booking: booking, OK: fb.OK, Message: fb.Message, Errors: booking.Errors}, nil
}

func priceTickets(event domain.Event, reqs []TicketRequest) ([]domain.TicketBooking, error) {
	if len(reqs) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "no tickets requested")
	}
	out := make([]domain.TicketBooking, 0, len(reqs))
	seen := make(map[uuid.UUID]bool, len(reqs))
	for _, r := range reqs {
		price, ok := event.Tickets[r.TicketID]
		if !ok {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "ticket %s is not sold for this event", r.TicketID)
		}
		if r.Spaces <= 0 {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "ticket %s: spaces must be positive", r.TicketID)
		}
		if seen[r.TicketID] {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "ticket %s requested twice", r.TicketID)
		}
		seen[r.TicketID] = true
		out = append(out, domain.TicketBooking{TicketID: r.TicketID, Spaces: r.Spaces, Price: price})
	}
	return out, nil
}

// resolveCustomer finds the customer by email or registers a new anonymous
// one. registered reports whether the customer was created by this call.
func (s *Service) resolveCustomer(ctx context.Context, in CustomerInput, now time.Time, notices *payment.Notices) (*domain.Customer, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := s.repo.GetCustomerByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, errors.Wrap(err, "lookup customer")
	}

	settings := s.gateway.Settings()
	if !settings.AnonymousBookingsAllowed || settings.RegistrationDisabled {
		return nil, false, errors.Wrap(domain.ErrInvalidInput, "an account is required to book")
	}

	c := &domain.Customer{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        in.Phone,
		Address:      in.Address,
		Anonymous:    true,
		RegisteredAt: now,
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return nil, false, errors.Wrap(err, "register customer")
	}
	if settings.EmailCustomer {
		notices.Confirm(payment.Notice{
			To:      c.Email,
			Subject: "Your account has been created",
			Body:    fmt.Sprintf("Hello %s,\n\nan account was created for %s with your booking.", c.Name, c.Email),
		})
	}
	return c, true, nil
}

func (s *Service) discardCustomer(ctx context.Context, c *domain.Customer) {
	if err := s.repo.DeleteCustomer(ctx, c.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WithError(err).WithField("customer_id", c.ID).Warn("failed to remove customer of unsaved booking")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *Service) Transactions(ctx context.Context, id uuid.UUID) ([]domain.SettlementRecord, error) {
	return s.repo.ListSettlements(ctx, id)
}

// History lists the audit trail of a booking. Rolled back and voided bookings
// keep their trail.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error) {
	if s.audit == nil {
		return nil, nil
	}
	entries, err := s.audit.History(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load audit trail")
	}
	return entries, nil
}

// Reject marks a booking rejected after an independent validation step. The
// status change and its booking.rejected outbox row commit together, so the
// void worker always hears about a rejected booking.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.StatusRejected {
		return b, nil
	}
	rec, err := outbox.NewRecord(domain.BookingRejected{BookingID: id, Reason: reason})
	if err != nil {
		return nil, err
	}
	if err := s.repo.RejectBooking(ctx, id, rec); err != nil {
		return nil, errors.Wrap(err, "reject booking")
	}
	b.PreviousStatus, b.Status = b.Status, domain.StatusRejected
	return b, nil
}

// Void runs the gateway void path for one stored booking.
func (s *Service) Void(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Gateway != s.gateway.Name() {
		return nil, errors.Wrapf(domain.ErrConflict, "booking %s was not paid through %s", id, s.gateway.Name())
	}
	if err := s.gateway.Void(ctx, b); err != nil {
		return b, err
	}
	return b, nil
}

package bookings

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/crdb"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/payment"
	"github.com/stretchr/testify/mock"
)

// memRepo is an in-memory Repository and payment.Ledger.
type memRepo struct {
	mu          sync.Mutex
	bookings    map[uuid.UUID]*domain.Booking
	customers   map[uuid.UUID]*domain.Customer
	settlements []domain.SettlementRecord
	saveErr     error
	rejectErrs  []error
	outbox      []crdb.OutboxRecord
	stale       []uuid.UUID
}

func newMemRepo() *memRepo {
	return &memRepo{
		bookings:  map[uuid.UUID]*domain.Booking{},
		customers: map[uuid.UUID]*domain.Customer{},
	}
}

func (r *memRepo) SaveBooking(ctx context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	b.ID = uuid.New()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	return nil
}

// RejectBooking fails with the queued rejectErrs first; a failed call changes
// nothing, like a rolled back transaction.
func (r *memRepo) RejectBooking(ctx context.Context, id uuid.UUID, record crdb.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rejectErrs) > 0 {
		err := r.rejectErrs[0]
		r.rejectErrs = r.rejectErrs[1:]
		return err
	}
	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = domain.StatusRejected
	r.outbox = append(r.outbox, record)
	return nil
}

func (r *memRepo) outboxTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rec := range r.outbox {
		out = append(out, rec.EventType)
	}
	return out
}

func (r *memRepo) UpdatePayments(ctx context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Payments = map[string]domain.PaymentMeta{}
	for k, v := range b.Payments {
		stored.Payments[k] = v
	}
	return nil
}

func (r *memRepo) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *memRepo) DeleteTickets(ctx context.Context, bookingID uuid.UUID) error {
	return nil
}

func (r *memRepo) StaleAwaitingPayment(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	return r.stale, nil
}

func (r *memRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.customers {
		if existing.Email == c.Email {
			return errors.Mark(errors.New("duplicate email"), domain.ErrConflict)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *memRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func (r *memRepo) AppendSettlement(ctx context.Context, rec domain.SettlementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements = append(r.settlements, rec)
	return nil
}

func (r *memRepo) ListSettlements(ctx context.Context, bookingID uuid.UUID) ([]domain.SettlementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SettlementRecord
	for _, rec := range r.settlements {
		if rec.BookingID == bookingID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type staticCatalog map[uuid.UUID]domain.Event

func (c staticCatalog) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	ev, ok := c[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return ev, nil
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Charge(ctx context.Context, req domain.ChargeRequest) (payment.Receipt, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Receipt), args.Error(1)
}

type recordingNotifier struct {
	sent []payment.Notice
}

func (n *recordingNotifier) Send(ctx context.Context, notice payment.Notice) error {
	n.sent = append(n.sent, notice)
	return nil
}

type recordingBus struct {
	events []domain.DomainEvent
}

func (b *recordingBus) Publish(ctx context.Context, evt domain.DomainEvent) error {
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) has(eventType string) bool {
	for _, e := range b.events {
		if e.EventType() == eventType {
			return true
		}
	}
	return false
}

// memAudit serves as both the gateway auditor and the audit trail.
type memAudit struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]domain.AuditEntry
}

func (a *memAudit) LogEvent(ctx context.Context, action string, bookingID uuid.UUID, data map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.entries == nil {
		a.entries = map[uuid.UUID][]domain.AuditEntry{}
	}
	a.entries[bookingID] = append(a.entries[bookingID], domain.AuditEntry{Action: action, At: time.Now(), Data: data})
	return nil
}

func (a *memAudit) History(ctx context.Context, bookingID uuid.UUID) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[bookingID], nil
}

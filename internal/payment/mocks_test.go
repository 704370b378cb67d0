package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) SetStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus, notify bool) error {
	args := m.Called(ctx, bookingID, status, notify)
	return args.Error(0)
}

func (m *MockBookingStore) UpdatePayments(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingStore) DeleteBooking(ctx context.Context, bookingID uuid.UUID, override bool) error {
	args := m.Called(ctx, bookingID, override)
	return args.Error(0)
}

func (m *MockBookingStore) DeleteTickets(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) DeleteCustomer(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Charge(ctx context.Context, req domain.ChargeRequest) (Receipt, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Receipt), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) AppendSettlement(ctx context.Context, rec domain.SettlementRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// recordingBus keeps published events in memory.
type recordingBus struct {
	events []domain.DomainEvent
}

func (b *recordingBus) Publish(ctx context.Context, evt domain.DomainEvent) error {
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) types() []string {
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventType())
	}
	return out
}

package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/shopspring/decimal"
)

// BookingStore is the part of the booking subsystem the gateway drives.
type BookingStore interface {
	SetStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus, notify bool) error
	UpdatePayments(ctx context.Context, booking *domain.Booking) error
	// DeleteBooking removes the booking row. override bypasses permission checks
	// and is only used for internal cleanup.
	DeleteBooking(ctx context.Context, bookingID uuid.UUID, override bool) error
	DeleteTickets(ctx context.Context, bookingID uuid.UUID) error
}

type CustomerStore interface {
	DeleteCustomer(ctx context.Context, customerID uuid.UUID) error
}

// Processor is the synchronous charge API of the payment processor.
type Processor interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (Receipt, error)
}

type Receipt struct {
	TransactionID string
	Amount        decimal.Decimal
	At            time.Time
}

// Ledger is the append-only settlement store.
type Ledger interface {
	AppendSettlement(ctx context.Context, rec domain.SettlementRecord) error
}

type EventBus interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

type Auditor interface {
	LogEvent(ctx context.Context, action string, bookingID uuid.UUID, data map[string]interface{}) error
}

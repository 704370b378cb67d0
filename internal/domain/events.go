package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventBookingSaveAttempted = "booking.save_attempted"
	EventChargeCompleted      = "charge.completed"
	EventChargeFailed         = "charge.failed"
	EventBookingRolledBack    = "booking.rolled_back"
	EventBookingVoided        = "booking.voided"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingRejected      = "booking.rejected"
)

type DomainEvent interface {
	EventType() string
	AggregateID() uuid.UUID
}

type BookingSaveAttempted struct {
	BookingID uuid.UUID       `json:"booking_id"`
	EventID   uuid.UUID       `json:"event_id"`
	Price     decimal.Decimal `json:"price"`
	Gateway   string          `json:"gateway"`
	Saved     bool            `json:"saved"`
	StartedAt time.Time       `json:"started_at"`
}

func (e BookingSaveAttempted) EventType() string      { return EventBookingSaveAttempted }
func (e BookingSaveAttempted) AggregateID() uuid.UUID { return e.BookingID }

type ChargeCompleted struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	At            time.Time       `json:"at"`
}

func (e ChargeCompleted) EventType() string      { return EventChargeCompleted }
func (e ChargeCompleted) AggregateID() uuid.UUID { return e.BookingID }

type ChargeFailed struct {
	BookingID uuid.UUID       `json:"booking_id"`
	Message   string          `json:"message"`
	Category  FailureCategory `json:"category"`
}

func (e ChargeFailed) EventType() string      { return EventChargeFailed }
func (e ChargeFailed) AggregateID() uuid.UUID { return e.BookingID }

type BookingRolledBack struct {
	BookingID       uuid.UUID `json:"booking_id"`
	CustomerDeleted bool      `json:"customer_deleted"`
	Partial         bool      `json:"partial"`
}

func (e BookingRolledBack) EventType() string      { return EventBookingRolledBack }
func (e BookingRolledBack) AggregateID() uuid.UUID { return e.BookingID }

type BookingVoided struct {
	BookingID     uuid.UUID `json:"booking_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	RefundIssued  bool      `json:"refund_issued"`
}

func (e BookingVoided) EventType() string      { return EventBookingVoided }
func (e BookingVoided) AggregateID() uuid.UUID { return e.BookingID }

type BookingStatusChanged struct {
	BookingID uuid.UUID     `json:"booking_id"`
	From      BookingStatus `json:"from"`
	To        BookingStatus `json:"to"`
	Notify    bool          `json:"notify"`
}

func (e BookingStatusChanged) EventType() string      { return EventBookingStatusChanged }
func (e BookingStatusChanged) AggregateID() uuid.UUID { return e.BookingID }

type BookingRejected struct {
	BookingID uuid.UUID `json:"booking_id"`
	Reason    string    `json:"reason"`
}

func (e BookingRejected) EventType() string      { return EventBookingRejected }
func (e BookingRejected) AggregateID() uuid.UUID { return e.BookingID }

// AuditEntry is one recorded step in a booking's payment history.
type AuditEntry struct {
	Action string
	At     time.Time
	Data   map[string]interface{}
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus int

const (
	StatusDeleted         BookingStatus = -1
	StatusPending         BookingStatus = 0
	StatusApproved        BookingStatus = 1
	StatusRejected        BookingStatus = 2
	StatusCancelled       BookingStatus = 3
	StatusAwaitingPayment BookingStatus = 4

	// StatusAwaitingManualApproval is the pending state a paid booking returns to
	// when a human has to approve it.
	StatusAwaitingManualApproval = StatusPending
)

func (s BookingStatus) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	case StatusAwaitingPayment:
		return "awaiting_payment"
	}
	return "unknown"
}

func NewBooking(eventID, customerID uuid.UUID, tickets []TicketBooking, now time.Time) *Booking {
	price := decimal.Zero
	for _, t := range tickets {
		price = price.Add(t.Price.Mul(decimal.NewFromInt(int64(t.Spaces))))
	}
	return &Booking{
		EventID:    eventID,
		CustomerID: customerID,
		Price:      price,
		Status:     StatusPending,
		Payments:   map[string]PaymentMeta{},
		Tickets:    tickets,
		CreatedAt:  now,
	}
}

func (b *Booking) Saved() bool {
	return b.ID != uuid.Nil
}

func (b *Booking) HasPrice() bool {
	return b.Price.GreaterThan(decimal.Zero)
}

func (b *Booking) AddError(msg string) {
	b.Errors = append(b.Errors, msg)
}

func (b *Booking) SetPayment(gateway string, meta PaymentMeta) {
	if b.Payments == nil {
		b.Payments = map[string]PaymentMeta{}
	}
	b.Payments[gateway] = meta
}

func (b *Booking) Payment(gateway string) (PaymentMeta, bool) {
	meta, ok := b.Payments[gateway]
	return meta, ok
}

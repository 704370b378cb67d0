package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Booking struct {
	ID             uuid.UUID
	EventID        uuid.UUID
	CustomerID     uuid.UUID
	Price          decimal.Decimal
	Status         BookingStatus
	PreviousStatus BookingStatus
	Gateway        string
	Payments       map[string]PaymentMeta
	Tickets        []TicketBooking
	Errors         []string
	Feedback       string
	CreatedAt      time.Time
}

type PaymentMeta struct {
	TransactionID string          `json:"txn_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type TicketBooking struct {
	TicketID uuid.UUID
	Spaces   int
	Price    decimal.Decimal
}

type Customer struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	Address      Address
	RegisteredAt time.Time
	// Anonymous is set when the customer was not logged in for this booking.
	Anonymous bool
}

type Address struct {
	Street  string
	City    string
	State   string
	Postal  string
	Country string
}

// Event is the catalog entry a booking is made against.
type Event struct {
	ID      uuid.UUID
	Name    string
	Tickets map[uuid.UUID]decimal.Decimal
}

type SettlementRecord struct {
	ID            uuid.UUID
	BookingID     uuid.UUID
	Gateway       string
	Amount        decimal.Decimal
	Currency      string
	At            time.Time
	TransactionID string
	Status        string
	Notes         string
}

// SplitName splits the display name on the first space into first and last name.
func (c Customer) SplitName() (first, last string) {
	name := strings.TrimSpace(c.Name)
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

func (c Customer) RegisteredSince(t time.Time) bool {
	return !c.RegisteredAt.Before(t)
}

var countryNames = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
	"AU": "Australia",
	"DE": "Germany",
	"FR": "France",
	"ES": "Spain",
	"IT": "Italy",
	"MX": "Mexico",
	"NL": "Netherlands",
	"IE": "Ireland",
	"NZ": "New Zealand",
}

// CountryName maps an ISO country code to its display name. Unknown codes are
// returned unchanged.
func CountryName(code string) string {
	if name, ok := countryNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

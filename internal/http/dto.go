package http

import (
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/bookings"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
)

type addressDTO struct {
	Street  string `json:"street" validate:"max=200"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	Postal  string `json:"postal" validate:"max=20"`
	Country string `json:"country" validate:"omitempty,len=2,alpha"`
}

type customerDTO struct {
	Name    string     `json:"name" validate:"required,max=200"`
	Email   string     `json:"email" validate:"required,email"`
	Phone   string     `json:"phone" validate:"max=40"`
	Address addressDTO `json:"address"`
}

type ticketDTO struct {
	TicketID string `json:"ticket_id" validate:"required,uuid"`
	Spaces   int    `json:"spaces" validate:"required,min=1,max=100"`
}

// createBookingRequest leaves the token optional; a missing token is a
// payment failure, not a malformed request.
type createBookingRequest struct {
	EventID  string      `json:"event_id" validate:"required,uuid"`
	Customer customerDTO `json:"customer"`
	Tickets  []ticketDTO `json:"tickets" validate:"required,min=1,dive"`
	Token    string      `json:"token"`
}

func (r createBookingRequest) toSubmit() bookings.SubmitRequest {
	req := bookings.SubmitRequest{
		EventID: uuid.MustParse(r.EventID),
		Customer: bookings.CustomerInput{
			Name:  r.Customer.Name,
			Email: r.Customer.Email,
			Phone: r.Customer.Phone,
			Address: domain.Address{
				Street:  r.Customer.Address.Street,
				City:    r.Customer.Address.City,
				State:   r.Customer.Address.State,
				Postal:  r.Customer.Address.Postal,
				Country: r.Customer.Address.Country,
			},
		},
		Token: r.Token,
	}
	for _, t := range r.Tickets {
		req.Tickets = append(req.Tickets, bookings.TicketRequest{TicketID: uuid.MustParse(t.TicketID), Spaces: t.Spaces})
	}
	return req
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type bookingResponse struct {
	BookingID string            `json:"booking_id"`
	EventID   string            `json:"event_id"`
	Status    string            `json:"status"`
	Price     string            `json:"price"`
	Gateway   string            `json:"gateway"`
	Payments  map[string]string `json:"payments,omitempty"`
	Message   string            `json:"message,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		BookingID: b.ID.String(),
		EventID:   b.EventID.String(),
		Status:    b.Status.String(),
		Price:     b.Price.StringFixed(2),
		Gateway:   b.Gateway,
	}
	if len(b.Payments) > 0 {
		resp.Payments = make(map[string]string, len(b.Payments))
		for gw, meta := range b.Payments {
			resp.Payments[gw] = meta.TransactionID
		}
	}
	return resp
}

type transactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Gateway       string `json:"gateway"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	At            string `json:"at"`
}

type auditEntryResponse struct {
	Action string                 `json:"action"`
	At     string                 `json:"at"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

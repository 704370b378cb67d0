package payment

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSanitizeMemo(t *testing.T) {
	assert.Equal(t, "Jazz Night 2026", SanitizeMemo("Jazz Night: 2026!"))
	assert.Equal(t, "Caf au lait", SanitizeMemo("Café au lait"))
	assert.Equal(t, "", SanitizeMemo("%$#"))
}

func TestChargeRequester_BuildsCardholder(t *testing.T) {
	processor := new(MockProcessor)
	c := NewChargeRequester(GatewayName, "usd", processor, observability.NopLogger())
	b := pricedBooking("42.50")
	b.ID = uuid.New()
	customer := &domain.Customer{
		Name:  "Mary Ann Evans",
		Email: "mary@example.com",
		Phone: "555-0100",
		Address: domain.Address{
			Street: "1 Main St", City: "Dallas", State: "TX", Postal: "75001", Country: "US",
		},
	}

	processor.On("Charge", mock.Anything, mock.MatchedBy(func(req domain.ChargeRequest) bool {
		ch := req.Cardholder
		return ch.FirstName == "Mary" &&
			ch.LastName == "Ann Evans" &&
			ch.Email == "mary@example.com" &&
			ch.Phone == "555-0100" &&
			ch.Address.Country == "United States" &&
			ch.Address.City == "Dallas" &&
			req.Currency == "usd"
	})).Return(Receipt{TransactionID: "txn_1", Amount: decimal.RequireFromString("42.50"), At: time.Unix(1700000000, 0)}, nil)

	res := c.Charge(context.Background(), b, customer, domain.Event{Name: "Expo"}, NewTokenHolder("tok"))

	require.True(t, res.OK())
	assert.Equal(t, "txn_1", res.Success.TransactionID)
	assert.Equal(t, time.Unix(1700000000, 0), res.Success.At)
	processor.AssertExpectations(t)
}

func TestChargeRequester_ProcessorErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantCategory domain.FailureCategory
		wantMessage  string
	}{
		{"declined", domain.NewProcessorError(domain.CategoryDeclined, "card declined"), domain.CategoryDeclined, "card declined"},
		{"invalid token", domain.NewProcessorError(domain.CategoryInvalidToken, "token expired"), domain.CategoryInvalidToken, "token expired"},
		{"transport", errors.New("connection reset"), domain.CategoryUnknown, "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := new(MockProcessor)
			c := NewChargeRequester(GatewayName, "usd", processor, observability.NopLogger())
			b := pricedBooking("10")
			b.ID = uuid.New()
			processor.On("Charge", mock.Anything, mock.Anything).Return(Receipt{}, tt.err).Once()

			res := c.Charge(context.Background(), b, nil, domain.Event{}, NewTokenHolder("tok"))

			require.False(t, res.OK())
			assert.Equal(t, tt.wantCategory, res.Failure.Category)
			assert.Equal(t, tt.wantMessage, res.Failure.Message)
			assert.Empty(t, b.Payments)
			processor.AssertNumberOfCalls(t, "Charge", 1)
		})
	}
}

type panickingProcessor struct{}

func (panickingProcessor) Charge(ctx context.Context, req domain.ChargeRequest) (Receipt, error) {
	panic("sdk exploded")
}

func TestChargeRequester_RecoversProcessorPanic(t *testing.T) {
	c := NewChargeRequester(GatewayName, "usd", panickingProcessor{}, observability.NopLogger())
	b := pricedBooking("10")
	b.ID = uuid.New()

	res := c.Charge(context.Background(), b, nil, domain.Event{}, NewTokenHolder("tok"))

	require.False(t, res.OK())
	assert.Equal(t, "sdk exploded", res.Failure.Message)
}

func TestChargeRequester_TokenConsumedOnce(t *testing.T) {
	processor := new(MockProcessor)
	c := NewChargeRequester(GatewayName, "usd", processor, observability.NopLogger())
	b := pricedBooking("10")
	b.ID = uuid.New()
	token := NewTokenHolder("tok")
	processor.On("Charge", mock.Anything, mock.Anything).Return(Receipt{TransactionID: "T"}, nil).Once()

	first := c.Charge(context.Background(), b, nil, domain.Event{}, token)
	second := c.Charge(context.Background(), b, nil, domain.Event{}, token)

	assert.True(t, first.OK())
	require.False(t, second.OK())
	assert.Equal(t, domain.CategoryMissingToken, second.Failure.Category)
	processor.AssertNumberOfCalls(t, "Charge", 1)
}

package payment

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
)

var memoDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// SanitizeMemo keeps letters, digits and whitespace only.
func SanitizeMemo(s string) string {
	return memoDisallowed.ReplaceAllString(s, "")
}

// ChargeRequester turns a booking into exactly one processor charge. It never
// retries and never returns processor errors to its caller.
type ChargeRequester struct {
	gateway   string
	currency  string
	processor Processor
	logger    observability.Logger
	now       func() time.Time
}

func NewChargeRequester(gateway, currency string, processor Processor, logger observability.Logger) *ChargeRequester {
	return &ChargeRequester{
		gateway:   gateway,
		currency:  currency,
		processor: processor,
		logger:    logger,
		now:       time.Now,
	}
}

func (c *ChargeRequester) Charge(ctx context.Context, booking *domain.Booking, customer *domain.Customer, event domain.Event, token *TokenHolder) (result domain.ChargeResult) {
	log := c.logger.WithFields(map[string]interface{}{
		"booking_id":    booking.ID,
		"gateway":       c.gateway,
		"token_present": token.Present(),
	})

	tok, err := token.Take()
	if err != nil {
		log.WithError(err).Warn("charge attempted without a usable token")
		observability.ChargesTotal.WithLabelValues("missing_token").Inc()
		return domain.Failed(domain.CategoryMissingToken, err.Error())
	}

	req := domain.ChargeRequest{
		Amount:        booking.Price,
		Currency:      c.currency,
		Token:         tok,
		Cardholder:    cardholderFor(customer),
		Memo:          SanitizeMemo(event.Name),
		InvoiceNumber: booking.ID.String(),
	}
	if err := req.Validate(); err != nil {
		log.WithError(err).Warn("invalid charge request")
		observability.ChargesTotal.WithLabelValues("invalid").Inc()
		return domain.Failed(domain.CategoryUnknown, err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("processor client panicked: ", r)
			observability.ChargesTotal.WithLabelValues("failed").Inc()
			result = domain.Failed(domain.CategoryUnknown, fmt.Sprint(r))
		}
	}()

	start := time.Now()
	receipt, err := c.processor.Charge(ctx, req)
	observability.ChargeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ChargesTotal.WithLabelValues("failed").Inc()
		category := domain.CategoryUnknown
		message := err.Error()
		var perr *domain.ProcessorError
		if errors.As(err, &perr) {
			category = perr.Category
			message = perr.Message
		}
		log.WithError(err).WithField("category", category).Warn("charge failed")
		return domain.Failed(category, message)
	}

	amount := receipt.Amount
	if amount.IsZero() {
		amount = req.Amount
	}
	at := receipt.At
	if at.IsZero() {
		at = c.now()
	}
	booking.SetPayment(c.gateway, domain.PaymentMeta{TransactionID: receipt.TransactionID, Amount: amount})

	observability.ChargesTotal.WithLabelValues("succeeded").Inc()
	log.WithField("transaction_id", receipt.TransactionID).Info("charge succeeded")
	return domain.Succeeded(receipt.TransactionID, amount, at)
}

func cardholderFor(customer *domain.Customer) domain.Cardholder {
	if customer == nil {
		return domain.Cardholder{}
	}
	first, last := customer.SplitName()
	addr := customer.Address
	if addr.Country != "" {
		addr.Country = domain.CountryName(addr.Country)
	}
	return domain.Cardholder{
		FirstName: first,
		LastName:  last,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   addr,
	}
}

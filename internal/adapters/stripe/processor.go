package stripe

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/robertarktes/securesubmit-bookings/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

type chargeCreator interface {
	Create(ctx context.Context, params *stripe.ChargeCreateParams) (*stripe.Charge, error)
}

type Options struct {
	VersionNumber string
	DeveloperID   string
}

// Processor charges single-use card tokens through the Charges API.
type Processor struct {
	charges chargeCreator
	opts    Options
	logger  observability.Logger
}

func NewProcessor(secretKey string, opts Options, logger observability.Logger) *Processor {
	sc := stripe.NewClient(secretKey)
	return &Processor{charges: sc.V1Charges, opts: opts, logger: logger}
}

func (p *Processor) Charge(ctx context.Context, req domain.ChargeRequest) (payment.Receipt, error) {
	minor, err := toMinorUnits(req.Amount, req.Currency)
	if err != nil {
		return payment.Receipt{}, domain.NewProcessorError(domain.CategoryUnknown, err.Error())
	}

	params := &stripe.ChargeCreateParams{
		Amount:      stripe.Int64(minor),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Source:      &stripe.PaymentSourceSourceParams{Token: stripe.String(req.Token)},
		Description: stripe.String(req.Memo),
	}
	if req.Cardholder.Email != "" {
		params.ReceiptEmail = stripe.String(req.Cardholder.Email)
	}
	params.AddMetadata("invoice", req.InvoiceNumber)
	params.AddMetadata("version_number", p.opts.VersionNumber)
	params.AddMetadata("developer_id", p.opts.DeveloperID)
	params.AddMetadata("cardholder", strings.TrimSpace(req.Cardholder.FirstName+" "+req.Cardholder.LastName))
	if zip := req.Cardholder.Address.Postal; zip != "" {
		params.AddMetadata("billing_zip", zip)
	}

	ch, err := p.charges.Create(ctx, params)
	if err != nil {
		return payment.Receipt{}, classify(err)
	}

	p.logger.WithFields(map[string]interface{}{
		"transaction_id": ch.ID,
		"invoice":        req.InvoiceNumber,
	}).Debug("charge accepted")

	return payment.Receipt{
		TransactionID: ch.ID,
		Amount:        fromMinorUnits(ch.Amount, req.Currency),
		At:            time.Unix(ch.Created, 0).UTC(),
	}, nil
}

// classify maps API failures onto the processor error taxonomy.
func classify(err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return domain.NewProcessorError(domain.CategoryServiceUnavailable, err.Error())
	}

	perr := domain.NewProcessorError(domain.CategoryUnknown, serr.Msg)
	perr.Code = string(serr.Code)
	if perr.Message == "" {
		perr.Message = "payment processor error"
	}

	switch {
	case serr.Type == stripe.ErrorTypeCard:
		perr.Category = domain.CategoryDeclined
	case serr.Code == stripe.ErrorCodeResourceMissing && serr.Param == "source":
		perr.Category = domain.CategoryInvalidToken
	case serr.Code == stripe.ErrorCodeTokenAlreadyUsed:
		perr.Category = domain.CategoryInvalidToken
	case serr.HTTPStatusCode >= 500 || serr.HTTPStatusCode == 429 || serr.Type == stripe.ErrorTypeAPI:
		perr.Category = domain.CategoryServiceUnavailable
	}
	return perr
}

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

func exponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

func toMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	shifted := amount.Shift(exponent(currency))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, errors.Newf("amount %s has more precision than %s allows", amount, currency)
	}
	return shifted.IntPart(), nil
}

func fromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -exponent(currency))
}

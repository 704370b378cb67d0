package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

type Cardholder struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   Address
}

type ChargeRequest struct {
	Amount        decimal.Decimal
	Currency      string
	Token         string
	Cardholder    Cardholder
	Memo          string
	InvoiceNumber string
}

func (r ChargeRequest) Validate() error {
	if r.Token == "" {
		return ErrMissingToken
	}
	if !r.Amount.IsPositive() {
		return errors.Wrapf(ErrInvalidInput, "charge amount %s", r.Amount)
	}
	if r.Currency == "" {
		return errors.Wrap(ErrInvalidInput, "charge currency")
	}
	return nil
}

type ChargeSuccess struct {
	TransactionID string
	Amount        decimal.Decimal
	At            time.Time
}

type ChargeFailure struct {
	Message  string
	Category FailureCategory
}

// ChargeResult holds exactly one of Success or Failure.
type ChargeResult struct {
	Success *ChargeSuccess
	Failure *ChargeFailure
}

func (r ChargeResult) OK() bool {
	return r.Success != nil
}

func Succeeded(txnID string, amount decimal.Decimal, at time.Time) ChargeResult {
	return ChargeResult{Success: &ChargeSuccess{TransactionID: txnID, Amount: amount, At: at}}
}

func Failed(category FailureCategory, message string) ChargeResult {
	return ChargeResult{Failure: &ChargeFailure{Message: message, Category: category}}
}

package payment

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSettlementRecorder_AssignsID(t *testing.T) {
	ledger := new(MockLedger)
	r := NewSettlementRecorder(ledger, observability.NopLogger())
	ledger.On("AppendSettlement", mock.Anything, mock.MatchedBy(func(rec domain.SettlementRecord) bool {
		return rec.ID != uuid.Nil && rec.TransactionID == "T1"
	})).Return(nil).Once()

	err := r.Record(context.Background(), domain.SettlementRecord{BookingID: uuid.New(), TransactionID: "T1", Amount: decimal.NewFromInt(5)})

	assert.NoError(t, err)
	ledger.AssertExpectations(t)
}

func TestSettlementRecorder_DuplicateIsRecorded(t *testing.T) {
	ledger := new(MockLedger)
	r := NewSettlementRecorder(ledger, observability.NopLogger())
	ledger.On("AppendSettlement", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	assert.NoError(t, r.Record(context.Background(), domain.SettlementRecord{TransactionID: "T1"}))
}

func TestSettlementRecorder_FailureIsMarked(t *testing.T) {
	ledger := new(MockLedger)
	r := NewSettlementRecorder(ledger, observability.NopLogger())
	ledger.On("AppendSettlement", mock.Anything, mock.Anything).Return(errors.New("timeout"))

	err := r.Record(context.Background(), domain.SettlementRecord{TransactionID: "T1"})

	assert.True(t, errors.Is(err, domain.ErrRecordingFailure))
}

package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockVoider struct{ mock.Mock }

func (m *MockVoider) Void(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func rejection(t *testing.T, id uuid.UUID) []byte {
	body, err := json.Marshal(domain.BookingRejected{BookingID: id, Reason: "fraud"})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestVoidWorker_Handle(t *testing.T) {
	tests := []struct {
		name    string
		results []error
		wantErr bool
	}{
		{"voided", []error{nil}, false},
		{"already gone", []error{domain.ErrNotFound}, false},
		{"other gateway", []error{errors.Wrap(domain.ErrConflict, "offline")}, false},
		{"recovers on retry", []error{errors.New("timeout"), nil}, false},
		{"gives up", []error{errors.New("timeout"), errors.New("timeout"), errors.New("timeout")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockVoider)
			id := uuid.New()
			for _, res := range tt.results {
				svc.On("Void", mock.Anything, id).Return(nil, res).Once()
			}
			w := NewVoidWorker(svc, observability.NopLogger())
			w.backoff = 0

			err := w.handle(context.Background(), rejection(t, id))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			svc.AssertNumberOfCalls(t, "Void", len(tt.results))
		})
	}
}

func TestVoidWorker_MalformedMessageIsDropped(t *testing.T) {
	svc := new(MockVoider)
	w := NewVoidWorker(svc, observability.NopLogger())
	assert.NoError(t, w.handle(context.Background(), []byte("{")))
	svc.AssertNotCalled(t, "Void", mock.Anything, mock.Anything)
}

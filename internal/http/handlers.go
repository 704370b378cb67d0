package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/bookings"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/idempotency"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 1 << 20

type BookingService interface {
	Submit(ctx context.Context, req bookings.SubmitRequest) (*bookings.Outcome, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Transactions(ctx context.Context, id uuid.UUID) ([]domain.SettlementRecord, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*domain.Booking, error)
	Void(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
}

// Check is a readiness probe of one dependency.
type Check func(ctx context.Context) error

type Handlers struct {
	svc      BookingService
	idemp    *idempotency.Idempotency
	checks   map[string]Check
	validate *validator.Validate
	logger   observability.Logger
}

func NewHandlers(svc BookingService, idemp *idempotency.Idempotency, checks map[string]Check, logger observability.Logger) *Handlers {
	return &Handlers{
		svc:      svc,
		idemp:    idemp,
		checks:   checks,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	fingerprint := idempotency.Fingerprint(body)
	existing, err := h.idemp.Begin(r.Context(), key, fingerprint)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	status, data := h.createBooking(r.Context(), body)
	if status >= http.StatusInternalServerError {
		if err := h.idemp.Abort(r.Context(), key); err != nil {
			loggerFrom(r.Context(), h.logger).WithError(err).Warn("failed to release idempotency key")
		}
	} else if err := h.idemp.Complete(r.Context(), key, fingerprint, idempotency.Response{Status: status, Result: data}); err != nil {
		loggerFrom(r.Context(), h.logger).WithError(err).Error("failed to store idempotent response")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (h *Handlers) createBooking(ctx context.Context, body []byte) (int, []byte) {
	var req createBookingRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return errorBody(http.StatusBadRequest, "invalid JSON: "+err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return errorBody(http.StatusUnprocessableEntity, err.Error())
	}

	out, err := h.svc.Submit(ctx, req.toSubmit())
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			loggerFrom(ctx, h.logger).WithError(err).Error("booking submission failed")
		}
		return errorBody(status, msg)
	}

	resp := toBookingResponse(out.Booking)
	resp.Message = out.Message
	resp.Errors = out.Errors
	status := http.StatusCreated
	if !out.OK {
		status = http.StatusPaymentRequired
	}
	data, _ := json.Marshal(resp)
	return status, data
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	recs, err := h.svc.Transactions(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, transactionResponse{
			TransactionID: rec.TransactionID,
			Gateway:       rec.Gateway,
			Amount:        rec.Amount.StringFixed(2),
			Currency:      rec.Currency,
			Status:        rec.Status,
			At:            rec.At.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": out})
}

func (h *Handlers) BookingAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.History(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{Action: e.Action, At: e.At.UTC().Format(time.RFC3339), Data: e.Data})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": out})
}

func (h *Handlers) RejectBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	b, err := h.svc.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toBookingResponse(b))
}

func (h *Handlers) VoidBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Void(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := toBookingResponse(b)
	resp.Errors = b.Errors
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Readyz pings every dependency concurrently.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		g.Go(func() error {
			if err := check(ctx); err != nil {
				return errors.Wrapf(err, "%s not ready", name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		loggerFrom(r.Context(), h.logger).WithError(err).Warn("readiness check failed")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		loggerFrom(r.Context(), h.logger).WithError(err).Error("request failed")
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrSerializationFailure):
		return http.StatusConflict, "conflict, try again"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func bookingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func errorBody(status int, msg string) (int, []byte) {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return status, data
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

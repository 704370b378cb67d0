package payment

import (
	"context"
	"time"

	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Deps struct {
	Bookings  BookingStore
	Customers CustomerStore
	Processor Processor
	Ledger    Ledger
	Events    EventBus
	Auditor   Auditor
	Logger    observability.Logger
}

// Gateway drives a booking through payment: it charges priced bookings after
// they are saved, settles status silently on success and rolls the booking back
// on failure.
type Gateway struct {
	name     string
	settings Settings
	bookings BookingStore
	charger  *ChargeRequester
	recorder *SettlementRecorder
	rollback *RollbackCoordinator
	events   EventBus
	auditor  Auditor
	logger   observability.Logger
}

func NewGateway(settings Settings, deps Deps) *Gateway {
	logger := deps.Logger.WithField("gateway", GatewayName)
	return &Gateway{
		name:     GatewayName,
		settings: settings,
		bookings: deps.Bookings,
		charger:  NewChargeRequester(GatewayName, settings.Currency, deps.Processor, logger),
		recorder: NewSettlementRecorder(deps.Ledger, logger),
		rollback: NewRollbackCoordinator(settings, deps.Bookings, deps.Customers, deps.Auditor, deps.Events, logger),
		events:   deps.Events,
		auditor:  deps.Auditor,
		logger:   logger,
	}
}

func (g *Gateway) Name() string {
	return g.name
}

func (g *Gateway) Settings() Settings {
	return g.settings
}

// Attempt is one booking submission in flight.
type Attempt struct {
	Booking   *domain.Booking
	Customer  *domain.Customer
	Event     domain.Event
	Token     *TokenHolder
	Notices   *Notices
	StartedAt time.Time
}

// BeginBooking runs before the booking is first saved. Priced bookings wait
// for payment until the charge resolves.
func (g *Gateway) BeginBooking(booking *domain.Booking, customer *domain.Customer, event domain.Event, token *TokenHolder, notices *Notices, now time.Time) *Attempt {
	booking.Gateway = g.name
	if booking.HasPrice() {
		booking.Status = domain.StatusAwaitingPayment
	}
	if notices == nil {
		notices = &Notices{}
	}
	return &Attempt{
		Booking:   booking,
		Customer:  customer,
		Event:     event,
		Token:     token,
		Notices:   notices,
		StartedAt: now,
	}
}

// AfterSave runs once the booking subsystem has tried to save the booking and
// returns the final save result. A false result means the booking must be
// treated as not created.
func (g *Gateway) AfterSave(ctx context.Context, att *Attempt, saved bool) bool {
	b := att.Booking
	g.publish(ctx, domain.BookingSaveAttempted{
		BookingID: b.ID,
		EventID:   b.EventID,
		Price:     b.Price,
		Gateway:   g.name,
		Saved:     saved,
		StartedAt: att.StartedAt,
	})
	if !saved || !b.HasPrice() {
		return saved
	}

	ctx, span := otel.Tracer("payment").Start(ctx, "payment.charge")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", b.ID.String()),
		attribute.String("booking.price", b.Price.String()),
	)

	log := g.logger.WithField("booking_id", b.ID)
	result := g.charger.Charge(ctx, b, att.Customer, att.Event, att.Token)
	g.audit(ctx, b, result)

	if !result.OK() {
		span.SetStatus(codes.Error, result.Failure.Message)
		b.AddError(result.Failure.Message)
		att.Notices.Error(result.Failure.Message)
		g.publish(ctx, domain.ChargeFailed{BookingID: b.ID, Message: result.Failure.Message, Category: result.Failure.Category})

		rc := RollbackContext{ProcessingStartedAt: att.StartedAt, Notices: att.Notices}
		if err := g.rollback.Rollback(ctx, b, att.Customer, rc); err != nil {
			log.WithError(err).Warn("rollback incomplete")
		}
		return false
	}

	success := result.Success
	if err := g.bookings.UpdatePayments(ctx, b); err != nil {
		log.WithError(err).Error("failed to persist payment metadata")
	}
	if err := g.recorder.Record(ctx, domain.SettlementRecord{
		BookingID:     b.ID,
		Gateway:       g.name,
		Amount:        success.Amount,
		Currency:      g.settings.Currency,
		At:            success.At,
		TransactionID: success.TransactionID,
		Status:        SettlementCompleted,
	}); err != nil {
		span.RecordError(err)
	}
	g.publish(ctx, domain.ChargeCompleted{
		BookingID:     b.ID,
		TransactionID: success.TransactionID,
		Amount:        success.Amount,
		Currency:      g.settings.Currency,
		At:            success.At,
	})

	next := domain.StatusApproved
	if g.settings.holdForManualApproval() {
		next = domain.StatusAwaitingManualApproval
	}
	g.setStatusSilently(ctx, b, next)
	return true
}

// setStatusSilently changes status without notification emails; those belong to
// the booking creation flow.
func (g *Gateway) setStatusSilently(ctx context.Context, b *domain.Booking, status domain.BookingStatus) {
	prev := b.Status
	if err := g.bookings.SetStatus(ctx, b.ID, status, false); err != nil {
		g.logger.WithError(err).WithField("booking_id", b.ID).Error("failed to set booking status after payment")
		return
	}
	b.PreviousStatus = prev
	b.Status = status
	g.publish(ctx, domain.BookingStatusChanged{BookingID: b.ID, From: prev, To: status, Notify: false})
}

func (g *Gateway) publish(ctx context.Context, evt domain.DomainEvent) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, evt); err != nil {
		g.logger.WithError(err).WithField("event", evt.EventType()).Warn("failed to publish event")
	}
}

func (g *Gateway) audit(ctx context.Context, b *domain.Booking, result domain.ChargeResult) {
	if g.auditor == nil {
		return
	}
	data := map[string]interface{}{
		"amount":   b.Price.String(),
		"currency": g.settings.Currency,
	}
	action := domain.EventChargeCompleted
	if result.OK() {
		data["transaction_id"] = result.Success.TransactionID
	} else {
		action = domain.EventChargeFailed
		data["message"] = result.Failure.Message
		data["category"] = string(result.Failure.Category)
	}
	if err := g.auditor.LogEvent(ctx, action, b.ID, data); err != nil {
		g.logger.WithError(err).Warn("failed to audit charge")
	}
}

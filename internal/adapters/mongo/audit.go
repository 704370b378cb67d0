package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	BookingID string    `bson:"booking_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action string, bookingID uuid.UUID, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		BookingID: bookingID.String(),
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.WithError(err).WithField("action", action).Error("failed to insert audit log")
		return err
	}
	return nil
}

// History returns the audit trail of one booking, oldest first.
func (a *AuditLogger) History(ctx context.Context, bookingID uuid.UUID) ([]domain.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := a.coll.Find(ctx, bson.M{"booking_id": bookingID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, domain.AuditEntry{Action: l.Action, At: l.Timestamp, Data: map[string]interface{}(l.Data)})
	}
	return out, nil
}

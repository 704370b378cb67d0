package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("events"),
		logger: logger,
	}
}

type EventDoc struct {
	ID        string      `bson:"_id"`
	Name      string      `bson:"name"`
	Venue     string      `bson:"venue"`
	Date      time.Time   `bson:"date"`
	Tickets   []TicketDoc `bson:"tickets"`
	CreatedAt time.Time   `bson:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

// TicketDoc keeps the price as a decimal string.
type TicketDoc struct {
	ID    string `bson:"id"`
	Name  string `bson:"name"`
	Price string `bson:"price"`
}

func (c *CatalogRepository) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	var doc EventDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Event{}, domain.ErrNotFound
	}
	if err != nil {
		c.logger.WithError(err).Error("failed to get event")
		return domain.Event{}, err
	}
	return doc.toDomain()
}

func (d EventDoc) toDomain() (domain.Event, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Event{}, errors.Wrap(err, "event id")
	}
	ev := domain.Event{ID: id, Name: d.Name, Tickets: make(map[uuid.UUID]decimal.Decimal, len(d.Tickets))}
	for _, t := range d.Tickets {
		tid, err := uuid.Parse(t.ID)
		if err != nil {
			return domain.Event{}, errors.Wrapf(err, "ticket id %q", t.ID)
		}
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return domain.Event{}, errors.Wrapf(err, "ticket %s price", t.ID)
		}
		ev.Tickets[tid] = price
	}
	return ev, nil
}

func (c *CatalogRepository) UpsertEvent(ctx context.Context, event EventDoc) error {
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": event.ID}, event, options.Replace().SetUpsert(true))
	if err != nil {
		c.logger.WithError(err).Error("failed to upsert event")
		return err
	}
	return nil
}

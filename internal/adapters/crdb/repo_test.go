package crdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/crdb"
	"github.com/robertarktes/securesubmit-bookings/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRepository(t *testing.T) *crdb.Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp", "8080/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "postgresql")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, endpoint+"/defaultdb?sslmode=disable&user=root")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := crdb.NewRepository(pool)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestRepository_BookingLifecycle(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	customer := &domain.Customer{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Anonymous:    true,
		RegisteredAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateCustomer(ctx, customer))

	byEmail, err := repo.GetCustomerByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, byEmail.ID)
	assert.True(t, byEmail.Anonymous)

	tickets := []domain.TicketBooking{{TicketID: uuid.New(), Spaces: 2, Price: decimal.RequireFromString("25.00")}}
	b := domain.NewBooking(uuid.New(), customer.ID, tickets, time.Now().UTC())
	b.Gateway = "securesubmit"
	b.Status = domain.StatusAwaitingPayment

	require.NoError(t, repo.SaveBooking(ctx, b))
	require.NotEqual(t, uuid.Nil, b.ID)

	b.SetPayment("securesubmit", domain.PaymentMeta{TransactionID: "txn-1", Amount: b.Price})
	require.NoError(t, repo.UpdatePayments(ctx, b))
	require.NoError(t, repo.UpdateBookingStatus(ctx, b.ID, domain.StatusApproved))

	loaded, err := repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, loaded.Status)
	assert.True(t, loaded.Price.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, "txn-1", loaded.Payments["securesubmit"].TransactionID)
	require.Len(t, loaded.Tickets, 1)
	assert.Equal(t, 2, loaded.Tickets[0].Spaces)

	require.NoError(t, repo.DeleteTickets(ctx, b.ID))
	require.NoError(t, repo.DeleteBooking(ctx, b.ID))

	_, err = repo.GetBooking(ctx, b.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(repo.DeleteBooking(ctx, b.ID), domain.ErrNotFound))
	assert.True(t, errors.Is(repo.DeleteCustomer(ctx, uuid.New()), domain.ErrNotFound))
}

func TestRepository_SettlementsAreAppendOnly(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	rec := domain.SettlementRecord{
		ID:            uuid.New(),
		BookingID:     uuid.New(),
		Gateway:       "securesubmit",
		Amount:        decimal.RequireFromString("50.00"),
		Currency:      "usd",
		At:            time.Now().UTC(),
		TransactionID: "txn-1",
		Status:        "Completed",
	}
	require.NoError(t, repo.AppendSettlement(ctx, rec))

	dup := rec
	dup.ID = uuid.New()
	err := repo.AppendSettlement(ctx, dup)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	list, err := repo.ListSettlements(ctx, rec.BookingID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "txn-1", list[0].TransactionID)
}

func TestRepository_StaleAwaitingPayment(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	old := domain.NewBooking(uuid.New(), uuid.New(), nil, time.Now().Add(-2*time.Hour).UTC())
	old.Status = domain.StatusAwaitingPayment
	require.NoError(t, repo.SaveBooking(ctx, old))

	paid := domain.NewBooking(uuid.New(), uuid.New(), nil, time.Now().Add(-2*time.Hour).UTC())
	paid.Status = domain.StatusAwaitingPayment
	paid.SetPayment("securesubmit", domain.PaymentMeta{TransactionID: "txn-2"})
	require.NoError(t, repo.SaveBooking(ctx, paid))

	fresh := domain.NewBooking(uuid.New(), uuid.New(), nil, time.Now().UTC())
	fresh.Status = domain.StatusAwaitingPayment
	require.NoError(t, repo.SaveBooking(ctx, fresh))

	ids, err := repo.StaleAwaitingPayment(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{old.ID}, ids)
}

func TestRepository_Outbox(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	for _, key := range []string{"k1", "k2"} {
		require.NoError(t, repo.AppendOutbox(ctx, crdb.OutboxRecord{
			AggregateType: "booking",
			AggregateID:   uuid.New(),
			EventType:     "booking.rejected",
			Payload:       []byte(`{"reason":"sold out"}`),
			DedupeKey:     key,
		}))
	}

	var seen []string
	n, err := repo.ProcessOutbox(ctx, 10, func(rec crdb.OutboxRecord) error {
		seen = append(seen, rec.DedupeKey)
		if rec.DedupeKey == "k2" {
			return errors.New("broker down")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ElementsMatch(t, []string{"k1", "k2"}, seen)

	seen = nil
	n, err = repo.ProcessOutbox(ctx, 10, func(rec crdb.OutboxRecord) error {
		seen = append(seen, rec.DedupeKey)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"k2"}, seen)
}

func TestRepository_RejectBookingQueuesEvent(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	err := repo.RejectBooking(ctx, uuid.New(), crdb.OutboxRecord{EventType: "booking.rejected", Payload: []byte(`{}`), DedupeKey: "missing"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	b := domain.NewBooking(uuid.New(), uuid.New(), []domain.TicketBooking{{TicketID: uuid.New(), Spaces: 1, Price: decimal.RequireFromString("10.00")}}, time.Now().UTC())
	b.Gateway = "securesubmit"
	require.NoError(t, repo.SaveBooking(ctx, b))

	require.NoError(t, repo.RejectBooking(ctx, b.ID, crdb.OutboxRecord{
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     "booking.rejected",
		Payload:       []byte(`{"reason":"fraud"}`),
		DedupeKey:     "rejected",
	}))

	loaded, err := repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, loaded.Status)

	var keys []string
	_, err = repo.ProcessOutbox(ctx, 10, func(rec crdb.OutboxRecord) error {
		keys = append(keys, rec.DedupeKey)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rejected"}, keys)
}

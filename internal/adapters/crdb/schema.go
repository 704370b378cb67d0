package crdb

import "context"

const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	street TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	postal TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	anonymous BOOL NOT NULL DEFAULT false,
	registered_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	customer_id UUID NOT NULL,
	price DECIMAL NOT NULL,
	status INT NOT NULL,
	gateway TEXT NOT NULL DEFAULT '',
	payments JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	INDEX bookings_status_created (status, created_at)
);
CREATE TABLE IF NOT EXISTS ticket_bookings (
	booking_id UUID NOT NULL,
	ticket_id UUID NOT NULL,
	spaces INT NOT NULL,
	price DECIMAL NOT NULL,
	PRIMARY KEY (booking_id, ticket_id)
);
CREATE TABLE IF NOT EXISTS transactions (
	id UUID PRIMARY KEY,
	booking_id UUID NOT NULL,
	gateway TEXT NOT NULL,
	amount DECIMAL NOT NULL,
	currency TEXT NOT NULL,
	at TIMESTAMPTZ NOT NULL,
	transaction_id TEXT NOT NULL,
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	UNIQUE (booking_id, transaction_id)
);
CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	payload_json JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ,
	status TEXT NOT NULL CHECK (status IN ('NEW', 'PUBLISHED', 'FAILED')),
	dedupe_key TEXT NOT NULL
);
`

func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

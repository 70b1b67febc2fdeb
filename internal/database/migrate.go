package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Times are stored as minutes since midnight (0..1439) so the overlap
// predicate in the capacity ledger stays plain integer arithmetic.
//
// The CHECK constraints are the store-side backstop for the invariants the
// service enforces: a row that slips past the application can still never
// carry an out-of-range party size or an unknown status.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS restaurants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	max_capacity INT NOT NULL CHECK (max_capacity > 0),
	opening_time INT NOT NULL CHECK (opening_time BETWEEN 0 AND 1439),
	closing_time INT NOT NULL CHECK (closing_time BETWEEN 0 AND 1439),
	service_duration INT NOT NULL CHECK (service_duration > 0),
	phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (closing_time > opening_time)
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	reservation_date DATE NOT NULL,
	reservation_time INT NOT NULL CHECK (reservation_time BETWEEN 0 AND 1439),
	party_size INT NOT NULL CHECK (party_size BETWEEN 1 AND 20),
	status TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'confirmed', 'rejected', 'cancelled', 'completed')),
	special_requests TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reservations_restaurant_date
	ON reservations(restaurant_id, reservation_date);
CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status);
CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}

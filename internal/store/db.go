package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// schema creates the lookup log table if it does not exist
const schema = `
	CREATE TABLE IF NOT EXISTS vehicle_lookups (
		id              UUID PRIMARY KEY,
		registration    TEXT NOT NULL,
		make            TEXT NOT NULL,
		model           TEXT NOT NULL,
		test_count      INTEGER NOT NULL,
		pass_rate       INTEGER,
		average_mileage DOUBLE PRECISION,
		checksum        TEXT NOT NULL,
		looked_up_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS vehicle_lookups_registration_idx
		ON vehicle_lookups (registration, looked_up_at DESC);
`

// NewDB opens a PostgreSQL connection and verifies it
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the tables used by the lookup log
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

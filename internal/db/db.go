package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var ErrMissingDSN = errors.New("database dsn is empty")

// Connect opens the Postgres pool and optionally creates the orders read table.
func Connect(ctx context.Context, dsn string, migrate bool) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if migrate {
		if err := RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            table_id TEXT,
            order_number TEXT,
            status TEXT NOT NULL,
            total_amount NUMERIC(12,2),
            notes TEXT,
            estimated_prep_time INT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ
        );`,
	`CREATE INDEX IF NOT EXISTS orders_status_created_at_idx ON orders (status, created_at);`,
}

// RunMigrations applies the schema the service reads from.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("database migrations applied")
	return nil
}

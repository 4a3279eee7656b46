// Package postgres is the PostgreSQL storage backend, built on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// Store implements port.Store on a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

// ConnectDB opens and pings a connection pool for databaseURL.
func ConnectDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Serverless Postgres scales to zero, so keep few idle connections.
	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	slog.Info("Connected to Postgres", "max_conns", config.MaxConns)
	return pool, nil
}

// New wraps an open pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Open connects to databaseURL and returns a ready Store.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := ConnectDB(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id              UUID PRIMARY KEY,
	email           VARCHAR(255) NOT NULL UNIQUE,
	name            VARCHAR(200) NOT NULL,
	current_balance NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (current_balance >= 0),
	password_hash   TEXT NOT NULL,
	is_admin        BOOLEAN NOT NULL DEFAULT FALSE,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS api_keys (
	key_hash   TEXT PRIMARY KEY,
	account_id UUID NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
	key_prefix TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS stocks (
	symbol     VARCHAR(10) PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	last_price NUMERIC(10, 2) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id               UUID PRIMARY KEY,
	account_id       UUID NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
	symbol           VARCHAR(10) NOT NULL REFERENCES stocks (symbol) ON DELETE CASCADE,
	transaction_type VARCHAR(4) NOT NULL CHECK (transaction_type IN ('BUY', 'SELL')),
	quantity         BIGINT NOT NULL CHECK (quantity > 0),
	price_each       NUMERIC(10, 2) NOT NULL,
	total_price      NUMERIC(12, 2) NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS transactions_holdings_idx
	ON transactions (account_id, symbol, transaction_type);
CREATE INDEX IF NOT EXISTS transactions_history_idx
	ON transactions (account_id, created_at DESC);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	account_id      UUID NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
	key_id          TEXT NOT NULL,
	response_status INT NOT NULL,
	response_body   BYTEA NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (account_id, key_id)
);

CREATE INDEX IF NOT EXISTS idempotency_keys_created_idx ON idempotency_keys (created_at);
`

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound.
func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

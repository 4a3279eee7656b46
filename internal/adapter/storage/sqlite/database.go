// Package sqlite is the embedded storage backend. Amounts are stored as
// integer cents and instants as Unix nanoseconds so comparisons stay exact.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

var _ port.Store = (*Store)(nil)

// Store implements port.Store on a single SQLite connection. With one
// connection every transaction runs alone, which serializes settlements.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id                    TEXT PRIMARY KEY,
		email                 TEXT NOT NULL UNIQUE,
		name                  TEXT NOT NULL,
		current_balance_cents INTEGER NOT NULL DEFAULT 0 CHECK (current_balance_cents >= 0),
		password_hash         TEXT NOT NULL,
		is_admin              INTEGER NOT NULL DEFAULT 0,
		is_active             INTEGER NOT NULL DEFAULT 1,
		created_at            INTEGER NOT NULL,
		updated_at            INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		key_hash   TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
		key_prefix TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS stocks (
		symbol           TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		last_price_cents INTEGER NOT NULL,
		updated_at       INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                TEXT PRIMARY KEY,
		account_id        TEXT NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
		symbol            TEXT NOT NULL REFERENCES stocks (symbol) ON DELETE CASCADE,
		transaction_type  TEXT NOT NULL CHECK (transaction_type IN ('BUY', 'SELL')),
		quantity          INTEGER NOT NULL CHECK (quantity > 0),
		price_each_cents  INTEGER NOT NULL,
		total_price_cents INTEGER NOT NULL,
		created_at        INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS transactions_holdings_idx ON transactions (account_id, symbol, transaction_type);`,
	`CREATE INDEX IF NOT EXISTS transactions_history_idx ON transactions (account_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		account_id      TEXT NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
		key_id          TEXT NOT NULL,
		response_status INTEGER NOT NULL,
		response_body   BLOB NOT NULL,
		created_at      INTEGER NOT NULL,
		PRIMARY KEY (account_id, key_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idempotency_keys_created_idx ON idempotency_keys (created_at);`,
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// toCents converts a validated two-place amount.
func toCents(d decimal.Decimal) int64 {
	return d.Shift(domain.MoneyPlaces).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -domain.MoneyPlaces)
}

// lowerBound is the smallest cent value >= d; upperBound the largest <= d.
// Filter values outside the storable range are clamped.
func lowerBound(d decimal.Decimal) int64 {
	return clampCents(d.Shift(domain.MoneyPlaces).Ceil())
}

func upperBound(d decimal.Decimal) int64 {
	return clampCents(d.Shift(domain.MoneyPlaces).Floor())
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

func clampCents(d decimal.Decimal) int64 {
	if d.GreaterThan(maxCents) {
		return math.MaxInt64
	}
	if d.LessThan(minCents) {
		return math.MinInt64
	}
	return d.IntPart()
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

var (
	minInstant = time.Unix(0, math.MinInt64)
	maxInstant = time.Unix(0, math.MaxInt64)
)

// boundNanos converts a filter bound, clamping instants UnixNano cannot
// represent (before 1678 or after 2262).
func boundNanos(t time.Time) int64 {
	if t.Before(minInstant) {
		return math.MinInt64
	}
	if t.After(maxInstant) {
		return math.MaxInt64
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

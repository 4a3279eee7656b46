package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

// A reserved key has response_status 0 until its request is answered.

func (s *Store) ReserveKey(ctx context.Context, accountID uuid.UUID, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO idempotency_keys (account_id, key_id, response_status, response_body, created_at) VALUES (?, ?, 0, x'', ?) ON CONFLICT DO NOTHING",
		accountID, key, toNanos(time.Now()))
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return n == 1, nil
}

func (s *Store) LookupResponse(ctx context.Context, accountID uuid.UUID, key string) (*port.CachedResponse, error) {
	var resp port.CachedResponse
	err := s.db.QueryRowContext(ctx,
		"SELECT response_status, response_body FROM idempotency_keys WHERE account_id = ? AND key_id = ?",
		accountID, key).Scan(&resp.Status, &resp.Body)
	if err != nil {
		return nil, notFound("idempotency key", err)
	}
	resp.Pending = resp.Status == 0
	return &resp, nil
}

func (s *Store) SaveResponse(ctx context.Context, accountID uuid.UUID, key string, resp port.CachedResponse) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE idempotency_keys SET response_status = ?, response_body = ? WHERE account_id = ? AND key_id = ? AND response_status = 0",
		resp.Status, resp.Body, accountID, key)
	if err != nil {
		return fmt.Errorf("failed to save idempotency key: %w", err)
	}
	return nil
}

func (s *Store) ReleaseKey(ctx context.Context, accountID uuid.UUID, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM idempotency_keys WHERE account_id = ? AND key_id = ? AND response_status = 0",
		accountID, key)
	if err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

func (s *Store) PurgeResponses(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM idempotency_keys WHERE created_at < ?", toNanos(before))
	if err != nil {
		return 0, fmt.Errorf("failed to purge idempotency keys: %w", err)
	}
	return res.RowsAffected()
}

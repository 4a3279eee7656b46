package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

const accountColumns = `a.id, a.email, a.name, a.current_balance_cents, a.password_hash,
	a.is_admin, a.is_active, a.created_at, a.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var acc domain.Account
	var balance, createdAt, updatedAt int64
	err := row.Scan(
		&acc.ID, &acc.Email, &acc.Name, &balance, &acc.PasswordHash,
		&acc.IsAdmin, &acc.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.Balance = fromCents(balance)
	acc.CreatedAt = fromNanos(createdAt)
	acc.UpdatedAt = fromNanos(updatedAt)
	return &acc, nil
}

func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, current_balance_cents, password_hash, is_admin, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		acc.ID, acc.Email, acc.Name, toCents(acc.Balance), acc.PasswordHash,
		acc.IsAdmin, acc.IsActive, toNanos(acc.CreatedAt), toNanos(acc.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %s: %w", acc.Email, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = ?`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("account", err)
	}
	return acc, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.email = ?`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound("account", err)
	}
	return acc, nil
}

func (s *Store) GetAccountByAPIKey(ctx context.Context, keyHash string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM api_keys k JOIN accounts a ON a.id = k.account_id
		WHERE k.key_hash = ?`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, keyHash))
	if err != nil {
		return nil, notFound("api key", err)
	}
	return acc, nil
}

func (s *Store) SaveAPIKey(ctx context.Context, accountID uuid.UUID, keyHash, keyPrefix string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (account_id, key_hash, key_prefix, created_at) VALUES (?, ?, ?, ?)`,
		accountID, keyHash, keyPrefix, toNanos(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

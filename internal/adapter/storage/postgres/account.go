package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

const accountColumns = `a.id, a.email, a.name, a.current_balance::text, a.password_hash,
	a.is_admin, a.is_active, a.created_at, a.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var acc domain.Account
	var balance string
	err := row.Scan(
		&acc.ID, &acc.Email, &acc.Name, &balance, &acc.PasswordHash,
		&acc.IsAdmin, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if acc.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	return &acc, nil
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, current_balance, password_hash, is_admin, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
	`
	_, err := s.db.Exec(ctx, query,
		acc.ID, acc.Email, acc.Name, domain.FormatMoney(acc.Balance), acc.PasswordHash,
		acc.IsAdmin, acc.IsActive, acc.CreatedAt, acc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %s: %w", acc.Email, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByID
func (s *Store) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = $1`
	acc, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound("account", err)
	}
	return acc, nil
}

// GetAccountByEmail
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.email = $1`
	acc, err := scanAccount(s.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound("account", err)
	}
	return acc, nil
}

// GetAccountByAPIKey resolves the owner of a hashed API key.
func (s *Store) GetAccountByAPIKey(ctx context.Context, keyHash string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM api_keys k JOIN accounts a ON a.id = k.account_id
		WHERE k.key_hash = $1`
	acc, err := scanAccount(s.db.QueryRow(ctx, query, keyHash))
	if err != nil {
		return nil, notFound("api key", err)
	}
	return acc, nil
}

// SaveAPIKey stores the hashed key for the user
func (s *Store) SaveAPIKey(ctx context.Context, accountID uuid.UUID, keyHash, keyPrefix string) error {
	query := `INSERT INTO api_keys (account_id, key_hash, key_prefix) VALUES ($1, $2, $3)`

	_, err := s.db.Exec(ctx, query, accountID, keyHash, keyPrefix)
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

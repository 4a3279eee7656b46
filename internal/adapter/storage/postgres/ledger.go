package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

var _ port.Store = (*Store)(nil)

// WithAccount runs fn in a database transaction holding a row lock on the
// account. Concurrent settlements for the same account queue on that lock.
func (s *Store) WithAccount(ctx context.Context, accountID uuid.UUID, fn func(tx port.LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = $1 FOR UPDATE`
	acc, err := scanAccount(tx.QueryRow(ctx, query, accountID))
	if err != nil {
		return notFound("account", err)
	}

	if err := fn(&ledgerTx{tx: tx, account: acc}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

type ledgerTx struct {
	tx      pgx.Tx
	account *domain.Account
}

func (l *ledgerTx) Account() *domain.Account { return l.account }

func (l *ledgerTx) Holdings(ctx context.Context, symbol string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN transaction_type = 'BUY' THEN quantity ELSE -quantity END), 0)::bigint
		FROM transactions
		WHERE account_id = $1 AND symbol = $2
	`
	var available int64
	if err := l.tx.QueryRow(ctx, query, l.account.ID, symbol).Scan(&available); err != nil {
		return 0, fmt.Errorf("failed to sum holdings: %w", err)
	}
	return available, nil
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, symbol, transaction_type, quantity, price_each, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)
	`
	_, err := l.tx.Exec(ctx, query,
		t.ID, t.AccountID, t.Symbol, string(t.Side), t.Quantity,
		domain.FormatMoney(t.PriceEach), domain.FormatMoney(t.TotalPrice), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (l *ledgerTx) UpdateBalance(ctx context.Context, balance decimal.Decimal) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE accounts SET current_balance = $1::numeric, updated_at = NOW() WHERE id = $2`,
		domain.FormatMoney(balance), l.account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to update balance: %d rows affected", tag.RowsAffected())
	}
	l.account.Balance = balance
	return nil
}

// ListTransactions returns the account's transactions matching filter, most
// recent first.
func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	where := storage.NewWhere(storage.Dollar).Add("account_id = ?", accountID)
	if filter.Symbol != "" {
		where.Add("symbol = ?", filter.Symbol)
	}
	if filter.Side != "" {
		where.Add("transaction_type = ?", string(filter.Side))
	}
	if filter.CreatedFrom != nil {
		where.Add("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedBefore != nil {
		where.Add("created_at < ?", *filter.CreatedBefore)
	}
	if filter.MinPrice != nil {
		where.Add("price_each >= ?::numeric", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		where.Add("price_each <= ?::numeric", filter.MaxPrice.String())
	}

	query := `
		SELECT id, account_id, symbol, transaction_type, quantity, price_each::text, total_price::text, created_at
		FROM transactions` + where.SQL() + `
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	history := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		var side, priceEach, total string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &side, &t.Quantity, &priceEach, &total, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Side = domain.Side(side)
		if t.PriceEach, err = decimal.NewFromString(priceEach); err != nil {
			return nil, fmt.Errorf("invalid price_each %q: %w", priceEach, err)
		}
		if t.TotalPrice, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid total_price %q: %w", total, err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		history = append(history, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return history, nil
}

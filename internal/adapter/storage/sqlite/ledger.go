package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

// WithAccount runs fn in a transaction on the store's only connection, so no
// other statement interleaves with the read-check-write of a settlement.
func (s *Store) WithAccount(ctx context.Context, accountID uuid.UUID, fn func(tx port.LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = ?`
	acc, err := scanAccount(tx.QueryRowContext(ctx, query, accountID))
	if err != nil {
		return notFound("account", err)
	}

	if err := fn(&ledgerTx{tx: tx, account: acc}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

type ledgerTx struct {
	tx      *sql.Tx
	account *domain.Account
}

func (l *ledgerTx) Account() *domain.Account { return l.account }

func (l *ledgerTx) Holdings(ctx context.Context, symbol string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN transaction_type = 'BUY' THEN quantity ELSE -quantity END), 0)
		FROM transactions
		WHERE account_id = ? AND symbol = ?
	`
	var available int64
	if err := l.tx.QueryRowContext(ctx, query, l.account.ID, symbol).Scan(&available); err != nil {
		return 0, fmt.Errorf("failed to sum holdings: %w", err)
	}
	return available, nil
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, symbol, transaction_type, quantity, price_each_cents, total_price_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.tx.ExecContext(ctx, query,
		t.ID, t.AccountID, t.Symbol, string(t.Side), t.Quantity,
		toCents(t.PriceEach), toCents(t.TotalPrice), toNanos(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (l *ledgerTx) UpdateBalance(ctx context.Context, balance decimal.Decimal) error {
	res, err := l.tx.ExecContext(ctx,
		`UPDATE accounts SET current_balance_cents = ?, updated_at = ? WHERE id = ?`,
		toCents(balance), toNanos(time.Now()), l.account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return fmt.Errorf("failed to update balance: %d rows affected (%v)", n, err)
	}
	l.account.Balance = balance
	return nil
}

// ListTransactions returns the account's transactions matching filter, most
// recent first.
func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	where := storage.NewWhere(storage.Question).Add("account_id = ?", accountID)
	if filter.Symbol != "" {
		where.Add("symbol = ?", filter.Symbol)
	}
	if filter.Side != "" {
		where.Add("transaction_type = ?", string(filter.Side))
	}
	if filter.CreatedFrom != nil {
		where.Add("created_at >= ?", boundNanos(*filter.CreatedFrom))
	}
	if filter.CreatedBefore != nil {
		where.Add("created_at < ?", boundNanos(*filter.CreatedBefore))
	}
	if filter.MinPrice != nil {
		where.Add("price_each_cents >= ?", lowerBound(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where.Add("price_each_cents <= ?", upperBound(*filter.MaxPrice))
	}

	query := `
		SELECT id, account_id, symbol, transaction_type, quantity, price_each_cents, total_price_cents, created_at
		FROM transactions` + where.SQL() + `
		ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	history := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		var side string
		var priceEach, total, createdAt int64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &side, &t.Quantity, &priceEach, &total, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Side = domain.Side(side)
		t.PriceEach = fromCents(priceEach)
		t.TotalPrice = fromCents(total)
		t.CreatedAt = fromNanos(createdAt)
		history = append(history, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return history, nil
}

package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

const stockColumns = `symbol, name, last_price_cents AS last_price, updated_at`

func scanStock(row rowScanner) (*domain.Stock, error) {
	var st domain.Stock
	var price, updatedAt int64
	if err := row.Scan(&st.Symbol, &st.Name, &price, &updatedAt); err != nil {
		return nil, err
	}
	st.LastPrice = fromCents(price)
	st.UpdatedAt = fromNanos(updatedAt)
	return &st, nil
}

// UpsertStocks creates or updates the catalog entries in one transaction.
func (s *Store) UpsertStocks(ctx context.Context, entries []domain.CatalogEntry, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stocks (symbol, name, last_price_cents, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name, last_price_cents = excluded.last_price_cents, updated_at = excluded.updated_at
	`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query, e.Symbol, e.Name, toCents(e.LastPrice), toNanos(now)); err != nil {
			return fmt.Errorf("failed to upsert stock %s: %w", e.Symbol, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetStock(ctx context.Context, symbol string) (*domain.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE symbol = ?`
	st, err := scanStock(s.db.QueryRowContext(ctx, query, strings.ToUpper(symbol)))
	if err != nil {
		return nil, notFound("stock "+symbol, err)
	}
	return st, nil
}

func (s *Store) ListStocks(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error) {
	where := storage.NewWhere(storage.Question)
	if filter.Symbol != "" {
		where.Add("symbol = ?", strings.ToUpper(filter.Symbol))
	}
	if filter.MinPrice != nil {
		where.Add("last_price_cents >= ?", lowerBound(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where.Add("last_price_cents <= ?", upperBound(*filter.MaxPrice))
	}

	query := `SELECT ` + stockColumns + ` FROM stocks` + where.SQL() + storage.StockOrderBy(filter.Ordering)
	rows, err := s.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := []domain.Stock{}
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return stocks, nil
}

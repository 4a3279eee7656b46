package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

const stockColumns = `symbol, name, last_price::text, updated_at`

func scanStock(row rowScanner) (*domain.Stock, error) {
	var st domain.Stock
	var price string
	if err := row.Scan(&st.Symbol, &st.Name, &price, &st.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if st.LastPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid last_price %q: %w", price, err)
	}
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}

// UpsertStocks creates or updates the catalog entries in one transaction.
func (s *Store) UpsertStocks(ctx context.Context, entries []domain.CatalogEntry, now time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin catalog upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO stocks (symbol, name, last_price, updated_at)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (symbol) DO UPDATE
		SET name = EXCLUDED.name, last_price = EXCLUDED.last_price, updated_at = EXCLUDED.updated_at
	`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, e.Symbol, e.Name, domain.FormatMoney(e.LastPrice), now); err != nil {
			return fmt.Errorf("failed to upsert stock %s: %w", e.Symbol, err)
		}
	}

	return tx.Commit(ctx)
}

// GetStock looks up one symbol. Symbols are stored upper-case.
func (s *Store) GetStock(ctx context.Context, symbol string) (*domain.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE symbol = UPPER($1)`
	st, err := scanStock(s.db.QueryRow(ctx, query, symbol))
	if err != nil {
		return nil, notFound("stock "+symbol, err)
	}
	return st, nil
}

// ListStocks returns the catalog rows matching filter.
func (s *Store) ListStocks(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error) {
	where := storage.NewWhere(storage.Dollar)
	if filter.Symbol != "" {
		where.Add("symbol = UPPER(?)", filter.Symbol)
	}
	if filter.MinPrice != nil {
		where.Add("last_price >= ?::numeric", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		where.Add("last_price <= ?::numeric", filter.MaxPrice.String())
	}

	query := `SELECT ` + stockColumns + ` FROM stocks` + where.SQL() + storage.StockOrderBy(filter.Ordering)
	rows, err := s.db.Query(ctx, query, where.Args()...)
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

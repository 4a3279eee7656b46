package storage

import (
	"testing"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

func TestWhere(t *testing.T) {
	w := NewWhere(Dollar).Add("account_id = ?", "a").Add("symbol = ?", "AAPL")
	if got, want := w.SQL(), " WHERE account_id = $1 AND symbol = $2"; got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}
	if len(w.Args()) != 2 {
		t.Errorf("expected 2 args, got %d", len(w.Args()))
	}

	q := NewWhere(Question).Add("price >= ?", 1)
	if got, want := q.SQL(), " WHERE price >= ?"; got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}

	if NewWhere(Dollar).SQL() != "" {
		t.Errorf("empty Where must render nothing")
	}
}

func TestStockOrderBy(t *testing.T) {
	tests := []struct {
		ordering domain.StockOrdering
		want     string
	}{
		{domain.StockOrdering{}, " ORDER BY symbol ASC"},
		{domain.StockOrdering{Field: domain.SortBySymbol, Descending: true}, " ORDER BY symbol DESC"},
		{domain.StockOrdering{Field: domain.SortByLastPrice, Descending: true}, " ORDER BY last_price DESC, symbol ASC"},
		{domain.StockOrdering{Field: domain.SortByUpdatedAt}, " ORDER BY updated_at ASC, symbol ASC"},
	}
	for _, tt := range tests {
		if got := StockOrderBy(tt.ordering); got != tt.want {
			t.Errorf("StockOrderBy(%v) = %q, want %q", tt.ordering, got, tt.want)
		}
	}
}

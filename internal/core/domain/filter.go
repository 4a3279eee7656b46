package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockSortField is a column the stock catalog can be ordered by.
type StockSortField string

const (
	SortBySymbol    StockSortField = "symbol"
	SortByLastPrice StockSortField = "last_price"
	SortByUpdatedAt StockSortField = "updated_at"
)

// StockOrdering is a sort field plus direction.
type StockOrdering struct {
	Field      StockSortField
	Descending bool
}

func (o StockOrdering) String() string {
	if o.Descending {
		return "-" + string(o.Field)
	}
	return string(o.Field)
}

// StockFilter selects catalog rows. Zero values mean "no constraint".
type StockFilter struct {
	Symbol   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Ordering StockOrdering
}

// Key renders the filter as a stable string, used as a cache key.
func (f StockFilter) Key() string {
	var b strings.Builder
	b.WriteString("symbol=" + f.Symbol)
	b.WriteString("&min=")
	if f.MinPrice != nil {
		b.WriteString(f.MinPrice.String())
	}
	b.WriteString("&max=")
	if f.MaxPrice != nil {
		b.WriteString(f.MaxPrice.String())
	}
	b.WriteString("&ordering=" + f.Ordering.String())
	return b.String()
}

// TransactionFilter selects one account's transactions. CreatedFrom is
// inclusive and CreatedBefore exclusive; both are UTC instants.
type TransactionFilter struct {
	Symbol        string
	Side          Side
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
}

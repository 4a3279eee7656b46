package trading

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// DateLayout is the accepted format of date_after and date_before.
const DateLayout = "2006-01-02"

// StockQuery holds the raw query parameters of a stock search. A nil field
// was not supplied.
type StockQuery struct {
	Symbol   *string
	MinPrice *string
	MaxPrice *string
	Ordering *string
}

// Filter validates the parameters. Empty symbol and ordering values are
// ignored; empty prices are not numeric and are rejected.
func (q StockQuery) Filter() (domain.StockFilter, error) {
	var f domain.StockFilter
	f.Ordering = domain.StockOrdering{Field: domain.SortBySymbol}

	if present(q.Symbol) {
		symbol, err := domain.NormalizeSymbol("symbol", *q.Symbol)
		if err != nil {
			return f, err
		}
		f.Symbol = symbol
	}

	var err error
	if f.MinPrice, err = optionalDecimal("min_price", q.MinPrice); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optionalDecimal("max_price", q.MaxPrice); err != nil {
		return f, err
	}

	if present(q.Ordering) {
		if f.Ordering, err = ParseOrdering(*q.Ordering); err != nil {
			return f, err
		}
	}
	return f, nil
}

var orderingFields = map[string]domain.StockSortField{
	"symbol":     domain.SortBySymbol,
	"last_price": domain.SortByLastPrice,
	"updated_at": domain.SortByUpdatedAt,
}

// ParseOrdering accepts a sort field optionally prefixed with "-" for
// descending order.
func ParseOrdering(raw string) (domain.StockOrdering, error) {
	name := strings.TrimSpace(raw)
	desc := strings.HasPrefix(name, "-")
	name = strings.TrimPrefix(name, "-")

	field, ok := orderingFields[name]
	if !ok {
		return domain.StockOrdering{}, domain.Invalid("ordering", "invalid ordering field: %s", name)
	}
	return domain.StockOrdering{Field: field, Descending: desc}, nil
}

// TransactionQuery holds the raw query parameters of a transaction search.
type TransactionQuery struct {
	Stock      *string
	Side       *string
	DateAfter  *string
	DateBefore *string
	MinPrice   *string
	MaxPrice   *string
}

// Filter validates the parameters. Dates are calendar days in UTC, both
// bounds inclusive.
func (q TransactionQuery) Filter() (domain.TransactionFilter, error) {
	var f domain.TransactionFilter

	if present(q.Stock) {
		symbol, err := domain.NormalizeSymbol("stock", *q.Stock)
		if err != nil {
			return f, err
		}
		f.Symbol = symbol
	}

	if present(q.Side) {
		side, err := domain.ParseSide("transaction_type", *q.Side)
		if err != nil {
			return f, err
		}
		f.Side = side
	}

	if present(q.DateAfter) {
		day, err := parseDate("date_after", *q.DateAfter)
		if err != nil {
			return f, err
		}
		f.CreatedFrom = &day
	}
	if present(q.DateBefore) {
		day, err := parseDate("date_before", *q.DateBefore)
		if err != nil {
			return f, err
		}
		next := day.AddDate(0, 0, 1)
		f.CreatedBefore = &next
	}

	var err error
	if f.MinPrice, err = optionalDecimal("min_price", q.MinPrice); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optionalDecimal("max_price", q.MaxPrice); err != nil {
		return f, err
	}
	return f, nil
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func parseDate(field, raw string) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, domain.Invalid(field, "invalid %s format, expected YYYY-MM-DD", field)
	}
	return day, nil
}

func optionalDecimal(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := domain.ParseDecimal(field, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Package storage holds the SQL helpers shared by the PostgreSQL and SQLite
// backends.
package storage

import (
	"strconv"
	"strings"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// Placeholder renders the n-th (1-based) bind parameter of a dialect.
type Placeholder func(n int) string

// Dollar is the PostgreSQL placeholder style ($1, $2, ...).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question is the SQLite placeholder style.
func Question(int) string { return "?" }

// Where accumulates AND-ed conditions and their arguments.
type Where struct {
	ph    Placeholder
	conds []string
	args  []any
}

func NewWhere(ph Placeholder) *Where {
	return &Where{ph: ph}
}

// Add appends cond, replacing its single "?" with the next placeholder.
func (w *Where) Add(cond string, arg any) *Where {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", w.ph(len(w.args)), 1))
	return w
}

// SQL is the WHERE clause with a leading space, or "" without conditions.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []any { return w.args }

var stockSortColumns = map[domain.StockSortField]string{
	domain.SortBySymbol:    "symbol",
	domain.SortByLastPrice: "last_price",
	domain.SortByUpdatedAt: "updated_at",
}

// StockOrderBy renders the ORDER BY clause of a catalog query. Symbol breaks
// ties so equal prices come back in a stable order.
func StockOrderBy(o domain.StockOrdering) string {
	col, ok := stockSortColumns[o.Field]
	if !ok {
		col = "symbol"
	}
	dir := "ASC"
	if o.Descending {
		dir = "DESC"
	}
	if col == "symbol" {
		return " ORDER BY symbol " + dir
	}
	return " ORDER BY " + col + " " + dir + ", symbol ASC"
}

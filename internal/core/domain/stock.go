package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const maxStockNameLength = 100

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// Stock is a catalog entry. Symbols are stored upper-case and compared
// case-insensitively.
type Stock struct {
	Symbol    string
	Name      string
	LastPrice decimal.Decimal
	UpdatedAt time.Time
}

// NormalizeSymbol upper-cases a ticker and checks its format. field names the
// caller parameter the symbol came from.
func NormalizeSymbol(field, raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return "", Invalid(field, "%s is required", field)
	}
	if !symbolPattern.MatchString(symbol) {
		return "", Invalid(field, "invalid stock symbol %q", raw)
	}
	return symbol, nil
}

// CatalogEntry is one row of the reference stock list.
type CatalogEntry struct {
	Symbol    string          `yaml:"symbol"`
	Name      string          `yaml:"name"`
	LastPrice decimal.Decimal `yaml:"last_price"`
}

// Validate normalizes the entry in place.
func (e *CatalogEntry) Validate() error {
	symbol, err := NormalizeSymbol("symbol", e.Symbol)
	if err != nil {
		return err
	}
	e.Symbol = symbol

	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return Invalid("name", "stock %s has no name", symbol)
	}
	if len(e.Name) > maxStockNameLength {
		return Invalid("name", "stock %s name must be at most %d characters", symbol, maxStockNameLength)
	}
	return CheckMoney("last_price", e.LastPrice, MaxUnitPrice)
}

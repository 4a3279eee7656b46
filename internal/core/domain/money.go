package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept for every amount.
const MoneyPlaces = 2

var (
	// MaxUnitPrice bounds a stock or execution price (10 digits, 2 decimals).
	MaxUnitPrice = decimal.RequireFromString("99999999.99")
	// MaxAmount bounds totals and balances (12 digits, 2 decimals).
	MaxAmount = decimal.RequireFromString("9999999999.99")
)

// ParseDecimal parses a numeric query value. Empty or non-numeric input is
// rejected with a message naming field.
func ParseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, Invalid(field, "%s must be a numeric value", field)
	}
	return d, nil
}

// CheckMoney validates an amount: non-negative, at most two significant
// fractional digits and not above max.
func CheckMoney(field string, amount, max decimal.Decimal) error {
	if amount.IsNegative() {
		return Invalid(field, "%s cannot be negative", field)
	}
	if !amount.Equal(amount.Truncate(MoneyPlaces)) {
		return Invalid(field, "%s must have at most %d decimal places", field, MoneyPlaces)
	}
	if amount.GreaterThan(max) {
		return Invalid(field, "%s must not exceed %s", field, max.StringFixed(MoneyPlaces))
	}
	return nil
}

// TotalPrice is unit × quantity rounded toward zero to two places. The
// platform never rounds a trade total up.
func TotalPrice(unit decimal.Decimal, quantity int64) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(quantity)).RoundDown(MoneyPlaces)
}

// FormatMoney renders an amount with exactly two fractional digits.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(MoneyPlaces)
}

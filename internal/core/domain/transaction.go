package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts BUY or SELL in any letter case.
func ParseSide(field, raw string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", Invalid(field, "transaction side must be BUY or SELL")
}

// Transaction is a settled order. It is immutable once stored.
type Transaction struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Symbol     string
	Side       Side
	Quantity   int64
	PriceEach  decimal.Decimal
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// Order is a request to buy or sell Quantity shares of Symbol at PriceEach.
type Order struct {
	Symbol    string
	Side      Side
	Quantity  int64
	PriceEach decimal.Decimal
}

// Normalize validates the order fields and upper-cases the symbol.
func (o *Order) Normalize() error {
	symbol, err := NormalizeSymbol("stock", o.Symbol)
	if err != nil {
		return err
	}
	o.Symbol = symbol

	side, err := ParseSide("transaction_type", string(o.Side))
	if err != nil {
		return err
	}
	o.Side = side

	if o.Quantity <= 0 {
		return Invalid("quantity", "quantity must be a positive integer")
	}
	if err := CheckMoney("price_each", o.PriceEach, MaxUnitPrice); err != nil {
		return err
	}
	if TotalPrice(o.PriceEach, o.Quantity).GreaterThan(MaxAmount) {
		return Invalid("quantity", "order total must not exceed %s", FormatMoney(MaxAmount))
	}
	return nil
}

// NewTransaction records o as executed for accountID at now.
func NewTransaction(accountID uuid.UUID, o Order, now time.Time) Transaction {
	return Transaction{
		ID:         uuid.New(),
		AccountID:  accountID,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Quantity:   o.Quantity,
		PriceEach:  o.PriceEach,
		TotalPrice: TotalPrice(o.PriceEach, o.Quantity),
		CreatedAt:  now.UTC(),
	}
}

// Settlement is the result of a successful order: the stored transaction and
// the account balance right after it.
type Settlement struct {
	Transaction Transaction
	Balance     decimal.Decimal
}

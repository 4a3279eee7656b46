package trading

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

// PriceMode selects who is trusted with the execution price of an order.
type PriceMode string

const (
	// PriceTrusted accepts the caller's price as-is.
	PriceTrusted PriceMode = "trusted"
	// PriceCatalog requires the price to lie within Tolerance of the stock's
	// last price.
	PriceCatalog PriceMode = "catalog"
)

// PricePolicy is the execution price rule applied by SettleOrder.
type PricePolicy struct {
	Mode PriceMode
	// Tolerance is a fraction of the last price, e.g. 0.05 for 5%.
	Tolerance decimal.Decimal
}

func (p PricePolicy) check(price decimal.Decimal, stock *domain.Stock) error {
	if p.Mode != PriceCatalog {
		return nil
	}
	band := stock.LastPrice.Mul(p.Tolerance)
	if price.Sub(stock.LastPrice).Abs().GreaterThan(band) {
		return domain.Invalid("price_each",
			"price_each %s is too far from the last price %s of %s",
			domain.FormatMoney(price), domain.FormatMoney(stock.LastPrice), stock.Symbol)
	}
	return nil
}

// SettleOrder executes an order for accountID. The balance and holdings
// checks, the transaction insert and the balance update happen in one unit
// of work holding the account's lock; on any error nothing is written.
func (s *Service) SettleOrder(ctx context.Context, accountID uuid.UUID, order domain.Order) (*domain.Settlement, error) {
	log := s.log.With("account_id", accountID, "operation", "settle_order")

	if err := order.Normalize(); err != nil {
		log.Warn("Rejected order", "error", err)
		return nil, err
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	stock, err := s.store.GetStock(ctx, order.Symbol)
	if err != nil {
		return nil, fault(log, "load stock", err)
	}
	if err := s.prices.check(order.PriceEach, stock); err != nil {
		log.Warn("Rejected order price", "symbol", order.Symbol, "error", err)
		return nil, err
	}

	var settled domain.Settlement
	err = s.store.WithAccount(ctx, accountID, func(tx port.LedgerTx) error {
		acc := *tx.Account()
		t := domain.NewTransaction(acc.ID, order, s.now())

		switch t.Side {
		case domain.Buy:
			if err := acc.Debit(t.TotalPrice); err != nil {
				return err
			}
		case domain.Sell:
			available, err := tx.Holdings(ctx, t.Symbol)
			if err != nil {
				return err
			}
			if t.Quantity > available {
				return &domain.InsufficientHoldingsError{Symbol: t.Symbol, Available: available}
			}
			acc.Credit(t.TotalPrice)
			if acc.Balance.GreaterThan(domain.MaxAmount) {
				return domain.Invalid("quantity", "resulting balance would exceed %s", domain.FormatMoney(domain.MaxAmount))
			}
		}

		if err := tx.InsertTransaction(ctx, &t); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, acc.Balance); err != nil {
			return err
		}

		settled = domain.Settlement{Transaction: t, Balance: acc.Balance}
		return nil
	})
	if err != nil {
		return nil, fault(log, "settle", err)
	}

	log.Info("Order settled",
		"transaction_id", settled.Transaction.ID,
		"symbol", settled.Transaction.Symbol,
		"side", settled.Transaction.Side,
		"quantity", settled.Transaction.Quantity,
		"total_price", domain.FormatMoney(settled.Transaction.TotalPrice))
	return &settled, nil
}

// fault logs err and returns it in the caller-facing taxonomy: business
// errors unchanged, everything else as a storage fault.
func fault(log *slog.Logger, op string, err error) error {
	if domain.IsBusinessError(err) {
		log.Warn("Request rejected", "step", op, "error", err)
		return err
	}
	if errors.Is(err, context.Canceled) {
		log.Warn("Request canceled", "step", op)
	} else {
		log.Error("Storage failure", "step", op, "error", err)
	}
	return domain.StorageFault(op, err)
}

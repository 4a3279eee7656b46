// Package trading holds the use cases of the ledger: accounts, order
// settlement, stock and transaction queries, and catalog ingestion.
package trading

import (
	"context"
	"log/slog"
	"time"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

const defaultStorageTimeout = 5 * time.Second

// Options configure a Service. Zero values select the defaults.
type Options struct {
	// Cache, when set, keeps stock query results.
	Cache          port.StockCache
	Logger         *slog.Logger
	StorageTimeout time.Duration
	Prices         PricePolicy
	// Clock stamps new transactions and catalog rows.
	Clock func() time.Time
}

// Service implements the trading operations on top of a port.Store.
type Service struct {
	store   port.Store
	cache   port.StockCache
	log     *slog.Logger
	timeout time.Duration
	prices  PricePolicy
	now     func() time.Time
}

func NewService(store port.Store, opts Options) *Service {
	s := &Service{
		store:   store,
		cache:   opts.Cache,
		log:     opts.Logger,
		timeout: opts.StorageTimeout,
		prices:  opts.Prices,
		now:     opts.Clock,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.timeout <= 0 {
		s.timeout = defaultStorageTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.prices.Mode == "" {
		s.prices.Mode = PriceTrusted
	}
	return s
}

// storageContext bounds a unit of storage work.
func (s *Service) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

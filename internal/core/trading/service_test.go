package trading_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage/sqlite"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func str(s string) *string { return &s }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

var testCatalog = []domain.CatalogEntry{
	{Symbol: "AAPL", Name: "Apple Inc.", LastPrice: dec("100.00")},
	{Symbol: "MSFT", Name: "Microsoft Corporation", LastPrice: dec("410.25")},
	{Symbol: "TSLA", Name: "Tesla, Inc.", LastPrice: dec("175.79")},
	{Symbol: "F", Name: "Ford Motor Company", LastPrice: dec("12.10")},
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "trading.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

// newService returns a service over a fresh store holding testCatalog.
func newService(t *testing.T, opts trading.Options) (*trading.Service, port.Store) {
	t.Helper()
	store := openStore(t)
	seedCatalog(t, store)
	if opts.Logger == nil {
		opts.Logger = quietLogger
	}
	return trading.NewService(store, opts), store
}

func seedCatalog(t *testing.T, store port.Store) {
	t.Helper()
	if err := store.UpsertStocks(context.Background(), testCatalog, time.Now()); err != nil {
		t.Fatalf("UpsertStocks: %v", err)
	}
}

// newAccount stores an account directly, skipping password hashing.
func newAccount(t *testing.T, store port.Store, balance string) *domain.Account {
	t.Helper()
	acc, err := domain.NewAccount(domain.NewAccountParams{
		Email:        uuid.NewString() + "@example.com",
		Name:         "Trader",
		Balance:      dec(balance),
		PasswordHash: "unused",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if err := store.CreateAccount(context.Background(), acc); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return acc
}

func balanceOf(t *testing.T, store port.Store, id uuid.UUID) decimal.Decimal {
	t.Helper()
	acc, err := store.GetAccountByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	return acc.Balance
}

func order(side domain.Side, symbol string, qty int64, price string) domain.Order {
	return domain.Order{Symbol: symbol, Side: side, Quantity: qty, PriceEach: dec(price)}
}

// faultyStore fails every read path with a driver-level error.
type faultyStore struct {
	port.Store
	err error
}

func (f *faultyStore) ListStocks(context.Context, domain.StockFilter) ([]domain.Stock, error) {
	return nil, f.err
}

func (f *faultyStore) ListTransactions(context.Context, uuid.UUID, domain.TransactionFilter) ([]domain.Transaction, error) {
	return nil, f.err
}

func (f *faultyStore) WithAccount(context.Context, uuid.UUID, func(port.LedgerTx) error) error {
	return f.err
}

var errConnReset = errors.New("read tcp 10.0.0.1:5432: connection reset by peer")

// memCache is an in-process port.StockCache that counts its calls.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.Stock
	hits        int
	misses      int
	invalidated int
	fail        error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]domain.Stock{}}
}

func (c *memCache) GetStocks(_ context.Context, key string) ([]domain.Stock, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return nil, false, c.fail
	}
	stocks, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return stocks, ok, nil
}

func (c *memCache) SetStocks(_ context.Context, key string, stocks []domain.Stock) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.entries[key] = stocks
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.entries = map[string][]domain.Stock{}
	return c.fail
}

func (c *memCache) Ping(context.Context) error { return c.fail }

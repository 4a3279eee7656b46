package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// AccountRepository stores registered users and their API keys.
type AccountRepository interface {
	// CreateAccount fails with domain.ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, acc *domain.Account) error
	GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetAccountByAPIKey(ctx context.Context, keyHash string) (*domain.Account, error)
	SaveAPIKey(ctx context.Context, accountID uuid.UUID, keyHash, keyPrefix string) error
}

// StockRepository stores the stock catalog.
type StockRepository interface {
	// UpsertStocks creates or updates every entry, keyed by symbol, in one
	// atomic write.
	UpsertStocks(ctx context.Context, entries []domain.CatalogEntry, now time.Time) error
	GetStock(ctx context.Context, symbol string) (*domain.Stock, error)
	ListStocks(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error)
}

// TransactionRepository reads settled transactions, newest first.
type TransactionRepository interface {
	ListTransactions(ctx context.Context, accountID uuid.UUID, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// Ledger runs settlements. WithAccount locks the account row, hands fn a
// view bound to the same database transaction and commits only if fn
// returns nil. Two WithAccount calls for one account never overlap.
type Ledger interface {
	WithAccount(ctx context.Context, accountID uuid.UUID, fn func(tx LedgerTx) error) error
}

// LedgerTx is the unit of work handed to Ledger.WithAccount.
type LedgerTx interface {
	// Account is the locked account as read at the start of the unit.
	Account() *domain.Account
	// Holdings is bought minus sold quantity of symbol for the locked account.
	Holdings(ctx context.Context, symbol string) (int64, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateBalance(ctx context.Context, balance decimal.Decimal) error
}

// CachedResponse is an HTTP response kept for an idempotency key. A
// reserved key whose request has not finished yet is Pending.
type CachedResponse struct {
	Status  int
	Body    []byte
	Pending bool
}

// IdempotencyStore remembers responses per account and client key.
type IdempotencyStore interface {
	// ReserveKey claims a key before its request runs. It reports false when
	// the key is already reserved or answered; at most one caller wins.
	ReserveKey(ctx context.Context, accountID uuid.UUID, key string) (bool, error)
	// LookupResponse returns domain.ErrNotFound for unknown keys.
	LookupResponse(ctx context.Context, accountID uuid.UUID, key string) (*CachedResponse, error)
	// SaveResponse answers a reserved key. Keys that are already answered
	// keep their first response.
	SaveResponse(ctx context.Context, accountID uuid.UUID, key string, resp CachedResponse) error
	// ReleaseKey drops a reservation that was never answered so the request
	// can be retried.
	ReleaseKey(ctx context.Context, accountID uuid.UUID, key string) error
	// PurgeResponses deletes keys created before the cutoff and reports how
	// many were removed.
	PurgeResponses(ctx context.Context, before time.Time) (int64, error)
}

// Store is everything a storage backend provides.
type Store interface {
	AccountRepository
	StockRepository
	TransactionRepository
	Ledger
	IdempotencyStore

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

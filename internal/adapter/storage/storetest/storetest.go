// Package storetest is a behavioural test suite every port.Store backend must
// pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

// Opener returns an empty, migrated store. The suite closes it.
type Opener func(t *testing.T) port.Store

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s port.Store)
	}{
		{"Accounts", testAccounts},
		{"APIKeys", testAPIKeys},
		{"UpsertStocks", testUpsertStocks},
		{"ListStocks", testListStocks},
		{"LedgerCommit", testLedgerCommit},
		{"LedgerRollback", testLedgerRollback},
		{"LedgerSerializes", testLedgerSerializes},
		{"ListTransactions", testListTransactions},
		{"Idempotency", testIdempotency},
		{"IdempotencyReserveRace", testIdempotencyReserveRace},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(s.Close)
			tc.fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func newAccount(t *testing.T, s port.Store, email, balance string) *domain.Account {
	t.Helper()
	acc, err := domain.NewAccount(domain.NewAccountParams{
		Email:        email,
		Name:         "Test User",
		Balance:      dec(balance),
		PasswordHash: "hash",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if err := s.CreateAccount(context.Background(), acc); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return acc
}

func seedStocks(t *testing.T, s port.Store) {
	t.Helper()
	entries := []domain.CatalogEntry{
		{Symbol: "AAPL", Name: "Apple Inc.", LastPrice: dec("189.50")},
		{Symbol: "MSFT", Name: "Microsoft Corporation", LastPrice: dec("410.25")},
		{Symbol: "TSLA", Name: "Tesla, Inc.", LastPrice: dec("189.50")},
		{Symbol: "F", Name: "Ford Motor Company", LastPrice: dec("12.10")},
	}
	if err := s.UpsertStocks(context.Background(), entries, time.Now()); err != nil {
		t.Fatalf("UpsertStocks: %v", err)
	}
}

func testAccounts(t *testing.T, s port.Store) {
	ctx := context.Background()
	acc := newAccount(t, s, "alice@example.com", "1000.50")

	got, err := s.GetAccountByID(ctx, acc.ID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.Email != acc.Email || !got.Balance.Equal(acc.Balance) || !got.IsActive || got.IsAdmin {
		t.Errorf("GetAccountByID = %+v, want %+v", got, acc)
	}

	byEmail, err := s.GetAccountByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	if byEmail.ID != acc.ID {
		t.Errorf("GetAccountByEmail id = %s, want %s", byEmail.ID, acc.ID)
	}

	dup, _ := domain.NewAccount(domain.NewAccountParams{Email: "alice@example.com", Name: "Other", PasswordHash: "x"}, time.Now())
	if err := s.CreateAccount(ctx, dup); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate email: got %v, want ErrAlreadyExists", err)
	}

	if _, err := s.GetAccountByID(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func testAPIKeys(t *testing.T, s port.Store) {
	ctx := context.Background()
	acc := newAccount(t, s, "keys@example.com", "0")

	if err := s.SaveAPIKey(ctx, acc.ID, "deadbeef", "sk_live_abc"); err != nil {
		t.Fatalf("SaveAPIKey: %v", err)
	}
	got, err := s.GetAccountByAPIKey(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("GetAccountByAPIKey: %v", err)
	}
	if got.ID != acc.ID {
		t.Errorf("key resolved to %s, want %s", got.ID, acc.ID)
	}
	if _, err := s.GetAccountByAPIKey(ctx, "unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown key: got %v, want ErrNotFound", err)
	}
}

func testUpsertStocks(t *testing.T, s port.Store) {
	ctx := context.Background()
	seedStocks(t, s)
	seedStocks(t, s)

	all, err := s.ListStocks(ctx, domain.StockFilter{})
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d stocks after two identical upserts, want 4", len(all))
	}

	update := []domain.CatalogEntry{{Symbol: "AAPL", Name: "Apple", LastPrice: dec("200.00")}}
	if err := s.UpsertStocks(ctx, update, time.Now()); err != nil {
		t.Fatalf("UpsertStocks: %v", err)
	}
	aapl, err := s.GetStock(ctx, "aapl")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if aapl.Name != "Apple" || !aapl.LastPrice.Equal(dec("200")) {
		t.Errorf("GetStock = %+v, want updated name and price", aapl)
	}

	if _, err := s.GetStock(ctx, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown stock: got %v, want ErrNotFound", err)
	}
}

func symbols(stocks []domain.Stock) []string {
	out := make([]string, len(stocks))
	for i, st := range stocks {
		out[i] = st.Symbol
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testListStocks(t *testing.T, s port.Store) {
	ctx := context.Background()
	seedStocks(t, s)

	tests := []struct {
		name   string
		filter domain.StockFilter
		want   []string
	}{
		{"default ordering", domain.StockFilter{}, []string{"AAPL", "F", "MSFT", "TSLA"}},
		{"symbol", domain.StockFilter{Symbol: "msft"}, []string{"MSFT"}},
		{"unknown symbol", domain.StockFilter{Symbol: "ZZZ"}, []string{}},
		{"min price inclusive", domain.StockFilter{MinPrice: ptr(dec("189.50"))}, []string{"AAPL", "MSFT", "TSLA"}},
		{"max price inclusive", domain.StockFilter{MaxPrice: ptr(dec("189.50"))}, []string{"AAPL", "F", "TSLA"}},
		{"fractional bounds", domain.StockFilter{MinPrice: ptr(dec("12.101")), MaxPrice: ptr(dec("189.499"))}, []string{}},
		{"empty range", domain.StockFilter{MinPrice: ptr(dec("500")), MaxPrice: ptr(dec("100"))}, []string{}},
		{
			"price descending with symbol tiebreak",
			domain.StockFilter{Ordering: domain.StockOrdering{Field: domain.SortByLastPrice, Descending: true}},
			[]string{"MSFT", "AAPL", "TSLA", "F"},
		},
		{
			"symbol descending",
			domain.StockFilter{Ordering: domain.StockOrdering{Field: domain.SortBySymbol, Descending: true}},
			[]string{"TSLA", "MSFT", "F", "AAPL"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListStocks(ctx, tc.filter)
			if err != nil {
				t.Fatalf("ListStocks: %v", err)
			}
			if !equal(symbols(got), tc.want) {
				t.Errorf("ListStocks = %v, want %v", symbols(got), tc.want)
			}
		})
	}
}

func settle(t *testing.T, s port.Store, acc *domain.Account, side domain.Side, symbol string, qty int64, price string, at time.Time) {
	t.Helper()
	o := domain.Order{Symbol: symbol, Side: side, Quantity: qty, PriceEach: dec(price)}
	tr := domain.NewTransaction(acc.ID, o, at)
	err := s.WithAccount(context.Background(), acc.ID, func(tx port.LedgerTx) error {
		return tx.InsertTransaction(context.Background(), &tr)
	})
	if err != nil {
		t.Fatalf("settle %s %d %s: %v", side, qty, symbol, err)
	}
}

func testLedgerCommit(t *testing.T, s port.Store) {
	ctx := context.Background()
	seedStocks(t, s)
	acc := newAccount(t, s, "ledger@example.com", "500.00")

	err := s.WithAccount(ctx, acc.ID, func(tx port.LedgerTx) error {
		if !tx.Account().Balance.Equal(dec("500")) {
			t.Errorf("locked balance = %s, want 500", tx.Account().Balance)
		}
		tr := domain.NewTransaction(acc.ID, domain.Order{Symbol: "AAPL", Side: domain.Buy, Quantity: 2, PriceEach: dec("100.00")}, time.Now())
		if err := tx.InsertTransaction(ctx, &tr); err != nil {
			return err
		}
		return tx.UpdateBalance(ctx, dec("300.00"))
	})
	if err != nil {
		t.Fatalf("WithAccount: %v", err)
	}

	got, _ := s.GetAccountByID(ctx, acc.ID)
	if !got.Balance.Equal(dec("300")) {
		t.Errorf("balance = %s, want 300.00", got.Balance)
	}

	settle(t, s, acc, domain.Sell, "AAPL", 1, "110.00", time.Now())
	err = s.WithAccount(ctx, acc.ID, func(tx port.LedgerTx) error {
		held, err := tx.Holdings(ctx, "AAPL")
		if err != nil {
			return err
		}
		if held != 1 {
			t.Errorf("holdings = %d, want 1", held)
		}
		none, err := tx.Holdings(ctx, "MSFT")
		if err != nil {
			return err
		}
		if none != 0 {
			t.Errorf("holdings of untraded symbol = %d, want 0", none)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithAccount: %v", err)
	}

	if err := s.WithAccount(ctx, uuid.New(), func(port.LedgerTx) error { return nil }); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown account: got %v, want ErrNotFound", err)
	}
}

func testLedgerRollback(t *testing.T, s port.Store) {
	ctx := context.Background()
	seedStocks(t, s)
	acc := newAccount(t, s, "rollback@example.com", "50.00")

	errBoom := errors.New("boom")
	err := s.WithAccount(ctx, acc.ID, func(tx port.LedgerTx) error {
		tr := domain.NewTransaction(acc.ID, domain.Order{Symbol: "F", Side: domain.Buy, Quantity: 1, PriceEach: dec("12.10")}, time.Now())
		if err := tx.InsertTransaction(ctx, &tr); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, dec("37.90")); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithAccount returned %v, want the callback error", err)
	}

	got, _ := s.GetAccountByID(ctx, acc.ID)
	if !got.Balance.Equal(dec("50")) {
		t.Errorf("balance after rollback = %s, want 50.00", got.Balance)
	}
	history, err := s.ListTransactions(ctx, acc.ID, domain.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("got %d transactions after rollback, want 0", len(history))
	}
}

func testLedgerSerializes(t *testing.T, s port.Store) {
	ctx := context.Background()
	acc := newAccount(t, s, "race@example.com", "0")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.WithAccount(ctx, acc.ID, func(tx port.LedgerTx) error {
				return tx.UpdateBalance(ctx, tx.Account().Balance.Add(decimal.NewFromInt(1)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("WithAccount: %v", err)
		}
	}

	got, _ := s.GetAccountByID(ctx, acc.ID)
	if !got.Balance.Equal(decimal.NewFromInt(workers)) {
		t.Errorf("balance = %s, want %d (lost update)", got.Balance, workers)
	}
}

func testListTransactions(t *testing.T, s port.Store) {
	ctx := context.Background()
	seedStocks(t, s)
	acc := newAccount(t, s, "history@example.com", "0")
	other := newAccount(t, s, "other@example.com", "0")

	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }
	settle(t, s, acc, domain.Buy, "AAPL", 5, "150.00", day(1))
	settle(t, s, acc, domain.Buy, "MSFT", 2, "400.00", day(2))
	settle(t, s, acc, domain.Sell, "AAPL", 1, "175.50", day(3))
	settle(t, s, other, domain.Buy, "AAPL", 1, "150.00", day(2))

	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	distantPast := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)
	distantFuture := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter domain.TransactionFilter
		want   []string
	}{
		{"all newest first", domain.TransactionFilter{}, []string{"AAPL SELL", "MSFT BUY", "AAPL BUY"}},
		{"symbol", domain.TransactionFilter{Symbol: "AAPL"}, []string{"AAPL SELL", "AAPL BUY"}},
		{"side", domain.TransactionFilter{Side: domain.Buy}, []string{"MSFT BUY", "AAPL BUY"}},
		{"date window", domain.TransactionFilter{CreatedFrom: &from, CreatedBefore: &before}, []string{"MSFT BUY"}},
		{"distant date bounds", domain.TransactionFilter{CreatedFrom: &distantPast, CreatedBefore: &distantFuture}, []string{"AAPL SELL", "MSFT BUY", "AAPL BUY"}},
		{"distant past only", domain.TransactionFilter{CreatedFrom: &distantPast}, []string{"AAPL SELL", "MSFT BUY", "AAPL BUY"}},
		{"before distant past", domain.TransactionFilter{CreatedBefore: &distantPast}, []string{}},
		{"min price", domain.TransactionFilter{MinPrice: ptr(dec("175.50"))}, []string{"AAPL SELL", "MSFT BUY"}},
		{"max price", domain.TransactionFilter{MaxPrice: ptr(dec("175.499"))}, []string{"AAPL BUY"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, acc.ID, tc.filter)
			if err != nil {
				t.Fatalf("ListTransactions: %v", err)
			}
			var desc []string
			for _, tr := range got {
				if tr.AccountID != acc.ID {
					t.Errorf("transaction %s belongs to %s", tr.ID, tr.AccountID)
				}
				desc = append(desc, tr.Symbol+" "+string(tr.Side))
			}
			if desc == nil {
				desc = []string{}
			}
			if !equal(desc, tc.want) {
				t.Errorf("ListTransactions = %v, want %v", desc, tc.want)
			}
		})
	}

	got, _ := s.ListTransactions(ctx, acc.ID, domain.TransactionFilter{Side: domain.Sell})
	if len(got) != 1 {
		t.Fatalf("got %d sells, want 1", len(got))
	}
	sell := got[0]
	if sell.Quantity != 1 || !sell.PriceEach.Equal(dec("175.50")) || !sell.TotalPrice.Equal(dec("175.50")) {
		t.Errorf("sell = %+v", sell)
	}
	if !sell.CreatedAt.Equal(day(3)) {
		t.Errorf("created_at = %s, want %s", sell.CreatedAt, day(3))
	}
}

func testIdempotency(t *testing.T, s port.Store) {
	ctx := context.Background()
	acc := newAccount(t, s, "idem@example.com", "0")

	if _, err := s.LookupResponse(ctx, acc.ID, "k1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown key: got %v, want ErrNotFound", err)
	}

	reserve := func(key string) bool {
		t.Helper()
		ok, err := s.ReserveKey(ctx, acc.ID, key)
		if err != nil {
			t.Fatalf("ReserveKey(%s): %v", key, err)
		}
		return ok
	}
	if !reserve("k1") {
		t.Fatal("first reservation of k1 failed")
	}
	if reserve("k1") {
		t.Fatal("k1 reserved twice")
	}

	pending, err := s.LookupResponse(ctx, acc.ID, "k1")
	if err != nil || !pending.Pending {
		t.Fatalf("reserved key = %+v, %v; want pending", pending, err)
	}

	first := port.CachedResponse{Status: 201, Body: []byte(`{"id":"1"}`)}
	if err := s.SaveResponse(ctx, acc.ID, "k1", first); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	if err := s.SaveResponse(ctx, acc.ID, "k1", port.CachedResponse{Status: 400, Body: []byte(`{}`)}); err != nil {
		t.Fatalf("second SaveResponse: %v", err)
	}
	if err := s.ReleaseKey(ctx, acc.ID, "k1"); err != nil {
		t.Fatalf("ReleaseKey on an answered key: %v", err)
	}

	got, err := s.LookupResponse(ctx, acc.ID, "k1")
	if err != nil {
		t.Fatalf("LookupResponse: %v", err)
	}
	if got.Pending || got.Status != first.Status || string(got.Body) != string(first.Body) {
		t.Errorf("LookupResponse = %+v, want the first response", got)
	}
	if reserve("k1") {
		t.Error("answered key reserved again")
	}

	if !reserve("k2") {
		t.Fatal("reservation of k2 failed")
	}
	if err := s.ReleaseKey(ctx, acc.ID, "k2"); err != nil {
		t.Fatalf("ReleaseKey: %v", err)
	}
	if _, err := s.LookupResponse(ctx, acc.ID, "k2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("released key still found: %v", err)
	}
	if !reserve("k2") {
		t.Error("released key could not be reserved again")
	}

	other := newAccount(t, s, "idem2@example.com", "0")
	if _, err := s.LookupResponse(ctx, other.ID, "k1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("key leaked across accounts: %v", err)
	}
	if ok, err := s.ReserveKey(ctx, other.ID, "k1"); err != nil || !ok {
		t.Errorf("other account could not reserve k1: %v, %v", ok, err)
	}

	n, err := s.PurgeResponses(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("PurgeResponses(an hour ago) = %d, %v; want 0", n, err)
	}
	n, err = s.PurgeResponses(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 3 {
		t.Fatalf("PurgeResponses(in an hour) = %d, %v; want 3", n, err)
	}
	if _, err := s.LookupResponse(ctx, acc.ID, "k1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("purged key still found: %v", err)
	}
}

func testIdempotencyReserveRace(t *testing.T, s port.Store) {
	ctx := context.Background()
	acc := newAccount(t, s, "race@example.com", "0")

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ReserveKey(ctx, acc.ID, "same-key")
			if err != nil {
				t.Errorf("ReserveKey: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("%d concurrent reservations won, want exactly 1", wins)
	}
}

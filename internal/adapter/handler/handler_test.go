package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/handler"
	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage/sqlite"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

type testAPI struct {
	app   *fiber.App
	store *sqlite.Store
	svc   *trading.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	svc := trading.NewService(store, trading.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	return &testAPI{
		app:   handler.NewApp(handler.Deps{Service: svc, Store: store}),
		store: store,
		svc:   svc,
	}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) object(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(r.body, &m); err != nil {
		t.Fatalf("response %s is not a JSON object: %v", r.body, err)
	}
	return m
}

func (r response) list(t *testing.T) []map[string]any {
	t.Helper()
	var l []map[string]any
	if err := json.Unmarshal(r.body, &l); err != nil {
		t.Fatalf("response %s is not a JSON array: %v", r.body, err)
	}
	return l
}

func (a *testAPI) do(t *testing.T, method, path, apiKey string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return response{status: resp.StatusCode, header: resp.Header, body: data}
}

// register creates a user and returns its API key.
func (a *testAPI) register(t *testing.T, email, balance string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/register", "", map[string]any{
		"email":            email,
		"name":             "Test User",
		"password":         "pa55word",
		"confirm_password": "pa55word",
		"current_balance":  balance,
	})
	if resp.status != http.StatusCreated {
		t.Fatalf("register: status %d: %s", resp.status, resp.body)
	}
	return resp.object(t)["token"].(string)
}

// admin creates an administrator and returns a fresh API key for it.
func (a *testAPI) admin(t *testing.T) string {
	t.Helper()
	if _, err := a.svc.CreateAdmin(context.Background(), "admin@example.com", "Admin", "adm1n-pass"); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	resp := a.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "admin@example.com", "password": "adm1n-pass",
	})
	if resp.status != http.StatusOK {
		t.Fatalf("admin login: status %d: %s", resp.status, resp.body)
	}
	return resp.object(t)["token"].(string)
}

func (a *testAPI) ingest(t *testing.T) {
	t.Helper()
	resp := a.do(t, http.MethodGet, "/api/v1/ingest-stocks", a.admin(t), nil)
	if resp.status != http.StatusOK {
		t.Fatalf("ingest: status %d: %s", resp.status, resp.body)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "user@example.com", "100.00")

	resp := api.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "user@example.com", "password": "pa55word",
	})
	if resp.status != http.StatusOK {
		t.Fatalf("login: status %d: %s", resp.status, resp.body)
	}
	body := resp.object(t)
	if body["msg"] != "Login Success" || !strings.HasPrefix(body["token"].(string), "sk_live_") {
		t.Errorf("login body = %v", body)
	}

	resp = api.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "user@example.com", "password": "nope",
	})
	if resp.status != http.StatusUnauthorized || resp.object(t)["error"] != "invalid email or password" {
		t.Errorf("bad login: status %d: %s", resp.status, resp.body)
	}

	resp = api.do(t, http.MethodPost, "/api/v1/register", "", map[string]any{
		"email": "user@example.com", "name": "Again", "password": "x", "confirm_password": "x",
	})
	if resp.status != http.StatusBadRequest || resp.object(t)["field"] != "email" {
		t.Errorf("duplicate register: status %d: %s", resp.status, resp.body)
	}

	resp = api.do(t, http.MethodPost, "/api/v1/register", "", map[string]any{
		"email": "neg@example.com", "name": "Neg", "password": "x", "confirm_password": "x", "current_balance": -5,
	})
	if resp.status != http.StatusBadRequest || resp.object(t)["error"] != "balance cannot be negative" {
		t.Errorf("negative balance: status %d: %s", resp.status, resp.body)
	}
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)
	key := api.register(t, "user@example.com", "0")

	tests := []struct {
		name    string
		header  string
		want    int
		wantErr string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing API Key"},
		{"wrong scheme", "Token " + key, http.StatusUnauthorized, "Invalid Header Format"},
		{"unknown key", "Bearer sk_live_" + strings.Repeat("0", 64), http.StatusUnauthorized, "Invalid API Key"},
		{"valid", "Bearer " + key, http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var headers []string
			if tc.header != "" {
				headers = []string{"Authorization", tc.header}
			}
			resp := api.do(t, http.MethodGet, "/api/v1/transactions", "", nil, headers...)
			if resp.status != tc.want {
				t.Fatalf("status %d, want %d: %s", resp.status, tc.want, resp.body)
			}
			if tc.wantErr != "" && resp.object(t)["error"] != tc.wantErr {
				t.Errorf("error = %v, want %q", resp.object(t)["error"], tc.wantErr)
			}
		})
	}
}

func TestIngestStocks_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	user := api.register(t, "user@example.com", "0")

	resp := api.do(t, http.MethodGet, "/api/v1/ingest-stocks", user, nil)
	if resp.status != http.StatusForbidden {
		t.Fatalf("non-admin ingest: status %d: %s", resp.status, resp.body)
	}

	admin := api.admin(t)
	first := api.do(t, http.MethodGet, "/api/v1/ingest-stocks", admin, nil)
	second := api.do(t, http.MethodGet, "/api/v1/ingest-stocks", admin, nil)
	if first.status != http.StatusOK || second.status != http.StatusOK {
		t.Fatalf("ingest: statuses %d, %d", first.status, second.status)
	}
	a, b := first.list(t), second.list(t)
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("ingest returned %d then %d stocks", len(a), len(b))
	}
	if a[0]["symbol"] != "AAPL" || a[0]["last_price"] != "189.84" {
		t.Errorf("first stock = %v", a[0])
	}
}

func TestQueryStocks(t *testing.T) {
	api := newTestAPI(t)
	api.ingest(t)
	key := api.register(t, "user@example.com", "0")

	resp := api.do(t, http.MethodGet, "/api/v1/query-stocks?ordering=-bogus_field", key, nil)
	if resp.status != http.StatusBadRequest || !strings.Contains(resp.object(t)["error"].(string), "bogus_field") {
		t.Errorf("bogus ordering: status %d: %s", resp.status, resp.body)
	}

	resp = api.do(t, http.MethodGet, "/api/v1/query-stocks?min_price=", key, nil)
	if resp.status != http.StatusBadRequest || resp.object(t)["error"] != "min_price must be a numeric value" {
		t.Errorf("empty min_price: status %d: %s", resp.status, resp.body)
	}

	resp = api.do(t, http.MethodGet, "/api/v1/query-stocks?ordering=-last_price&min_price=400", key, nil)
	if resp.status != http.StatusOK {
		t.Fatalf("query: status %d: %s", resp.status, resp.body)
	}
	stocks := resp.list(t)
	if len(stocks) < 2 {
		t.Fatalf("got %d stocks above 400", len(stocks))
	}
	if stocks[0]["symbol"] != "NVDA" {
		t.Errorf("most expensive = %v, want NVDA", stocks[0]["symbol"])
	}

	resp = api.do(t, http.MethodGet, "/api/v1/query-stocks?symbol=msft", key, nil)
	if l := resp.list(t); len(l) != 1 || l[0]["symbol"] != "MSFT" {
		t.Errorf("symbol query = %s", resp.body)
	}
}

func TestTransactions(t *testing.T) {
	api := newTestAPI(t)
	api.ingest(t)
	key := api.register(t, "trader@example.com", "500.00")

	buy := map[string]any{"stock": "aapl", "transaction_type": "buy", "quantity": 5, "price_each": "100.00"}
	resp := api.do(t, http.MethodPost, "/api/v1/transactions", key, buy)
	if resp.status != http.StatusCreated {
		t.Fatalf("buy: status %d: %s", resp.status, resp.body)
	}
	settled := resp.object(t)
	if settled["user_balance"] != "0.00" || settled["total_price"] != "500.00" || settled["stock"] != "AAPL" {
		t.Errorf("buy response = %v", settled)
	}

	resp = api.do(t, http.MethodPost, "/api/v1/transactions", key, buy)
	if resp.status != http.StatusBadRequest || resp.object(t)["error"] != "insufficient balance for this purchase" {
		t.Errorf("second buy: status %d: %s", resp.status, resp.body)
	}

	sell := map[string]any{"stock": "AAPL", "transaction_type": "SELL", "quantity": 6, "price_each": 101}
	resp = api.do(t, http.MethodPost, "/api/v1/transactions", key, sell)
	body := resp.object(t)
	if resp.status != http.StatusBadRequest || body["available"] != float64(5) {
		t.Errorf("oversell: status %d: %s", resp.status, resp.body)
	}
	if body["error"] != "you can only sell up to 5 shares of AAPL" {
		t.Errorf("oversell message = %v", body["error"])
	}

	missing := map[string]any{"stock": "AAPL", "transaction_type": "SELL", "quantity": 1}
	resp = api.do(t, http.MethodPost, "/api/v1/transactions", key, missing)
	if resp.status != http.StatusBadRequest || resp.object(t)["field"] != "price_each" {
		t.Errorf("missing price: status %d: %s", resp.status, resp.body)
	}

	unknown := map[string]any{"stock": "ZZZZ", "transaction_type": "BUY", "quantity": 1, "price_each": "1"}
	resp = api.do(t, http.MethodPost, "/api/v1/transactions", key, unknown)
	if resp.status != http.StatusNotFound {
		t.Errorf("unknown stock: status %d: %s", resp.status, resp.body)
	}

	resp = api.do(t, http.MethodGet, "/api/v1/transactions", key, nil)
	history := resp.list(t)
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	if _, ok := history[0]["user_balance"]; ok {
		t.Error("read shape must not include user_balance")
	}
	if history[0]["transaction_type"] != "BUY" || history[0]["price_each"] != "100.00" {
		t.Errorf("history[0] = %v", history[0])
	}

	resp = api.do(t, http.MethodGet, "/api/v1/query-transactions?transaction_type=hold", key, nil)
	if resp.status != http.StatusBadRequest || resp.object(t)["error"] != "transaction side must be BUY or SELL" {
		t.Errorf("bad side: status %d: %s", resp.status, resp.body)
	}
	resp = api.do(t, http.MethodGet, "/api/v1/query-transactions?date_after=2024-13-01", key, nil)
	if resp.status != http.StatusBadRequest || resp.object(t)["field"] != "date_after" {
		t.Errorf("bad date: status %d: %s", resp.status, resp.body)
	}
	resp = api.do(t, http.MethodGet, "/api/v1/query-transactions?stock=aapl&transaction_type=BUY&min_price=100", key, nil)
	if resp.status != http.StatusOK || len(resp.list(t)) != 1 {
		t.Errorf("filtered query: status %d: %s", resp.status, resp.body)
	}
}

func TestTransactions_Idempotency(t *testing.T) {
	api := newTestAPI(t)
	api.ingest(t)
	key := api.register(t, "trader@example.com", "1000.00")
	other := api.register(t, "other@example.com", "1000.00")

	buy := map[string]any{"stock": "KO", "transaction_type": "BUY", "quantity": 2, "price_each": "60.72"}
	first := api.do(t, http.MethodPost, "/api/v1/transactions", key, buy, "Idempotency-Key", "order-1")
	second := api.do(t, http.MethodPost, "/api/v1/transactions", key, buy, "Idempotency-Key", "order-1")
	if first.status != http.StatusCreated || second.status != http.StatusCreated {
		t.Fatalf("statuses %d, %d", first.status, second.status)
	}
	if !bytes.Equal(first.body, second.body) {
		t.Errorf("replayed body differs:\n%s\n%s", first.body, second.body)
	}
	if second.header.Get("X-Idempotency-Hit") != "true" {
		t.Error("replay not marked as an idempotency hit")
	}

	if n := len(api.do(t, http.MethodGet, "/api/v1/transactions", key, nil).list(t)); n != 1 {
		t.Errorf("%d transactions after a replayed order, want 1", n)
	}

	// Keys are scoped to the account that used them.
	resp := api.do(t, http.MethodPost, "/api/v1/transactions", other, buy, "Idempotency-Key", "order-1")
	if resp.status != http.StatusCreated || resp.header.Get("X-Idempotency-Hit") == "true" {
		t.Errorf("other account got a replay: status %d", resp.status)
	}

	// Rejections are replayed as well.
	sell := map[string]any{"stock": "KO", "transaction_type": "SELL", "quantity": 50, "price_each": "60.00"}
	a := api.do(t, http.MethodPost, "/api/v1/transactions", key, sell, "Idempotency-Key", "order-2")
	b := api.do(t, http.MethodPost, "/api/v1/transactions", key, sell, "Idempotency-Key", "order-2")
	if a.status != http.StatusBadRequest || b.status != http.StatusBadRequest || !bytes.Equal(a.body, b.body) {
		t.Errorf("rejection replay: %d %s / %d %s", a.status, a.body, b.status, b.body)
	}
}

func TestStorageFailureIsGeneric(t *testing.T) {
	api := newTestAPI(t)
	key := api.register(t, "user@example.com", "0")
	api.store.Close()

	resp := api.do(t, http.MethodGet, "/api/v1/transactions", key, nil)
	if resp.status != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503: %s", resp.status, resp.body)
	}
	msg := resp.object(t)["error"].(string)
	if strings.Contains(strings.ToLower(msg), "sql") || strings.Contains(msg, "closed") {
		t.Errorf("internal detail leaked: %q", msg)
	}

	resp = api.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.status != http.StatusServiceUnavailable {
		t.Errorf("healthz with closed store: status %d", resp.status)
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.status != http.StatusOK || resp.object(t)["status"] != "ok" {
		t.Errorf("healthz: status %d: %s", resp.status, resp.body)
	}
}

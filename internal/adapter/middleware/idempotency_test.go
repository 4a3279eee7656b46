package middleware

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage/sqlite"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// newIdempotentServer serves handler behind Idempotency on a local port and
// returns the URL of its /orders route.
func newIdempotentServer(t *testing.T, handler fiber.Handler) string {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "idem.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	acc, err := domain.NewAccount(domain.NewAccountParams{
		Email:        "idem@example.com",
		Name:         "Idem",
		PasswordHash: "hash",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if err := store.CreateAccount(context.Background(), acc); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/orders", func(c *fiber.Ctx) error {
		c.Locals(accountLocal, acc)
		return c.Next()
	}, Idempotency(store), handler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })
	return "http://" + ln.Addr().String() + "/orders"
}

func post(t *testing.T, url, key string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Idempotency-Key", key)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST /orders: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestIdempotency_ConcurrentRepeatIsRejected(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	var calls atomic.Int32

	url := newIdempotentServer(t, func(c *fiber.Ctx) error {
		if calls.Add(1) == 1 {
			close(entered)
			<-proceed
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"settled": true})
	})

	type result struct {
		status int
		body   string
	}
	first := make(chan result, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodPost, url, nil)
		req.Header.Set("Idempotency-Key", "order-1")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Errorf("first POST: %v", err)
			first <- result{}
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		first <- result{resp.StatusCode, string(body)}
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never reached the handler")
	}

	resp, _ := post(t, url, "order-1")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("repeat while in flight: status %d, want 409", resp.StatusCode)
	}

	close(proceed)
	r := <-first
	if r.status != http.StatusCreated {
		t.Fatalf("first request: status %d", r.status)
	}

	resp, body := post(t, url, "order-1")
	if resp.StatusCode != http.StatusCreated || body != r.body || resp.Header.Get("X-Idempotency-Hit") != "true" {
		t.Errorf("replay after completion: status %d hit %q body %s", resp.StatusCode, resp.Header.Get("X-Idempotency-Hit"), body)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("handler ran %d times, want 1", n)
	}
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	var calls atomic.Int32
	url := newIdempotentServer(t, func(c *fiber.Ctx) error {
		if calls.Add(1) == 1 {
			return fiber.NewError(http.StatusServiceUnavailable, "try later")
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"settled": true})
	})

	if resp, _ := post(t, url, "order-2"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("first attempt: status %d, want 503", resp.StatusCode)
	}
	if resp, _ := post(t, url, "order-2"); resp.StatusCode != http.StatusCreated || resp.Header.Get("X-Idempotency-Hit") != "" {
		t.Fatalf("retry after 503: status %d, want a fresh 201", resp.StatusCode)
	}
	if resp, _ := post(t, url, "order-2"); resp.Header.Get("X-Idempotency-Hit") != "true" {
		t.Errorf("third attempt was not replayed")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("handler ran %d times, want 2", n)
	}
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	url := newIdempotentServer(t, func(c *fiber.Ctx) error { return c.SendStatus(http.StatusCreated) })
	long := make([]byte, maxIdempotencyKeyLen+1)
	for i := range long {
		long[i] = 'k'
	}
	if resp, _ := post(t, url, string(long)); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

const maxIdempotencyKeyLen = 255

// Idempotency replays the stored response when an account repeats a request
// with the same Idempotency-Key. The key is reserved before the handler runs,
// so concurrent repeats get 409 instead of running twice. Responses with a
// 5xx status are not stored and the key is released, so a retry after a
// transient failure runs again. It must run after Protected.
func Idempotency(store port.IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("Idempotency-Key")
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return fiber.NewError(http.StatusBadRequest, "Idempotency-Key is too long")
		}

		acc := CurrentAccount(c)
		if acc == nil {
			return fiber.NewError(http.StatusUnauthorized, "Missing API Key")
		}
		log := slog.With("key", key, "account_id", acc.ID)

		reserved, err := store.ReserveKey(c.UserContext(), acc.ID, key)
		if err != nil {
			return domain.StorageFault("reserve idempotency key", err)
		}
		if !reserved {
			return replay(c, store, log, acc.ID, key)
		}

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				release(c, store, log, acc.ID, key)
				return herr
			}
		}

		status := c.Response().StatusCode()
		if status >= http.StatusInternalServerError {
			release(c, store, log, acc.ID, key)
			return nil
		}

		// The response buffer is reused by fasthttp once the request ends.
		body := append([]byte(nil), c.Response().Body()...)
		if err := store.SaveResponse(c.UserContext(), acc.ID, key, port.CachedResponse{Status: status, Body: body}); err != nil {
			log.Error("Failed to save Idempotency Key", "error", err)
		} else {
			log.Info("Idempotency Key Saved", "status", status)
		}
		return nil
	}
}

func replay(c *fiber.Ctx, store port.IdempotencyStore, log *slog.Logger, accountID uuid.UUID, key string) error {
	cached, err := store.LookupResponse(c.UserContext(), accountID, key)
	switch {
	case errors.Is(err, domain.ErrNotFound), err == nil && cached.Pending:
		// Still running, or released a moment ago by a failed attempt.
		log.Warn("Idempotency key in use by another request")
		return fiber.NewError(http.StatusConflict, "A request with this Idempotency-Key is already in progress")
	case err != nil:
		return domain.StorageFault("lookup idempotency key", err)
	}

	log.Info("Idempotency hit, returning cached response")
	c.Set("X-Idempotency-Hit", "true")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(cached.Status).Send(cached.Body)
}

func release(c *fiber.Ctx, store port.IdempotencyStore, log *slog.Logger, accountID uuid.UUID, key string) {
	if err := store.ReleaseKey(c.UserContext(), accountID, key); err != nil {
		log.Error("Failed to release Idempotency Key", "error", err)
	}
}

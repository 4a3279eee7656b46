package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is anything whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store Pinger
	// Cache is optional.
	Cache Pinger
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	body := fiber.Map{"status": "ok", "storage": "ok"}
	status := http.StatusOK

	if err := h.Store.Ping(ctx); err != nil {
		slog.Error("Health check: storage unreachable", "error", err)
		body["status"], body["storage"] = "unavailable", "unreachable"
		status = http.StatusServiceUnavailable
	}
	if h.Cache != nil {
		body["cache"] = "ok"
		if err := h.Cache.Ping(ctx); err != nil {
			slog.Warn("Health check: cache unreachable", "error", err)
			body["cache"] = "unreachable"
		}
	}
	return c.Status(status).JSON(body)
}

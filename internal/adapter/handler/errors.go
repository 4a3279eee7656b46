package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

const (
	msgUnavailable = "Service temporarily unavailable. Please try again later."
	msgUnexpected  = "An unexpected error occurred. Please try again later."
)

// ErrorHandler turns errors returned by handlers and middleware into JSON
// responses. Storage and unexpected failures are logged and reported with a
// generic message only.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"error", err,
			"method", c.Method(),
			"path", c.Path(),
			"account_id", accountIDOf(c),
			"status", status)
	}
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, fiber.Map) {
	var (
		fiberErr    *fiber.Error
		validation  *domain.ValidationError
		shortShares *domain.InsufficientHoldingsError
	)
	switch {
	case errors.As(err, &fiberErr):
		if fiberErr.Code >= http.StatusInternalServerError {
			return fiberErr.Code, fiber.Map{"error": msgUnexpected}
		}
		return fiberErr.Code, fiber.Map{"error": fiberErr.Message}
	case errors.As(err, &validation):
		body := fiber.Map{"error": validation.Message}
		if validation.Field != "" {
			body["field"] = validation.Field
		}
		return http.StatusBadRequest, body
	case errors.As(err, &shortShares):
		return http.StatusBadRequest, fiber.Map{
			"error":     shortShares.Error(),
			"available": shortShares.Available,
		}
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest, fiber.Map{"error": domain.ErrInsufficientFunds.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, fiber.Map{"error": err.Error()}
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, fiber.Map{"error": err.Error()}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, fiber.Map{"error": domain.ErrUnauthenticated.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, fiber.Map{"error": domain.ErrForbidden.Error()}
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable, fiber.Map{"error": msgUnavailable}
	default:
		return http.StatusInternalServerError, fiber.Map{"error": msgUnexpected}
	}
}

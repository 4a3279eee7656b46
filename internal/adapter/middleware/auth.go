package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

const accountLocal = "account"

// Authenticator resolves an API key to its account.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*domain.Account, error)
}

// Protected requires "Authorization: Bearer <api key>" and stores the caller's
// account in the request locals.
func Protected(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(http.StatusUnauthorized, "Missing API Key")
		}

		scheme, apiKey, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || apiKey == "" {
			return fiber.NewError(http.StatusUnauthorized, "Invalid Header Format")
		}

		acc, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(apiKey))
		if errors.Is(err, domain.ErrUnauthenticated) {
			return fiber.NewError(http.StatusUnauthorized, "Invalid API Key")
		}
		if err != nil {
			return err
		}

		c.Locals(accountLocal, acc)
		return c.Next()
	}
}

// AdminOnly lets administrators through. It must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc := CurrentAccount(c)
		if acc == nil {
			return fiber.NewError(http.StatusUnauthorized, "Missing API Key")
		}
		if !acc.IsAdmin {
			return domain.ErrForbidden
		}
		return c.Next()
	}
}

// CurrentAccount is the account authenticated by Protected, or nil.
func CurrentAccount(c *fiber.Ctx) *domain.Account {
	acc, _ := c.Locals(accountLocal).(*domain.Account)
	return acc
}

package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

type AccountHandler struct {
	Service *trading.Service
}

// RegisterRequest defines what the user sends us
type RegisterRequest struct {
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirm_password"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates the account and returns its first API key.
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}

	creds, err := h.Service.Register(c.UserContext(), trading.Registration{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Balance:         req.CurrentBalance,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"token": creds.APIKey,
		"msg":   "Registration Successful",
	})
}

// Login exchanges email and password for a fresh API key.
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}

	creds, err := h.Service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token": creds.APIKey,
		"msg":   "Login Success",
	})
}

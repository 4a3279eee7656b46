package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/middleware"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

type TransactionHandler struct {
	Service *trading.Service
}

// OrderRequest is the body of POST /transactions.
type OrderRequest struct {
	Stock           string           `json:"stock"`
	TransactionType string           `json:"transaction_type"`
	Quantity        *int64           `json:"quantity"`
	PriceEach       *decimal.Decimal `json:"price_each"`
}

// transactionResponse is the read shape.
type transactionResponse struct {
	Stock           string    `json:"stock"`
	TransactionType string    `json:"transaction_type"`
	Quantity        int64     `json:"quantity"`
	PriceEach       string    `json:"price_each"`
	TotalPrice      string    `json:"total_price"`
	Timestamp       time.Time `json:"timestamp"`
}

// settledTransactionResponse is returned by a successful order and adds the
// balance right after settlement.
type settledTransactionResponse struct {
	transactionResponse
	UserBalance string `json:"user_balance"`
}

func toTransactionResponse(t domain.Transaction) transactionResponse {
	return transactionResponse{
		Stock:           t.Symbol,
		TransactionType: string(t.Side),
		Quantity:        t.Quantity,
		PriceEach:       domain.FormatMoney(t.PriceEach),
		TotalPrice:      domain.FormatMoney(t.TotalPrice),
		Timestamp:       t.CreatedAt,
	}
}

func toTransactionResponses(history []domain.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(history))
	for i, t := range history {
		out[i] = toTransactionResponse(t)
	}
	return out
}

// Create settles a buy or sell order for the caller.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Quantity == nil {
		return domain.Invalid("quantity", "quantity is required")
	}
	if req.PriceEach == nil {
		return domain.Invalid("price_each", "price_each is required")
	}

	acc := middleware.CurrentAccount(c)
	settled, err := h.Service.SettleOrder(c.UserContext(), acc.ID, domain.Order{
		Symbol:    req.Stock,
		Side:      domain.Side(req.TransactionType),
		Quantity:  *req.Quantity,
		PriceEach: *req.PriceEach,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(settledTransactionResponse{
		transactionResponse: toTransactionResponse(settled.Transaction),
		UserBalance:         domain.FormatMoney(settled.Balance),
	})
}

// List returns all of the caller's transactions, newest first.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	acc := middleware.CurrentAccount(c)
	history, err := h.Service.ListTransactions(c.UserContext(), acc.ID)
	if err != nil {
		return err
	}
	return c.JSON(toTransactionResponses(history))
}

// Query serves GET /query-transactions with optional stock,
// transaction_type, date_after, date_before, min_price and max_price.
func (h *TransactionHandler) Query(c *fiber.Ctx) error {
	acc := middleware.CurrentAccount(c)
	history, err := h.Service.QueryTransactions(c.UserContext(), acc.ID, trading.TransactionQuery{
		Stock:      queryParam(c, "stock"),
		Side:       queryParam(c, "transaction_type"),
		DateAfter:  queryParam(c, "date_after"),
		DateBefore: queryParam(c, "date_before"),
		MinPrice:   queryParam(c, "min_price"),
		MaxPrice:   queryParam(c, "max_price"),
	})
	if err != nil {
		return err
	}
	return c.JSON(toTransactionResponses(history))
}

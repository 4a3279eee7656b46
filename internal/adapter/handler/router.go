package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/middleware"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Service *trading.Service
	Store   port.Store
	// Cache is optional; it is only pinged by /healthz.
	Cache port.StockCache
}

// NewApp builds the fiber application with every route mounted.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	accounts := &AccountHandler{Service: d.Service}
	stocks := &StockHandler{Service: d.Service}
	transactions := &TransactionHandler{Service: d.Service}
	health := &HealthHandler{Store: d.Store}
	if d.Cache != nil {
		health.Cache = d.Cache
	}

	app.Get("/healthz", health.Check)

	api := app.Group("/api/v1")

	// Public
	api.Post("/register", accounts.Register)
	api.Post("/login", accounts.Login)

	// Protected
	private := api.Group("", middleware.Protected(d.Service))
	private.Get("/query-stocks", stocks.QueryStocks)
	private.Get("/transactions", transactions.List)
	private.Post("/transactions", middleware.Idempotency(d.Store), transactions.Create)
	private.Get("/query-transactions", transactions.Query)
	private.Get("/ingest-stocks", middleware.AdminOnly(), stocks.IngestStocks)

	return app
}

func accountIDOf(c *fiber.Ctx) any {
	if acc := middleware.CurrentAccount(c); acc != nil {
		return acc.ID
	}
	return nil
}

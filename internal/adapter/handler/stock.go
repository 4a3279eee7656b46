package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/catalog"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

type StockHandler struct {
	Service *trading.Service
}

type stockResponse struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	LastPrice string    `json:"last_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toStockResponses(stocks []domain.Stock) []stockResponse {
	out := make([]stockResponse, len(stocks))
	for i, st := range stocks {
		out[i] = stockResponse{
			Symbol:    st.Symbol,
			Name:      st.Name,
			LastPrice: domain.FormatMoney(st.LastPrice),
			UpdatedAt: st.UpdatedAt,
		}
	}
	return out
}

// QueryStocks serves GET /query-stocks?symbol=&min_price=&max_price=&ordering=
func (h *StockHandler) QueryStocks(c *fiber.Ctx) error {
	stocks, err := h.Service.QueryStocks(c.UserContext(), trading.StockQuery{
		Symbol:   queryParam(c, "symbol"),
		MinPrice: queryParam(c, "min_price"),
		MaxPrice: queryParam(c, "max_price"),
		Ordering: queryParam(c, "ordering"),
	})
	if err != nil {
		return err
	}
	return c.JSON(toStockResponses(stocks))
}

// IngestStocks loads the built-in catalog and returns every stock.
func (h *StockHandler) IngestStocks(c *fiber.Ctx) error {
	entries, err := catalog.Default()
	if err != nil {
		return err
	}
	stocks, err := h.Service.IngestCatalog(c.UserContext(), entries)
	if err != nil {
		return err
	}
	return c.JSON(toStockResponses(stocks))
}

// queryParam distinguishes an absent parameter (nil) from an empty one.
func queryParam(c *fiber.Ctx, key string) *string {
	if !c.Context().QueryArgs().Has(key) {
		return nil
	}
	v := c.Query(key)
	return &v
}

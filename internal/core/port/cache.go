package port

import (
	"context"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// StockCache keeps stock query results. A miss returns ok == false and a
// nil error.
type StockCache interface {
	GetStocks(ctx context.Context, key string) (stocks []domain.Stock, ok bool, err error)
	SetStocks(ctx context.Context, key string, stocks []domain.Stock) error
	// Invalidate drops every cached result.
	Invalidate(ctx context.Context) error
	Ping(ctx context.Context) error
}

package trading

import (
	"context"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// IngestCatalog creates or updates every entry, keyed by symbol, and returns
// the whole catalog afterwards. Running it twice with the same entries
// changes nothing but the update timestamps.
func (s *Service) IngestCatalog(ctx context.Context, entries []domain.CatalogEntry) ([]domain.Stock, error) {
	log := s.log.With("operation", "ingest_catalog")

	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			log.Warn("Rejected catalog entry", "index", i, "error", err)
			return nil, err
		}
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	if err := s.store.UpsertStocks(ctx, entries, s.now()); err != nil {
		return nil, fault(log, "upsert stocks", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn("Stock cache invalidation failed", "error", err)
		}
	}

	stocks, err := s.store.ListStocks(ctx, domain.StockFilter{Ordering: domain.StockOrdering{Field: domain.SortBySymbol}})
	if err != nil {
		return nil, fault(log, "list stocks", err)
	}

	log.Info("Catalog ingested", "entries", len(entries), "stocks", len(stocks))
	return stocks, nil
}

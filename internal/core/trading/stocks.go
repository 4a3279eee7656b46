package trading

import (
	"context"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// QueryStocks returns the catalog rows matching q. Results are served from
// the cache when one is configured; cache failures only cost a store read.
func (s *Service) QueryStocks(ctx context.Context, q StockQuery) ([]domain.Stock, error) {
	log := s.log.With("operation", "query_stocks")

	filter, err := q.Filter()
	if err != nil {
		log.Warn("Rejected stock query", "error", err)
		return nil, err
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	key := filter.Key()
	if s.cache != nil {
		stocks, ok, err := s.cache.GetStocks(ctx, key)
		switch {
		case err != nil:
			log.Warn("Stock cache read failed", "key", key, "error", err)
		case ok:
			log.Debug("Stock cache hit", "key", key)
			return stocks, nil
		}
	}

	stocks, err := s.store.ListStocks(ctx, filter)
	if err != nil {
		return nil, fault(log, "list stocks", err)
	}

	if s.cache != nil {
		if err := s.cache.SetStocks(ctx, key, stocks); err != nil {
			log.Warn("Stock cache write failed", "key", key, "error", err)
		}
	}
	return stocks, nil
}

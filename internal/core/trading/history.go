package trading

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

// QueryTransactions returns the account's transactions matching q, most
// recent first.
func (s *Service) QueryTransactions(ctx context.Context, accountID uuid.UUID, q TransactionQuery) ([]domain.Transaction, error) {
	log := s.log.With("account_id", accountID, "operation", "query_transactions")

	filter, err := q.Filter()
	if err != nil {
		log.Warn("Rejected transaction query", "error", err)
		return nil, err
	}
	return s.listTransactions(ctx, log, accountID, filter)
}

// ListTransactions returns every transaction of the account, most recent
// first.
func (s *Service) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	log := s.log.With("account_id", accountID, "operation", "list_transactions")
	return s.listTransactions(ctx, log, accountID, domain.TransactionFilter{})
}

func (s *Service) listTransactions(ctx context.Context, log *slog.Logger, accountID uuid.UUID, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	history, err := s.store.ListTransactions(ctx, accountID, filter)
	if err != nil {
		return nil, fault(log, "list transactions", err)
	}
	return history, nil
}

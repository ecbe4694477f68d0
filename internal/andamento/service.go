package andamento

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prevhub/processync/internal/domain"
	"github.com/prevhub/processync/internal/repository"
)

// Service is the read model over status transitions. It never writes to
// the process store; its only mutation is the seen flag, which moves in
// one direction.
type Service struct {
	store  repository.AndamentoStore
	logger *zap.Logger
}

// NewService creates a new andamento query service.
func NewService(store repository.AndamentoStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// PagedResult is one page of enriched history entries.
type PagedResult struct {
	Items  []domain.Andamento `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// List returns a filtered, paginated view of transitions with their
// process and correlated despacho resolved.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter, page domain.Page) (PagedResult, error) {
	items, total, err := s.store.List(ctx, tenantID, filter, page)
	if err != nil {
		return PagedResult{}, err
	}
	return PagedResult{
		Items:  items,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

// MarkSeen flips one entry to seen. Idempotent: marking an already-seen
// entry changes nothing.
func (s *Service) MarkSeen(ctx context.Context, tenantID uuid.UUID, entryID uuid.UUID) (domain.StatusHistoryEntry, error) {
	return s.store.MarkSeen(ctx, tenantID, entryID)
}

// MarkAllSeen flips every unseen entry matching the filter and returns
// how many changed.
func (s *Service) MarkAllSeen(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter) (int64, error) {
	updated, err := s.store.MarkAllSeen(ctx, tenantID, filter)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.logger.Info("marked andamentos seen",
			zap.String("tenant", tenantID.String()),
			zap.Int64("updated", updated),
		)
	}
	return updated, nil
}

// Stats returns the tenant's transition counters.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (domain.AndamentoStats, error) {
	return s.store.Stats(ctx, tenantID)
}

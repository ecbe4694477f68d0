package despacho

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prevhub/processync/internal/domain"
	"github.com/prevhub/processync/internal/repository"
)

// Service is the despacho correlator. The mailbox adapter hands it one
// record per extracted notice; correlation to processes happens lazily at
// read time, so a despacho may arrive before its process is ever synced
// and its tenant may stay unknown forever.
type Service struct {
	store  repository.DespachoStore
	logger *zap.Logger
}

// NewService creates a new correlator.
func NewService(store repository.DespachoStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// IngestInput carries one extracted notice. TenantHint is set when the
// adapter could attribute the mailbox to a tenant.
type IngestInput struct {
	SourceMessageID string
	Protocol        string
	Content         string
	Service         string
	TenantHint      *uuid.UUID
	ReceivedAt      time.Time
}

// Ingest stores the notice once. Reprocessing the same source message id
// is a successful no-op returning the existing row.
func (s *Service) Ingest(ctx context.Context, input IngestInput) (domain.Despacho, bool, error) {
	sourceMessageID := strings.TrimSpace(input.SourceMessageID)
	if sourceMessageID == "" {
		return domain.Despacho{}, false, &domain.ValidationError{Field: "source_message_id", Message: "is required"}
	}
	protocol := strings.TrimSpace(input.Protocol)
	if protocol == "" {
		return domain.Despacho{}, false, &domain.ValidationError{Field: "protocol", Message: "is required"}
	}

	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	var service *string
	if trimmed := strings.TrimSpace(input.Service); trimmed != "" {
		service = &trimmed
	}

	stored, created, err := s.store.Ingest(ctx, domain.Despacho{
		SourceMessageID: sourceMessageID,
		Protocol:        protocol,
		Content:         input.Content,
		Service:         service,
		TenantID:        input.TenantHint,
		ReceivedAt:      receivedAt,
	})
	if err != nil {
		return domain.Despacho{}, false, err
	}

	if created {
		s.logger.Info("despacho ingested",
			zap.String("source_message_id", sourceMessageID),
			zap.String("protocol", protocol),
			zap.Bool("tenant_known", input.TenantHint != nil),
		)
	}

	return stored, created, nil
}

// LookupForProcess finds the despacho that best matches a process, or nil
// when none correlates.
func (s *Service) LookupForProcess(ctx context.Context, process domain.Process) (*domain.Despacho, error) {
	return s.store.LookupForProcess(ctx, process)
}

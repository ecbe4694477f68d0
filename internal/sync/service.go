package sync

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/domain"
	"github.com/prevhub/processync/internal/repository"
	"github.com/prevhub/processync/internal/tasks"
)

// Service is the sync ingestion gateway: it authenticates the tenant,
// validates each scraped snapshot independently and drives the process
// store, collecting one outcome per record. Records within a batch are
// independent and run on a bounded worker pool.
type Service struct {
	resolver  auth.TenantResolver
	processes repository.ProcessStore
	notifier  tasks.Notifier
	logger    *zap.Logger
	workers   int
}

// NewService creates a new sync gateway.
func NewService(
	resolver auth.TenantResolver,
	processes repository.ProcessStore,
	notifier tasks.Notifier,
	logger *zap.Logger,
	workers int,
) *Service {
	if workers < 1 {
		workers = 1
	}
	if notifier == nil {
		notifier = tasks.NoopNotifier{}
	}
	return &Service{
		resolver:  resolver,
		processes: processes,
		notifier:  notifier,
		logger:    logger,
		workers:   workers,
	}
}

// Record is one snapshot as submitted by the extension. AsOf arrives as a
// string so a malformed timestamp rejects only its own record instead of
// failing the whole batch decode.
type Record struct {
	Protocol        string `json:"protocol"`
	Status          string `json:"status"`
	SubjectName     string `json:"subject_name"`
	SubjectDocument string `json:"subject_document"`
	Service         string `json:"service"`
	AsOf            string `json:"as_of"`
}

// Sync processes a batch. An unresolved credential fails the whole batch;
// everything after that is per-record. Retried batches are safe: unchanged
// statuses are no-ops and transitions are recorded exactly once.
func (s *Service) Sync(ctx context.Context, apiKey string, records []Record) (domain.BatchResult, error) {
	tenant, err := s.resolver.Resolve(ctx, apiKey)
	if err != nil {
		return domain.BatchResult{Results: []domain.RecordResult{}}, err
	}

	results := make([]domain.RecordResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, record := range records {
		g.Go(func() error {
			results[i] = s.processRecord(gctx, tenant, record)
			return nil
		})
	}
	// Workers never return errors; per-record failures land in results.
	_ = g.Wait()

	accepted := 0
	for _, result := range results {
		if result.Outcome != domain.OutcomeRejected {
			accepted++
		}
	}

	s.logger.Info("sync batch processed",
		zap.String("tenant", tenant.ID.String()),
		zap.Int("records", len(records)),
		zap.Int("accepted", accepted),
	)

	return domain.BatchResult{Accepted: accepted, Results: results}, nil
}

func (s *Service) processRecord(ctx context.Context, tenant domain.Tenant, record Record) domain.RecordResult {
	snap, err := validateRecord(record)
	if err != nil {
		return domain.RecordResult{
			Protocol: strings.TrimSpace(record.Protocol),
			Outcome:  domain.OutcomeRejected,
			Reason:   err.Error(),
		}
	}

	process, result, err := s.processes.Upsert(ctx, tenant.ID, snap)
	if err != nil {
		s.logger.Warn("snapshot upsert failed",
			zap.String("tenant", tenant.ID.String()),
			zap.String("protocol", snap.Protocol),
			zap.Error(err),
		)
		return domain.RecordResult{
			Protocol: snap.Protocol,
			Outcome:  domain.OutcomeRejected,
			Reason:   err.Error(),
		}
	}

	switch {
	case result.Created:
		return domain.RecordResult{Protocol: snap.Protocol, Outcome: domain.OutcomeCreated}
	case result.Transitioned:
		s.notifyTransition(ctx, process, result, snap)
		return domain.RecordResult{Protocol: snap.Protocol, Outcome: domain.OutcomeTransitioned}
	default:
		return domain.RecordResult{Protocol: snap.Protocol, Outcome: domain.OutcomeUnchanged}
	}
}

// notifyTransition pushes the follow-up task event. Delivery is
// best-effort; the transition is already committed.
func (s *Service) notifyTransition(ctx context.Context, process domain.Process, result domain.UpsertResult, snap domain.Snapshot) {
	from := ""
	if result.PreviousStatus != nil {
		from = *result.PreviousStatus
	}
	_ = s.notifier.NotifyTransition(ctx, tasks.Transition{
		TenantID:   process.TenantID,
		Protocol:   process.Protocol,
		From:       from,
		To:         process.Status,
		OccurredAt: snap.AsOf,
	})
}

func validateRecord(record Record) (domain.Snapshot, error) {
	protocol := strings.TrimSpace(record.Protocol)
	if protocol == "" {
		return domain.Snapshot{}, &domain.ValidationError{Field: "protocol", Message: "is required"}
	}
	if !isDigits(protocol) {
		return domain.Snapshot{}, &domain.ValidationError{Field: "protocol", Message: "must be numeric"}
	}

	document := strings.TrimSpace(record.SubjectDocument)
	if document == "" {
		return domain.Snapshot{}, &domain.ValidationError{Field: "subject_document", Message: "is required"}
	}

	status := strings.TrimSpace(record.Status)
	if status == "" {
		return domain.Snapshot{}, &domain.ValidationError{Field: "status", Message: "is required"}
	}

	asOf := time.Now()
	if raw := strings.TrimSpace(record.AsOf); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.Snapshot{}, &domain.ValidationError{Field: "as_of", Message: "must be RFC 3339"}
		}
		asOf = parsed
	}

	return domain.Snapshot{
		Protocol:        protocol,
		Status:          status,
		SubjectName:     strings.TrimSpace(record.SubjectName),
		SubjectDocument: document,
		Service:         strings.TrimSpace(record.Service),
		AsOf:            asOf,
	}, nil
}

func isDigits(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

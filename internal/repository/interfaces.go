package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prevhub/processync/internal/db"
	"github.com/prevhub/processync/internal/domain"
)

// ProcessStore defines the interface for process snapshot persistence.
// Upsert serializes concurrent writers of the same (tenant, protocol) so a
// transition is recorded exactly once even under duplicate submissions.
type ProcessStore interface {
	Upsert(ctx context.Context, tenantID uuid.UUID, snap domain.Snapshot) (domain.Process, domain.UpsertResult, error)
}

// HistoryRecorder appends immutable transition entries. Record is a
// defensive no-op (not an error) when before equals after, since
// concurrent callers may race past the store's lock boundary in a naive
// setup. The querier lets the process store run the append inside its own
// transaction.
type HistoryRecorder interface {
	Record(ctx context.Context, q db.Querier, process domain.Process, before, after string, occurredAt time.Time) (domain.StatusHistoryEntry, bool, error)
}

// AndamentoStore is the read model over history entries joined with
// process and despacho data, plus the seen-flag mutations.
type AndamentoStore interface {
	List(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter, page domain.Page) ([]domain.Andamento, int64, error)
	MarkSeen(ctx context.Context, tenantID uuid.UUID, entryID uuid.UUID) (domain.StatusHistoryEntry, error)
	MarkAllSeen(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter) (int64, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (domain.AndamentoStats, error)
}

// DespachoStore persists inbound notice documents and resolves the
// non-owning association to processes at query time.
type DespachoStore interface {
	Ingest(ctx context.Context, despacho domain.Despacho) (domain.Despacho, bool, error)
	LookupForProcess(ctx context.Context, process domain.Process) (*domain.Despacho, error)
}

// TenantStore manages tenant records and their API credentials.
type TenantStore interface {
	Create(ctx context.Context, name, apiKeyHash string) (domain.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
}

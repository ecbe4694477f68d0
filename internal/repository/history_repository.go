package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/prevhub/processync/internal/db"
	"github.com/prevhub/processync/internal/domain"
)

const historyColumns = `id, process_id, tenant_id, status_before, status_after, occurred_at, seen, seen_at, created_at`

// historyRepository implements HistoryRecorder. The append runs on
// whatever querier the caller provides, which in practice is the process
// store's upsert transaction.
type historyRepository struct{}

// NewHistoryRepository creates a new history recorder.
func NewHistoryRepository() HistoryRecorder {
	return &historyRepository{}
}

// Record appends one transition entry. Calling it with before == after is
// a no-op, not an error: the caller already decides whether a transition
// happened, and this re-validation keeps redundant concurrent calls from
// producing duplicate rows.
func (r *historyRepository) Record(ctx context.Context, q db.Querier, process domain.Process, before, after string, occurredAt time.Time) (domain.StatusHistoryEntry, bool, error) {
	if before == after {
		return domain.StatusHistoryEntry{}, false, nil
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	row := q.QueryRow(
		ctx,
		`INSERT INTO status_history (process_id, tenant_id, status_before, status_after, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+historyColumns,
		process.ID, process.TenantID, before, after, occurredAt,
	)

	var entry domain.StatusHistoryEntry
	err := row.Scan(
		&entry.ID,
		&entry.ProcessID,
		&entry.TenantID,
		&entry.StatusBefore,
		&entry.StatusAfter,
		&entry.OccurredAt,
		&entry.Seen,
		&entry.SeenAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return domain.StatusHistoryEntry{}, false, fmt.Errorf("failed to record status transition: %w", err)
	}

	return entry, true, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prevhub/processync/internal/domain"
)

const defaultPageSize = 50
const maxPageSize = 200

// andamentoRepository implements AndamentoStore on pgx. Despacho
// correlation happens inside the list query via a lateral lookup so each
// page costs a single round trip.
type andamentoRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewAndamentoRepository creates a new andamento read model repository.
func NewAndamentoRepository(pool *pgxpool.Pool) AndamentoStore {
	return &andamentoRepository{pool: pool, now: time.Now}
}

// List returns one page of history entries joined with their process and,
// when one correlates, a despacho, newest transition first.
func (r *andamentoRepository) List(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter, page domain.Page) ([]domain.Andamento, int64, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	clauses, args := buildAndamentoPredicate(tenantID, filter, r.now())
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT h.id, h.process_id, h.tenant_id, h.status_before, h.status_after, h.occurred_at, h.seen, h.seen_at, h.created_at,
		       p.id, p.tenant_id, p.protocol, p.status, p.prior_status, p.subject_name, p.subject_document, p.service, p.protocoled_at, p.created_at, p.updated_at,
		       d.id, d.source_message_id, d.protocol, d.content, d.service, d.tenant_id, d.received_at, d.created_at,
		       COUNT(*) OVER() AS total_count
		FROM status_history h
		JOIN processes p ON p.id = h.process_id
		LEFT JOIN LATERAL (
			SELECT id, source_message_id, protocol, content, service, tenant_id, received_at, created_at
			FROM despachos
			WHERE protocol = p.protocol
			  AND (tenant_id = p.tenant_id OR tenant_id IS NULL)
			ORDER BY (tenant_id IS NOT NULL) DESC, received_at DESC
			LIMIT 1
		) d ON TRUE
		WHERE %s
		ORDER BY h.occurred_at DESC, h.created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(clauses, " AND "), len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list andamentos: %w", err)
	}
	defer rows.Close()

	andamentos := []domain.Andamento{}
	var total int64
	for rows.Next() {
		var (
			item       domain.Andamento
			dID        *uuid.UUID
			dSourceID  *string
			dProtocol  *string
			dContent   *string
			dService   *string
			dTenantID  *uuid.UUID
			dReceived  *time.Time
			dCreatedAt *time.Time
		)
		if scanErr := rows.Scan(
			&item.Entry.ID,
			&item.Entry.ProcessID,
			&item.Entry.TenantID,
			&item.Entry.StatusBefore,
			&item.Entry.StatusAfter,
			&item.Entry.OccurredAt,
			&item.Entry.Seen,
			&item.Entry.SeenAt,
			&item.Entry.CreatedAt,
			&item.Process.ID,
			&item.Process.TenantID,
			&item.Process.Protocol,
			&item.Process.Status,
			&item.Process.PriorStatus,
			&item.Process.SubjectName,
			&item.Process.SubjectDocument,
			&item.Process.Service,
			&item.Process.ProtocoledAt,
			&item.Process.CreatedAt,
			&item.Process.UpdatedAt,
			&dID,
			&dSourceID,
			&dProtocol,
			&dContent,
			&dService,
			&dTenantID,
			&dReceived,
			&dCreatedAt,
			&total,
		); scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan andamento: %w", scanErr)
		}

		if dID != nil {
			item.Despacho = &domain.Despacho{
				ID:              *dID,
				SourceMessageID: *dSourceID,
				Protocol:        *dProtocol,
				Content:         *dContent,
				Service:         dService,
				TenantID:        dTenantID,
				ReceivedAt:      *dReceived,
				CreatedAt:       *dCreatedAt,
			}
		}

		andamentos = append(andamentos, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, fmt.Errorf("failed to iterate andamentos: %w", rowsErr)
	}

	return andamentos, total, nil
}

// MarkSeen flips a single entry to seen. Calling it again is harmless:
// seen_at keeps its first value.
func (r *andamentoRepository) MarkSeen(ctx context.Context, tenantID uuid.UUID, entryID uuid.UUID) (domain.StatusHistoryEntry, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE status_history
		 SET seen = TRUE, seen_at = COALESCE(seen_at, now())
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING `+historyColumns,
		entryID, tenantID,
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
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusHistoryEntry{}, &domain.NotFoundError{Resource: "history entry", ID: entryID.String()}
		}
		return domain.StatusHistoryEntry{}, fmt.Errorf("failed to mark entry seen: %w", err)
	}

	return entry, nil
}

// MarkAllSeen flips every currently-unseen entry matching the filter. The
// single UPDATE statement evaluates the predicate and applies the change
// atomically, so rows that stop matching mid-operation are never touched.
func (r *andamentoRepository) MarkAllSeen(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter) (int64, error) {
	clauses, args := buildAndamentoPredicate(tenantID, filter, r.now())
	clauses = append(clauses, "h.seen = FALSE")

	query := fmt.Sprintf(`
		UPDATE status_history h
		SET seen = TRUE, seen_at = now()
		FROM processes p
		WHERE p.id = h.process_id AND %s`,
		strings.Join(clauses, " AND "),
	)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark matching entries seen: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Stats aggregates transition counts from the same predicate base used
// for filtering.
func (r *andamentoRepository) Stats(ctx context.Context, tenantID uuid.UUID) (domain.AndamentoStats, error) {
	now := r.now()
	today := domain.PeriodToday.Start(now)
	week := domain.PeriodWeek.Start(now)
	month := domain.PeriodMonth.Start(now)

	var stats domain.AndamentoStats
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FILTER (WHERE occurred_at >= $2),
		        COUNT(*) FILTER (WHERE occurred_at >= $3),
		        COUNT(*) FILTER (WHERE occurred_at >= $4),
		        COUNT(*) FILTER (WHERE NOT seen),
		        COUNT(*)
		 FROM status_history
		 WHERE tenant_id = $1`,
		tenantID, *today, *week, *month,
	).Scan(&stats.Today, &stats.ThisWeek, &stats.ThisMonth, &stats.Unseen, &stats.Total)
	if err != nil {
		return domain.AndamentoStats{}, fmt.Errorf("failed to compute andamento stats: %w", err)
	}

	return stats, nil
}

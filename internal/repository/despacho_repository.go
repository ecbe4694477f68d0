package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prevhub/processync/internal/domain"
)

const despachoColumns = `id, source_message_id, protocol, content, service, tenant_id, received_at, created_at`

// despachoRepository implements DespachoStore on pgx.
type despachoRepository struct {
	pool *pgxpool.Pool
}

// NewDespachoRepository creates a new despacho repository.
func NewDespachoRepository(pool *pgxpool.Pool) DespachoStore {
	return &despachoRepository{pool: pool}
}

// Ingest stores a despacho once per source message id. The deduplication
// rides the unique constraint, not a read-then-write, so concurrent
// redelivery of the same message cannot produce two rows. Reprocessing an
// already-stored message returns the existing row with created=false.
func (r *despachoRepository) Ingest(ctx context.Context, despacho domain.Despacho) (domain.Despacho, bool, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO despachos (source_message_id, protocol, content, service, tenant_id, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (source_message_id) DO NOTHING
		 RETURNING `+despachoColumns,
		despacho.SourceMessageID, despacho.Protocol, despacho.Content, despacho.Service, despacho.TenantID, despacho.ReceivedAt,
	)

	stored, err := scanDespacho(row)
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Despacho{}, false, fmt.Errorf("failed to ingest despacho: %w", err)
	}

	existing, err := r.getBySourceMessageID(ctx, despacho.SourceMessageID)
	if err != nil {
		return domain.Despacho{}, false, err
	}
	return existing, false, nil
}

// LookupForProcess performs the best-effort correlation: a despacho whose
// tenant and protocol both match wins; failing that, a tenant-less
// despacho with a matching protocol is accepted. The fallback tolerates
// notices whose tenant could not be resolved from the email alone.
func (r *despachoRepository) LookupForProcess(ctx context.Context, process domain.Process) (*domain.Despacho, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+despachoColumns+`
		 FROM despachos
		 WHERE protocol = $1
		   AND (tenant_id = $2 OR tenant_id IS NULL)
		 ORDER BY (tenant_id IS NOT NULL) DESC, received_at DESC
		 LIMIT 1`,
		process.Protocol, process.TenantID,
	)

	despacho, err := scanDespacho(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up despacho: %w", err)
	}
	return &despacho, nil
}

func (r *despachoRepository) getBySourceMessageID(ctx context.Context, sourceMessageID string) (domain.Despacho, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+despachoColumns+` FROM despachos WHERE source_message_id = $1`,
		sourceMessageID,
	)
	despacho, err := scanDespacho(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Despacho{}, &domain.NotFoundError{Resource: "despacho", ID: sourceMessageID}
		}
		return domain.Despacho{}, fmt.Errorf("failed to get despacho: %w", err)
	}
	return despacho, nil
}

func scanDespacho(row pgx.Row) (domain.Despacho, error) {
	var despacho domain.Despacho
	err := row.Scan(
		&despacho.ID,
		&despacho.SourceMessageID,
		&despacho.Protocol,
		&despacho.Content,
		&despacho.Service,
		&despacho.TenantID,
		&despacho.ReceivedAt,
		&despacho.CreatedAt,
	)
	if err != nil {
		return domain.Despacho{}, err
	}
	return despacho, nil
}

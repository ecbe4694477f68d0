package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prevhub/processync/internal/db"
	"github.com/prevhub/processync/internal/domain"
)

// pgLockNotAvailable is raised when SET LOCAL lock_timeout expires while
// waiting on a row lock.
const pgLockNotAvailable = "55P03"

const processColumns = `id, tenant_id, protocol, status, prior_status, subject_name, subject_document, service, protocoled_at, created_at, updated_at`

// processRepository implements ProcessStore on pgx.
type processRepository struct {
	pool        *pgxpool.Pool
	history     HistoryRecorder
	lockTimeout time.Duration
}

// NewProcessRepository creates a new process repository. The history
// recorder runs inside the upsert transaction so the row update and the
// transition append commit or roll back together.
func NewProcessRepository(pool *pgxpool.Pool, history HistoryRecorder, lockTimeout time.Duration) ProcessStore {
	if lockTimeout <= 0 {
		lockTimeout = 10 * time.Second
	}
	return &processRepository{
		pool:        pool,
		history:     history,
		lockTimeout: lockTimeout,
	}
}

// Upsert resolves and locks the process row for (tenant, protocol), then:
// creates it as a baseline (no history) when absent, appends exactly one
// history entry when the status changed, or touches updated_at when the
// incoming status matches the stored one.
func (r *processRepository) Upsert(ctx context.Context, tenantID uuid.UUID, snap domain.Snapshot) (domain.Process, domain.UpsertResult, error) {
	var (
		process domain.Process
		result  domain.UpsertResult
	)

	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, timeout); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}

		current, err := lockProcess(ctx, tx, tenantID, snap.Protocol)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if errors.Is(err, pgx.ErrNoRows) {
			created, insertErr := insertProcess(ctx, tx, tenantID, snap)
			if insertErr != nil {
				return insertErr
			}
			if created != nil {
				// First observation establishes a baseline, not a transition.
				process = *created
				result = domain.UpsertResult{Created: true}
				return nil
			}
			// A concurrent writer created the row between our lock attempt
			// and the insert; lock it and fall through to the update path.
			current, err = lockProcess(ctx, tx, tenantID, snap.Protocol)
			if err != nil {
				return err
			}
		}

		if current.Status == snap.Status {
			touched, touchErr := touchProcess(ctx, tx, current.ID, snap)
			if touchErr != nil {
				return touchErr
			}
			process = touched
			result = domain.UpsertResult{}
			return nil
		}

		previous := current.Status
		updated, updateErr := transitionProcess(ctx, tx, current.ID, previous, snap)
		if updateErr != nil {
			return updateErr
		}

		if _, _, recErr := r.history.Record(ctx, tx, updated, previous, snap.Status, snap.AsOf); recErr != nil {
			return recErr
		}

		process = updated
		result = domain.UpsertResult{Transitioned: true, PreviousStatus: &previous}
		return nil
	})
	if err != nil {
		return domain.Process{}, domain.UpsertResult{}, translateLockError(err, snap.Protocol)
	}

	return process, result, nil
}

func lockProcess(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, protocol string) (domain.Process, error) {
	row := tx.QueryRow(
		ctx,
		`SELECT `+processColumns+` FROM processes WHERE tenant_id = $1 AND protocol = $2 FOR UPDATE`,
		tenantID, protocol,
	)
	process, err := scanProcess(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Process{}, err
		}
		return domain.Process{}, fmt.Errorf("failed to lock process row: %w", err)
	}
	return process, nil
}

// insertProcess creates the baseline row. It returns nil (no error) when a
// concurrent writer already inserted the same (tenant, protocol).
func insertProcess(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, snap domain.Snapshot) (*domain.Process, error) {
	row := tx.QueryRow(
		ctx,
		`INSERT INTO processes (tenant_id, protocol, status, subject_name, subject_document, service, protocoled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (tenant_id, protocol) DO NOTHING
		 RETURNING `+processColumns,
		tenantID, snap.Protocol, snap.Status, snap.SubjectName, snap.SubjectDocument, snap.Service, snap.AsOf,
	)
	process, err := scanProcess(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to insert process: %w", err)
	}
	return &process, nil
}

// touchProcess refreshes snapshot attributes without recording a
// transition. protocoled_at keeps its earliest value.
func touchProcess(ctx context.Context, tx pgx.Tx, id uuid.UUID, snap domain.Snapshot) (domain.Process, error) {
	row := tx.QueryRow(
		ctx,
		`UPDATE processes
		 SET subject_name = $2,
		     subject_document = $3,
		     service = $4,
		     protocoled_at = COALESCE(protocoled_at, $5),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+processColumns,
		id, snap.SubjectName, snap.SubjectDocument, snap.Service, snap.AsOf,
	)
	process, err := scanProcess(row)
	if err != nil {
		return domain.Process{}, fmt.Errorf("failed to touch process: %w", err)
	}
	return process, nil
}

func transitionProcess(ctx context.Context, tx pgx.Tx, id uuid.UUID, previous string, snap domain.Snapshot) (domain.Process, error) {
	row := tx.QueryRow(
		ctx,
		`UPDATE processes
		 SET status = $2,
		     prior_status = $3,
		     subject_name = $4,
		     subject_document = $5,
		     service = $6,
		     protocoled_at = COALESCE(protocoled_at, $7),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+processColumns,
		id, snap.Status, previous, snap.SubjectName, snap.SubjectDocument, snap.Service, snap.AsOf,
	)
	process, err := scanProcess(row)
	if err != nil {
		return domain.Process{}, fmt.Errorf("failed to apply status transition: %w", err)
	}
	return process, nil
}

func scanProcess(row pgx.Row) (domain.Process, error) {
	var process domain.Process
	err := row.Scan(
		&process.ID,
		&process.TenantID,
		&process.Protocol,
		&process.Status,
		&process.PriorStatus,
		&process.SubjectName,
		&process.SubjectDocument,
		&process.Service,
		&process.ProtocoledAt,
		&process.CreatedAt,
		&process.UpdatedAt,
	)
	if err != nil {
		return domain.Process{}, err
	}
	return process, nil
}

func translateLockError(err error, protocol string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return &domain.ConflictError{
			Message: fmt.Sprintf("concurrent write on protocol %s", protocol),
			Err:     err,
		}
	}
	return err
}

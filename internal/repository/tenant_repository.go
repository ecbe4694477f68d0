package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prevhub/processync/internal/domain"
)

// tenantRepository implements TenantStore on pgx.
type tenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new tenant repository.
func NewTenantRepository(pool *pgxpool.Pool) TenantStore {
	return &tenantRepository{pool: pool}
}

// Create registers a tenant with its API credential digest.
func (r *tenantRepository) Create(ctx context.Context, name, apiKeyHash string) (domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO tenants (name, api_key_hash)
		 VALUES ($1, $2)
		 RETURNING id, name, created_at, updated_at`,
		name, apiKeyHash,
	).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("failed to create tenant: %w", err)
	}
	return tenant, nil
}

// GetByID retrieves a tenant by ID.
func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, name, created_at, updated_at FROM tenants WHERE id = $1`,
		id,
	).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tenant{}, &domain.NotFoundError{Resource: "tenant", ID: id.String()}
		}
		return domain.Tenant{}, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prevhub/processync/internal/domain"
)

// TenantResolver turns a presented API key into a tenant. Storage of
// credentials lives behind this single call; the sync gateway depends on
// nothing else for authentication.
type TenantResolver interface {
	Resolve(ctx context.Context, apiKey string) (domain.Tenant, error)
}

// HashKey derives the stored digest for an API key.
func HashKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

type pgTenantResolver struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTenantResolver wires a resolver backed by the tenants table. A
// resolution slower than timeout fails with a retryable ConflictError so
// the caller can resubmit the batch.
func NewTenantResolver(pool *pgxpool.Pool, timeout time.Duration) TenantResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &pgTenantResolver{pool: pool, timeout: timeout}
}

func (r *pgTenantResolver) Resolve(ctx context.Context, apiKey string) (domain.Tenant, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return domain.Tenant{}, &domain.AuthError{Message: "missing api key"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var tenant domain.Tenant
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, name, created_at, updated_at
		 FROM tenants
		 WHERE api_key_hash = $1`,
		HashKey(apiKey),
	).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tenant{}, &domain.AuthError{Message: "unknown api key"}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Tenant{}, &domain.ConflictError{Message: "credential resolution timed out", Err: err}
		}
		return domain.Tenant{}, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	return tenant, nil
}

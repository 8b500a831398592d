package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/tenant"
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence/models"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var ErrTenantNotFound = fmt.Errorf("tenant not found")

const (
	tenantFindQuery = `SELECT id, name, domain, is_active, created_at, updated_at FROM tenants`

	tenantInsertQuery = `
	INSERT INTO tenants (id, name, domain, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
)

// PgTenantRepository is not tenant scoped. Tenants are the scoping boundary
// itself; domain lookups here run before any tenant context exists.
type PgTenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &PgTenantRepository{}
}

func (r *PgTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return r.findOne(ctx, tenantFindQuery+" WHERE id = $1", id.String())
}

func (r *PgTenantRepository) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return r.findOne(ctx, tenantFindQuery+" WHERE domain = $1", strings.ToLower(strings.TrimSpace(domain)))
}

func (r *PgTenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := toDBTenant(t)
	var idStr string
	if err := tx.QueryRow(ctx, tenantInsertQuery,
		row.ID, row.Name, row.Domain, row.IsActive, row.CreatedAt, row.UpdatedAt,
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to insert tenant")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tenant id")
	}
	return r.GetByID(ctx, id)
}

func (r *PgTenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return r.query(ctx, tenantFindQuery+" ORDER BY created_at")
}

func (r *PgTenantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*tenant.Tenant, error) {
	tenants, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, ErrTenantNotFound
	}
	return tenants[0], nil
}

func (r *PgTenantRepository) query(ctx context.Context, query string, args ...interface{}) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		var row models.Tenant
		if err := rows.Scan(&row.ID, &row.Name, &row.Domain, &row.IsActive, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant row")
		}
		entity, err := ToDomainTenant(&row)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

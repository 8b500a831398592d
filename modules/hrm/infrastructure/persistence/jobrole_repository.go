package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/entities/jobrole"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var ErrJobRoleNotFound = errors.New("job role not found")

const (
	jobRoleFindQuery = `
		SELECT id, tenant_id, department_id, name, created_at
		FROM job_roles`

	jobRoleInsertQuery = `
		INSERT INTO job_roles (id, tenant_id, department_id, name, created_at)
		VALUES ($1, $2, $3, $4, now())`
)

type PgJobRoleRepository struct{}

func NewJobRoleRepository() jobrole.Repository {
	return &PgJobRoleRepository{}
}

func (g *PgJobRoleRepository) GetAll(ctx context.Context) ([]*jobrole.JobRole, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryJobRoles(ctx, jobRoleFindQuery+" WHERE tenant_id = $1 ORDER BY name", tenantID)
}

func (g *PgJobRoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*jobrole.JobRole, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	matches, err := g.queryJobRoles(ctx, jobRoleFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrJobRoleNotFound
	}
	return matches[0], nil
}

func (g *PgJobRoleRepository) Create(ctx context.Context, role *jobrole.JobRole) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	if _, err := tx.Exec(
		ctx,
		jobRoleInsertQuery,
		role.ID,
		role.TenantID,
		role.DepartmentID,
		role.Name,
	); err != nil {
		return errors.Wrap(err, "failed to insert job role")
	}
	return nil
}

func (g *PgJobRoleRepository) queryJobRoles(ctx context.Context, query string, args ...interface{}) ([]*jobrole.JobRole, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query job roles")
	}
	defer rows.Close()

	var out []*jobrole.JobRole
	for rows.Next() {
		var (
			role      jobrole.JobRole
			createdAt time.Time
		)
		if err := rows.Scan(&role.ID, &role.TenantID, &role.DepartmentID, &role.Name, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan job role row")
		}
		role.CreatedAt = createdAt
		out = append(out, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return out, nil
}

package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/aggregates/employee"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

const (
	employeeFindQuery = `
		SELECT id, tenant_id, property_id, first_name, last_name, email, status, hired_at, created_at, updated_at
		FROM employees`

	employeeInsertQuery = `
		INSERT INTO employees (id, tenant_id, property_id, first_name, last_name, email, status, hired_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`

	employeeUpdateQuery = `
		UPDATE employees
		SET first_name = $1, last_name = $2, status = $3, updated_at = now()
		WHERE id = $4 AND tenant_id = $5`

	employeeDeleteQuery = `DELETE FROM employees WHERE id = $1 AND tenant_id = $2`
)

type PgEmployeeRepository struct{}

func NewEmployeeRepository() employee.Repository {
	return &PgEmployeeRepository{}
}

func (g *PgEmployeeRepository) Count(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE tenant_id = $1`, tenantID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count employees")
	}
	return count, nil
}

func (g *PgEmployeeRepository) GetAll(ctx context.Context) ([]employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryEmployees(ctx, employeeFindQuery+" WHERE tenant_id = $1 ORDER BY last_name, first_name", tenantID)
}

func (g *PgEmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return employee.Employee{}, errors.Wrap(err, "failed to get tenant from context")
	}

	matches, err := g.queryEmployees(ctx, employeeFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return employee.Employee{}, err
	}
	if len(matches) == 0 {
		return employee.Employee{}, employee.ErrNotFound
	}
	return matches[0], nil
}

func (g *PgEmployeeRepository) GetByProperty(ctx context.Context, propertyID uuid.UUID) ([]employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryEmployees(
		ctx,
		employeeFindQuery+" WHERE property_id = $1 AND tenant_id = $2 ORDER BY last_name, first_name",
		propertyID, tenantID,
	)
}

func (g *PgEmployeeRepository) Create(ctx context.Context, data employee.Employee) (employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return employee.Employee{}, errors.Wrap(err, "failed to get transaction")
	}

	var hiredAt sql.NullTime
	if !data.HiredAt().IsZero() {
		hiredAt = sql.NullTime{Time: data.HiredAt(), Valid: true}
	}
	if _, err := tx.Exec(
		ctx,
		employeeInsertQuery,
		data.ID(),
		data.TenantID(),
		data.PropertyID(),
		data.FirstName(),
		data.LastName(),
		data.Email(),
		string(data.Status()),
		hiredAt,
	); err != nil {
		return employee.Employee{}, errors.Wrap(err, "failed to insert employee")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgEmployeeRepository) Update(ctx context.Context, data employee.Employee) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(
		ctx,
		employeeUpdateQuery,
		data.FirstName(),
		data.LastName(),
		string(data.Status()),
		data.ID(),
		tenantID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update employee")
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (g *PgEmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, employeeDeleteQuery, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete employee")
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (g *PgEmployeeRepository) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query employees")
	}
	defer rows.Close()

	var out []employee.Employee
	for rows.Next() {
		entity, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return out, nil
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		id, tenantID, propertyID   uuid.UUID
		firstName, lastName, email string
		status                     string
		hiredAt                    sql.NullTime
		createdAt, updatedAt       time.Time
	)
	if err := row.Scan(
		&id,
		&tenantID,
		&propertyID,
		&firstName,
		&lastName,
		&email,
		&status,
		&hiredAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return employee.Employee{}, errors.Wrap(err, "failed to scan employee row")
	}

	return employee.Hydrate(
		id,
		tenantID,
		propertyID,
		firstName,
		lastName,
		email,
		employee.Status(status),
		hiredAt.Time,
		createdAt,
		updatedAt,
	), nil
}

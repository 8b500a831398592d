package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/aggregates/employee"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

const (
	jobAssignmentFindQuery = `
		SELECT employee_id, job_role_id, start_date, end_date
		FROM employee_job_assignments`

	jobAssignmentInsertQuery = `
		INSERT INTO employee_job_assignments (tenant_id, employee_id, job_role_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, employee_id, job_role_id, start_date) DO NOTHING`

	jobAssignmentEndQuery = `
		UPDATE employee_job_assignments
		SET end_date = $1
		WHERE tenant_id = $2 AND employee_id = $3 AND job_role_id = $4 AND end_date IS NULL`
)

type PgJobAssignmentRepository struct{}

func NewJobAssignmentRepository() employee.JobAssignmentRepository {
	return &PgJobAssignmentRepository{}
}

func (g *PgJobAssignmentRepository) GetByEmployee(ctx context.Context, employeeID uuid.UUID) ([]employee.JobAssignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(
		ctx,
		jobAssignmentFindQuery+" WHERE employee_id = $1 AND tenant_id = $2 ORDER BY start_date",
		employeeID, tenantID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query job assignments")
	}
	defer rows.Close()

	var out []employee.JobAssignment
	for rows.Next() {
		var a employee.JobAssignment
		if err := rows.Scan(&a.EmployeeID, &a.JobRoleID, &a.StartDate, &a.EndDate); err != nil {
			return nil, errors.Wrap(err, "failed to scan job assignment row")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return out, nil
}

func (g *PgJobAssignmentRepository) Assign(ctx context.Context, a employee.JobAssignment) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	if _, err := tx.Exec(
		ctx,
		jobAssignmentInsertQuery,
		tenantID,
		a.EmployeeID,
		a.JobRoleID,
		a.StartDate,
		a.EndDate,
	); err != nil {
		return errors.Wrap(err, "failed to insert job assignment")
	}
	return nil
}

func (g *PgJobAssignmentRepository) End(ctx context.Context, employeeID, jobRoleID uuid.UUID, endDate time.Time) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	if _, err := tx.Exec(ctx, jobAssignmentEndQuery, endDate, tenantID, employeeID, jobRoleID); err != nil {
		return errors.Wrap(err, "failed to end job assignment")
	}
	return nil
}

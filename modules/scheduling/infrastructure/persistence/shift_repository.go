package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

const (
	shiftPlanFindQuery = `
		SELECT id, tenant_id, property_id, schedule_period_id, department_id, job_role_id,
			start_at, end_at, break_minutes, is_open_shift, created_at
		FROM shift_plans`

	shiftPlanInsertQuery = `
		INSERT INTO shift_plans (
			id, tenant_id, property_id, schedule_period_id, department_id, job_role_id,
			start_at, end_at, break_minutes, is_open_shift, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`

	assignmentFindQuery = `
		SELECT id, tenant_id, property_id, shift_plan_id, employee_id, assigned_by, assigned_at
		FROM shift_assignments`

	assignmentInsertQuery = `
		INSERT INTO shift_assignments (id, tenant_id, property_id, shift_plan_id, employee_id, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	assignmentDeleteQuery = `
		DELETE FROM shift_assignments
		WHERE shift_plan_id = $1 AND employee_id = $2 AND tenant_id = $3`
)

type PgShiftRepository struct{}

func NewShiftRepository() shift.Repository {
	return &PgShiftRepository{}
}

func (g *PgShiftRepository) CreatePlan(ctx context.Context, data shift.Plan) (shift.Plan, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to get transaction")
	}

	_, err = tx.Exec(
		ctx,
		shiftPlanInsertQuery,
		data.ID,
		data.TenantID,
		data.PropertyID,
		data.SchedulePeriodID,
		data.DepartmentID,
		data.JobRoleID,
		data.StartAt,
		data.EndAt,
		data.BreakMinutes,
		data.IsOpenShift,
	)
	if err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to insert shift plan")
	}
	return g.GetPlan(ctx, data.ID)
}

func (g *PgShiftRepository) GetPlan(ctx context.Context, id uuid.UUID) (shift.Plan, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to get transaction")
	}

	p, err := scanShiftPlan(tx.QueryRow(ctx, shiftPlanFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Plan{}, shift.ErrPlanNotFound
		}
		return shift.Plan{}, err
	}
	return p, nil
}

func (g *PgShiftRepository) ListPlans(ctx context.Context, filter shift.PlanFilter) ([]shift.Plan, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	query := shiftPlanFindQuery + " WHERE property_id = $1 AND tenant_id = $2 AND start_at < $3 AND end_at > $4"
	args := []interface{}{filter.PropertyID, tenantID, filter.End, filter.Start}
	if filter.SchedulePeriodID != nil {
		args = append(args, *filter.SchedulePeriodID)
		query += fmt.Sprintf(" AND schedule_period_id = $%d", len(args))
	}
	if filter.OpenOnly {
		query += " AND is_open_shift = true"
	}
	query += " ORDER BY start_at"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query shift plans")
	}
	defer rows.Close()

	plans := make([]shift.Plan, 0)
	for rows.Next() {
		p, err := scanShiftPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (g *PgShiftRepository) GetAssignments(ctx context.Context, planIDs []uuid.UUID) (map[uuid.UUID][]shift.Assignment, error) {
	byPlan := make(map[uuid.UUID][]shift.Assignment, len(planIDs))
	if len(planIDs) == 0 {
		return byPlan, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	ids := make([]string, 0, len(planIDs))
	for _, id := range planIDs {
		ids = append(ids, id.String())
	}

	assignments, err := g.queryAssignments(
		ctx,
		assignmentFindQuery+" WHERE shift_plan_id = ANY($1::uuid[]) AND tenant_id = $2 ORDER BY assigned_at",
		ids, tenantID,
	)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		byPlan[a.ShiftPlanID] = append(byPlan[a.ShiftPlanID], a)
	}
	return byPlan, nil
}

func (g *PgShiftRepository) LockAssignments(ctx context.Context, planID uuid.UUID) ([]shift.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryAssignments(
		ctx,
		assignmentFindQuery+" WHERE shift_plan_id = $1 AND tenant_id = $2 FOR UPDATE",
		planID, tenantID,
	)
}

func (g *PgShiftRepository) CreateAssignment(ctx context.Context, data shift.Assignment) (shift.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to get transaction")
	}

	_, err = tx.Exec(
		ctx,
		assignmentInsertQuery,
		data.ID,
		data.TenantID,
		data.PropertyID,
		data.ShiftPlanID,
		data.EmployeeID,
		data.AssignedBy,
		data.AssignedAt,
	)
	if err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to insert shift assignment")
	}
	return data, nil
}

func (g *PgShiftRepository) DeleteAssignment(ctx context.Context, planID, employeeID uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, assignmentDeleteQuery, planID, employeeID, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete shift assignment")
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrAssignmentNotFound
	}
	return nil
}

func (g *PgShiftRepository) CountOpen(ctx context.Context, propertyID uuid.UUID, start, end time.Time) (int, error) {
	return g.countPlans(
		ctx,
		`SELECT COUNT(*) FROM shift_plans
		WHERE tenant_id = $1 AND property_id = $2 AND is_open_shift = true AND start_at < $3 AND end_at > $4`,
		propertyID, start, end,
	)
}

func (g *PgShiftRepository) CountUnassigned(ctx context.Context, propertyID uuid.UUID, start, end time.Time) (int, error) {
	return g.countPlans(
		ctx,
		`SELECT COUNT(*) FROM shift_plans sp
		WHERE sp.tenant_id = $1 AND sp.property_id = $2 AND sp.start_at < $3 AND sp.end_at > $4
			AND NOT EXISTS (
				SELECT 1 FROM shift_assignments sa
				WHERE sa.shift_plan_id = sp.id AND sa.tenant_id = sp.tenant_id
			)`,
		propertyID, start, end,
	)
}

func (g *PgShiftRepository) countPlans(ctx context.Context, query string, propertyID uuid.UUID, start, end time.Time) (int, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	var count int
	if err := tx.QueryRow(ctx, query, tenantID, propertyID, end, start).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count shift plans")
	}
	return count, nil
}

func (g *PgShiftRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]shift.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query shift assignments")
	}
	defer rows.Close()

	assignments := make([]shift.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func scanShiftPlan(row pgx.Row) (shift.Plan, error) {
	var (
		p                                        shift.Plan
		idStr, tenantStr, propertyStr, periodStr string
		departmentStr, jobRoleStr                string
	)

	err := row.Scan(
		&idStr, &tenantStr, &propertyStr, &periodStr, &departmentStr, &jobRoleStr,
		&p.StartAt, &p.EndAt, &p.BreakMinutes, &p.IsOpenShift, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Plan{}, err
		}
		return shift.Plan{}, errors.Wrap(err, "failed to scan shift plan")
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to parse shift plan id")
	}
	if p.TenantID, err = uuid.Parse(tenantStr); err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to parse tenant id")
	}
	if p.PropertyID, err = uuid.Parse(propertyStr); err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to parse property id")
	}
	if p.SchedulePeriodID, err = uuid.Parse(periodStr); err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to parse schedule period id")
	}
	if p.DepartmentID, err = uuid.Parse(departmentStr); err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to parse department id")
	}
	if p.JobRoleID, err = uuid.Parse(jobRoleStr); err != nil {
		return shift.Plan{}, errors.Wrap(err, "failed to parse job role id")
	}
	return p, nil
}

func scanAssignment(row pgx.Row) (shift.Assignment, error) {
	var (
		a                                      shift.Assignment
		idStr, tenantStr, propertyStr, planStr string
		employeeStr, assignedByStr             string
	)

	err := row.Scan(&idStr, &tenantStr, &propertyStr, &planStr, &employeeStr, &assignedByStr, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Assignment{}, err
		}
		return shift.Assignment{}, errors.Wrap(err, "failed to scan shift assignment")
	}

	if a.ID, err = uuid.Parse(idStr); err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to parse assignment id")
	}
	if a.TenantID, err = uuid.Parse(tenantStr); err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to parse tenant id")
	}
	if a.PropertyID, err = uuid.Parse(propertyStr); err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to parse property id")
	}
	if a.ShiftPlanID, err = uuid.Parse(planStr); err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to parse shift plan id")
	}
	if a.EmployeeID, err = uuid.Parse(employeeStr); err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to parse employee id")
	}
	if a.AssignedBy, err = uuid.Parse(assignedByStr); err != nil {
		return shift.Assignment{}, errors.Wrap(err, "failed to parse assigned_by")
	}
	return a, nil
}

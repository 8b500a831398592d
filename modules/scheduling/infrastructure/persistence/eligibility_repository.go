package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

const (
	eligibleExistsQuery = `
		SELECT EXISTS (
			SELECT 1 FROM employee_job_assignments
			WHERE tenant_id = $1 AND employee_id = $2 AND job_role_id = $3
				AND start_date <= $4 AND (end_date IS NULL OR end_date >= $4)
		)`

	overlapExistsQuery = `
		SELECT EXISTS (
			SELECT 1
			FROM shift_assignments sa
			JOIN shift_plans sp ON sp.id = sa.shift_plan_id AND sp.tenant_id = sa.tenant_id
			WHERE sa.tenant_id = $1 AND sa.employee_id = $2 AND sa.shift_plan_id <> $3
				AND sp.start_at < $4 AND sp.end_at > $5
		)`

	eligibleRolesQuery = `
		SELECT DISTINCT job_role_id FROM employee_job_assignments
		WHERE tenant_id = $1 AND employee_id = $2
			AND start_date <= $3 AND (end_date IS NULL OR end_date >= $3)`
)

// PgEligibilityRepository reads the HR job-assignment records and the live
// shift assignments. It never writes.
type PgEligibilityRepository struct{}

func NewEligibilityRepository() shift.EligibilityRepository {
	return &PgEligibilityRepository{}
}

func (g *PgEligibilityRepository) IsEligible(ctx context.Context, employeeID, jobRoleID uuid.UUID, asOf time.Time) (bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}

	var eligible bool
	if err := tx.QueryRow(ctx, eligibleExistsQuery, tenantID, employeeID, jobRoleID, asOf).Scan(&eligible); err != nil {
		return false, errors.Wrap(err, "failed to check eligibility")
	}
	return eligible, nil
}

// HasOverlap applies the half-open interval test in SQL: an existing shift
// collides iff existing.start < end AND existing.end > start. Pass
// excludePlanID to leave the shift being vacated out of the comparison;
// uuid.Nil excludes nothing.
func (g *PgEligibilityRepository) HasOverlap(ctx context.Context, employeeID uuid.UUID, start, end time.Time, excludePlanID uuid.UUID) (bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}

	var overlaps bool
	if err := tx.QueryRow(ctx, overlapExistsQuery, tenantID, employeeID, excludePlanID, end, start).Scan(&overlaps); err != nil {
		return false, errors.Wrap(err, "failed to check overlap")
	}
	return overlaps, nil
}

func (g *PgEligibilityRepository) EligibleJobRoleIDs(ctx context.Context, employeeID uuid.UUID, asOf time.Time) ([]uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, eligibleRolesQuery, tenantID, employeeID, asOf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query eligible job roles")
	}
	defer rows.Close()

	roleIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, errors.Wrap(err, "failed to scan job role id")
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse job role id")
		}
		roleIDs = append(roleIDs, id)
	}
	return roleIDs, rows.Err()
}

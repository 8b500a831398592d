package shift

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlanFilter narrows ListPlans to one property and a time window; shifts
// match when their interval overlaps [Start, End). SchedulePeriodID is
// optional, OpenOnly restricts to plans flagged as open shifts.
type PlanFilter struct {
	PropertyID       uuid.UUID
	SchedulePeriodID *uuid.UUID
	Start            time.Time
	End              time.Time
	OpenOnly         bool
}

type Repository interface {
	CreatePlan(ctx context.Context, data Plan) (Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	ListPlans(ctx context.Context, filter PlanFilter) ([]Plan, error)
	// GetAssignments returns the current assignment rows for a set of plans,
	// keyed by shift plan id.
	GetAssignments(ctx context.Context, planIDs []uuid.UUID) (map[uuid.UUID][]Assignment, error)
	// LockAssignments loads one plan's assignments under FOR UPDATE so a
	// reassignment can re-check ownership and mutate under the same lock.
	LockAssignments(ctx context.Context, planID uuid.UUID) ([]Assignment, error)
	CreateAssignment(ctx context.Context, data Assignment) (Assignment, error)
	DeleteAssignment(ctx context.Context, planID, employeeID uuid.UUID) error
	CountOpen(ctx context.Context, propertyID uuid.UUID, start, end time.Time) (int, error)
	CountUnassigned(ctx context.Context, propertyID uuid.UUID, start, end time.Time) (int, error)
}

// EligibilityRepository answers the two pure questions the swap and
// assignment flows depend on: may this employee work this job role, and
// would this interval collide with a shift the employee already holds.
type EligibilityRepository interface {
	IsEligible(ctx context.Context, employeeID, jobRoleID uuid.UUID, asOf time.Time) (bool, error)
	HasOverlap(ctx context.Context, employeeID uuid.UUID, start, end time.Time, excludePlanID uuid.UUID) (bool, error)
	// EligibleJobRoleIDs lists the job roles the employee holds an active
	// assignment for, used to filter open shifts to claimable ones.
	EligibleJobRoleIDs(ctx context.Context, employeeID uuid.UUID, asOf time.Time) ([]uuid.UUID, error)
}

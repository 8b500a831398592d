package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

type ShiftService struct {
	repo        shift.Repository
	eligibility shift.EligibilityRepository
	periods     period.Repository
}

func NewShiftService(repo shift.Repository, eligibility shift.EligibilityRepository, periods period.Repository) *ShiftService {
	return &ShiftService{
		repo:        repo,
		eligibility: eligibility,
		periods:     periods,
	}
}

// ShiftWithAssignments is a plan annotated with its current assignment rows.
// A plan with no rows is effectively open regardless of the IsOpenShift flag.
type ShiftWithAssignments struct {
	Plan        shift.Plan
	Assignments []shift.Assignment
}

func (s ShiftWithAssignments) AssignedEmployeeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		ids = append(ids, a.EmployeeID)
	}
	return ids
}

func (s *ShiftService) GetShifts(ctx context.Context, filter shift.PlanFilter) ([]ShiftWithAssignments, error) {
	if err := authorizeScheduling(ctx, permissions.ShiftsRead); err != nil {
		return nil, err
	}
	if filter.PropertyID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHED_INVALID_QUERY", "propertyId is required", nil)
	}
	if filter.Start.IsZero() || filter.End.IsZero() {
		return nil, newServiceError(http.StatusBadRequest, "SCHED_INVALID_QUERY", "start and end are required", nil)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]ShiftWithAssignments, error) {
		plans, err := s.repo.ListPlans(txCtx, filter)
		if err != nil {
			return nil, mapPgError(err)
		}
		return s.annotate(txCtx, plans)
	})
}

// ListOpenShifts lists claimable shifts in range. Unless includeIneligible
// is set, a caller with an employee record only sees shifts for job roles
// they actively hold.
func (s *ShiftService) ListOpenShifts(ctx context.Context, propertyID uuid.UUID, start, end time.Time, includeIneligible bool) ([]ShiftWithAssignments, error) {
	if err := authorizeScheduling(ctx, permissions.ShiftsRead); err != nil {
		return nil, err
	}
	if propertyID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHED_INVALID_QUERY", "propertyId is required", nil)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]ShiftWithAssignments, error) {
		plans, err := s.repo.ListPlans(txCtx, shift.PlanFilter{
			PropertyID: propertyID,
			Start:      start,
			End:        end,
			OpenOnly:   true,
		})
		if err != nil {
			return nil, mapPgError(err)
		}

		if !includeIneligible {
			if employeeID := optionalEmployeeID(txCtx); employeeID != uuid.Nil {
				plans, err = s.filterEligible(txCtx, plans, employeeID)
				if err != nil {
					return nil, err
				}
			}
		}
		return s.annotate(txCtx, plans)
	})
}

func (s *ShiftService) filterEligible(ctx context.Context, plans []shift.Plan, employeeID uuid.UUID) ([]shift.Plan, error) {
	roleIDs, err := s.eligibility.EligibleJobRoleIDs(ctx, employeeID, time.Now())
	if err != nil {
		return nil, mapPgError(err)
	}
	eligible := make(map[uuid.UUID]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		eligible[id] = struct{}{}
	}

	filtered := plans[:0]
	for _, p := range plans {
		if _, ok := eligible[p.JobRoleID]; ok {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

type CreateShiftInput struct {
	SchedulePeriodID uuid.UUID
	DepartmentID     uuid.UUID
	JobRoleID        uuid.UUID
	StartAt          time.Time
	EndAt            time.Time
	BreakMinutes     int
	IsOpenShift      bool
}

// CreateShift adds a plan to a period. The property comes from the period;
// LOCKED periods reject all planning writes.
func (s *ShiftService) CreateShift(ctx context.Context, input CreateShiftInput) (shift.Plan, error) {
	if err := authorizeScheduling(ctx, permissions.ShiftsManage); err != nil {
		return shift.Plan{}, err
	}
	if input.SchedulePeriodID == uuid.Nil || input.JobRoleID == uuid.Nil {
		return shift.Plan{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "schedulePeriodId and jobRoleId are required", nil)
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return shift.Plan{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "startDateTime and endDateTime are required", nil)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (shift.Plan, error) {
		p, err := s.periods.GetByID(txCtx, input.SchedulePeriodID)
		if err != nil {
			if errors.Is(err, period.ErrNotFound) {
				return shift.Plan{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "schedule period not found", err)
			}
			return shift.Plan{}, mapPgError(err)
		}
		if err := ensurePropertyAccess(txCtx, p.PropertyID()); err != nil {
			return shift.Plan{}, err
		}
		if p.IsLocked() {
			return shift.Plan{}, newServiceError(http.StatusConflict, "SCHED_LOCKED", "schedule period is locked", period.ErrLocked)
		}

		plan, err := shift.NewPlan(
			p.TenantID(), p.PropertyID(), p.ID(),
			input.DepartmentID, input.JobRoleID,
			input.StartAt, input.EndAt,
			input.BreakMinutes, input.IsOpenShift,
		)
		if err != nil {
			if errors.Is(err, shift.ErrTimeOrder) {
				return shift.Plan{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "startDateTime must be before endDateTime", err)
			}
			return shift.Plan{}, err
		}

		created, err := s.repo.CreatePlan(txCtx, plan)
		if err != nil {
			return shift.Plan{}, mapPgError(err)
		}
		return created, nil
	})
}

// AssignShift is the manager direct-assign path. Eligibility and overlap are
// validated under the same assignment row locks the swap approval uses.
func (s *ShiftService) AssignShift(ctx context.Context, planID, employeeID uuid.UUID) (ShiftWithAssignments, error) {
	if err := authorizeScheduling(ctx, permissions.ShiftsManage); err != nil {
		return ShiftWithAssignments{}, err
	}
	if employeeID == uuid.Nil {
		return ShiftWithAssignments{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "employeeId is required", nil)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (ShiftWithAssignments, error) {
		plan, err := s.repo.GetPlan(txCtx, planID)
		if err != nil {
			if errors.Is(err, shift.ErrPlanNotFound) {
				return ShiftWithAssignments{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "shift plan not found", err)
			}
			return ShiftWithAssignments{}, mapPgError(err)
		}
		if err := ensurePropertyAccess(txCtx, plan.PropertyID); err != nil {
			return ShiftWithAssignments{}, err
		}

		p, err := s.periods.GetByID(txCtx, plan.SchedulePeriodID)
		if err != nil && !errors.Is(err, period.ErrNotFound) {
			return ShiftWithAssignments{}, mapPgError(err)
		}
		if err == nil && p.IsLocked() {
			return ShiftWithAssignments{}, newServiceError(http.StatusConflict, "SCHED_LOCKED", "schedule period is locked", period.ErrLocked)
		}

		current, err := s.repo.LockAssignments(txCtx, planID)
		if err != nil {
			return ShiftWithAssignments{}, mapPgError(err)
		}
		for _, a := range current {
			if a.EmployeeID == employeeID {
				return ShiftWithAssignments{}, newServiceError(http.StatusConflict, "SCHED_DUPLICATE_ASSIGNMENT", "employee is already assigned to shift", nil)
			}
		}

		eligible, err := s.eligibility.IsEligible(txCtx, employeeID, plan.JobRoleID, plan.StartAt)
		if err != nil {
			return ShiftWithAssignments{}, mapPgError(err)
		}
		if !eligible {
			return ShiftWithAssignments{}, newServiceError(http.StatusConflict, "SCHED_NOT_ELIGIBLE", "employee is not eligible for this shift's job role", nil)
		}

		overlaps, err := s.eligibility.HasOverlap(txCtx, employeeID, plan.StartAt, plan.EndAt, plan.ID)
		if err != nil {
			return ShiftWithAssignments{}, mapPgError(err)
		}
		if overlaps {
			return ShiftWithAssignments{}, newServiceError(http.StatusConflict, "SCHED_OVERLAP", "employee is already assigned to an overlapping shift", nil)
		}

		created, err := s.repo.CreateAssignment(txCtx, shift.Assignment{
			ID:          uuid.New(),
			TenantID:    plan.TenantID,
			PropertyID:  plan.PropertyID,
			ShiftPlanID: plan.ID,
			EmployeeID:  employeeID,
			AssignedBy:  actorID(txCtx),
			AssignedAt:  time.Now(),
		})
		if err != nil {
			return ShiftWithAssignments{}, mapPgError(err)
		}

		return ShiftWithAssignments{Plan: plan, Assignments: append(current, created)}, nil
	})
}

func (s *ShiftService) UnassignShift(ctx context.Context, planID, employeeID uuid.UUID) (ShiftWithAssignments, error) {
	if err := authorizeScheduling(ctx, permissions.ShiftsManage); err != nil {
		return ShiftWithAssignments{}, err
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (ShiftWithAssignments, error) {
		plan, err := s.repo.GetPlan(txCtx, planID)
		if err != nil {
			if errors.Is(err, shift.ErrPlanNotFound) {
				return ShiftWithAssignments{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "shift plan not found", err)
			}
			return ShiftWithAssignments{}, mapPgError(err)
		}
		if err := ensurePropertyAccess(txCtx, plan.PropertyID); err != nil {
			return ShiftWithAssignments{}, err
		}

		if err := s.repo.DeleteAssignment(txCtx, planID, employeeID); err != nil {
			if errors.Is(err, shift.ErrAssignmentNotFound) {
				return ShiftWithAssignments{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "shift assignment not found", err)
			}
			return ShiftWithAssignments{}, mapPgError(err)
		}

		annotated, err := s.annotate(txCtx, []shift.Plan{plan})
		if err != nil {
			return ShiftWithAssignments{}, err
		}
		return annotated[0], nil
	})
}

func (s *ShiftService) annotate(ctx context.Context, plans []shift.Plan) ([]ShiftWithAssignments, error) {
	ids := make([]uuid.UUID, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	byPlan, err := s.repo.GetAssignments(ctx, ids)
	if err != nil {
		return nil, mapPgError(err)
	}

	out := make([]ShiftWithAssignments, 0, len(plans))
	for _, p := range plans {
		assignments := byPlan[p.ID]
		if assignments == nil {
			assignments = []shift.Assignment{}
		}
		out = append(out, ShiftWithAssignments{Plan: p, Assignments: assignments})
	}
	return out, nil
}

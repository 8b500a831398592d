package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/swap"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

type SwapRequestService struct {
	repo        swap.Repository
	shifts      shift.Repository
	eligibility shift.EligibilityRepository
	publisher   eventbus.EventBus
}

func NewSwapRequestService(
	repo swap.Repository,
	shifts shift.Repository,
	eligibility shift.EligibilityRepository,
	publisher eventbus.EventBus,
) *SwapRequestService {
	return &SwapRequestService{
		repo:        repo,
		shifts:      shifts,
		eligibility: eligibility,
		publisher:   publisher,
	}
}

type CreateSwapInput struct {
	FromShiftPlanID uuid.UUID
	ToEmployeeID    uuid.UUID
}

// Create opens a PENDING request to hand the caller's shift to another
// employee. Ownership, target eligibility and target overlap are validated
// now and ownership again at approval. Replaying an identical request while
// the first is still PENDING returns the existing one instead of a
// duplicate.
func (s *SwapRequestService) Create(ctx context.Context, input CreateSwapInput) (swap.Request, error) {
	if err := authorizeScheduling(ctx, permissions.SwapsRequest); err != nil {
		return swap.Request{}, err
	}
	if input.FromShiftPlanID == uuid.Nil || input.ToEmployeeID == uuid.Nil {
		return swap.Request{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "fromShiftPlanId and toEmployeeId are required", nil)
	}
	requestorID, err := currentEmployeeID(ctx)
	if err != nil {
		return swap.Request{}, err
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (swap.Request, error) {
		plan, err := s.shifts.GetPlan(txCtx, input.FromShiftPlanID)
		if err != nil {
			if errors.Is(err, shift.ErrPlanNotFound) {
				return swap.Request{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "shift plan not found", err)
			}
			return swap.Request{}, mapPgError(err)
		}

		assignments, err := s.shifts.GetAssignments(txCtx, []uuid.UUID{plan.ID})
		if err != nil {
			return swap.Request{}, mapPgError(err)
		}
		if !holdsAssignment(assignments[plan.ID], requestorID) {
			return swap.Request{}, newServiceError(http.StatusForbidden, "SCHED_NOT_ASSIGNED", "shift is not assigned to you", nil)
		}

		eligible, err := s.eligibility.IsEligible(txCtx, input.ToEmployeeID, plan.JobRoleID, plan.StartAt)
		if err != nil {
			return swap.Request{}, mapPgError(err)
		}
		if !eligible {
			return swap.Request{}, newServiceError(http.StatusConflict, "SCHED_NOT_ELIGIBLE", "target employee is not eligible for this shift's job role", nil)
		}

		overlaps, err := s.eligibility.HasOverlap(txCtx, input.ToEmployeeID, plan.StartAt, plan.EndAt, plan.ID)
		if err != nil {
			return swap.Request{}, mapPgError(err)
		}
		if overlaps {
			return swap.Request{}, newServiceError(http.StatusConflict, "SCHED_OVERLAP", "target employee is already assigned to an overlapping shift", nil)
		}

		existing, err := s.repo.FindPending(txCtx, plan.ID, requestorID, input.ToEmployeeID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, swap.ErrNotFound) {
			return swap.Request{}, mapPgError(err)
		}

		created, err := s.repo.Create(txCtx, swap.New(plan.TenantID, plan.PropertyID, plan.ID, requestorID, input.ToEmployeeID))
		if err != nil {
			return swap.Request{}, mapPgError(err)
		}
		return created, nil
	})
}

// Cancel is restricted to the requestor and to PENDING requests.
func (s *SwapRequestService) Cancel(ctx context.Context, requestID uuid.UUID) (swap.Request, error) {
	if err := authorizeScheduling(ctx, permissions.SwapsRequest); err != nil {
		return swap.Request{}, err
	}
	callerID, err := currentEmployeeID(ctx)
	if err != nil {
		return swap.Request{}, err
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (swap.Request, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, swap.ErrNotFound) {
				return swap.Request{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "swap request not found", err)
			}
			return swap.Request{}, mapPgError(err)
		}
		if !req.IsRequestor(callerID) {
			return swap.Request{}, newServiceError(http.StatusForbidden, "SCHED_NOT_OWNER", "you can only cancel your own swap requests", nil)
		}

		canceled, err := req.Cancel(time.Now())
		if err != nil {
			return swap.Request{}, newServiceError(http.StatusConflict, "SCHED_ALREADY_DECIDED", "swap request is already decided", err)
		}
		if err := s.repo.Update(txCtx, canceled); err != nil {
			return swap.Request{}, mapPgError(err)
		}
		return canceled, nil
	})
}

// SwapDecision is the approval result: the decided request and the shift
// with its post-swap assignment set.
type SwapDecision struct {
	Request swap.Request
	Shift   ShiftWithAssignments
}

// Approve re-validates that the requestor still holds the shift, under the
// same row locks as the reassignment, then moves the assignment and decides
// the request in one transaction. A request decided by a concurrent call is
// reported as a conflict, never applied twice.
func (s *SwapRequestService) Approve(ctx context.Context, requestID uuid.UUID) (SwapDecision, error) {
	if err := authorizeScheduling(ctx, permissions.SwapsDecide); err != nil {
		return SwapDecision{}, err
	}

	decision, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (SwapDecision, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, swap.ErrNotFound) {
				return SwapDecision{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "swap request not found", err)
			}
			return SwapDecision{}, mapPgError(err)
		}
		if err := ensurePropertyAccess(txCtx, req.PropertyID()); err != nil {
			return SwapDecision{}, err
		}

		approved, err := req.Approve(actorID(txCtx), time.Now())
		if err != nil {
			return SwapDecision{}, newServiceError(http.StatusConflict, "SCHED_ALREADY_DECIDED", "swap request is already decided", err)
		}

		plan, err := s.shifts.GetPlan(txCtx, req.ShiftPlanID())
		if err != nil {
			if errors.Is(err, shift.ErrPlanNotFound) {
				return SwapDecision{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "shift plan not found", err)
			}
			return SwapDecision{}, mapPgError(err)
		}

		locked, err := s.shifts.LockAssignments(txCtx, plan.ID)
		if err != nil {
			return SwapDecision{}, mapPgError(err)
		}
		if !holdsAssignment(locked, req.RequestorEmployeeID()) {
			return SwapDecision{}, newServiceError(http.StatusConflict, "SCHED_STALE_ASSIGNMENT", "requestor is no longer assigned to this shift", nil)
		}

		if err := s.shifts.DeleteAssignment(txCtx, plan.ID, req.RequestorEmployeeID()); err != nil {
			return SwapDecision{}, mapPgError(err)
		}
		if _, err := s.shifts.CreateAssignment(txCtx, shift.Assignment{
			ID:          uuid.New(),
			TenantID:    plan.TenantID,
			PropertyID:  plan.PropertyID,
			ShiftPlanID: plan.ID,
			EmployeeID:  req.TargetEmployeeID(),
			AssignedBy:  actorID(txCtx),
			AssignedAt:  time.Now(),
		}); err != nil {
			return SwapDecision{}, mapPgError(err)
		}
		if err := s.repo.Update(txCtx, approved); err != nil {
			return SwapDecision{}, mapPgError(err)
		}

		current, err := s.shifts.GetAssignments(txCtx, []uuid.UUID{plan.ID})
		if err != nil {
			return SwapDecision{}, mapPgError(err)
		}
		assignments := current[plan.ID]
		if assignments == nil {
			assignments = []shift.Assignment{}
		}
		return SwapDecision{
			Request: approved,
			Shift:   ShiftWithAssignments{Plan: plan, Assignments: assignments},
		}, nil
	})
	if err != nil {
		return SwapDecision{}, err
	}

	recordSwapDecision("approved")
	s.publisher.Publish(swap.NewDecidedEvent(decision.Request))
	return decision, nil
}

// Reject only flips the request state; assignments stay untouched.
func (s *SwapRequestService) Reject(ctx context.Context, requestID uuid.UUID) (swap.Request, error) {
	if err := authorizeScheduling(ctx, permissions.SwapsDecide); err != nil {
		return swap.Request{}, err
	}

	rejected, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (swap.Request, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, swap.ErrNotFound) {
				return swap.Request{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "swap request not found", err)
			}
			return swap.Request{}, mapPgError(err)
		}
		if err := ensurePropertyAccess(txCtx, req.PropertyID()); err != nil {
			return swap.Request{}, err
		}

		next, err := req.Reject(actorID(txCtx), time.Now())
		if err != nil {
			return swap.Request{}, newServiceError(http.StatusConflict, "SCHED_ALREADY_DECIDED", "swap request is already decided", err)
		}
		if err := s.repo.Update(txCtx, next); err != nil {
			return swap.Request{}, mapPgError(err)
		}
		return next, nil
	})
	if err != nil {
		return swap.Request{}, err
	}

	recordSwapDecision("rejected")
	s.publisher.Publish(swap.NewDecidedEvent(rejected))
	return rejected, nil
}

type ListSwapsInput struct {
	PropertyID uuid.UUID
	Status     *swap.Status
}

// List gives deciders the whole property; everyone else sees only requests
// they are party to.
func (s *SwapRequestService) List(ctx context.Context, input ListSwapsInput) ([]swap.Request, error) {
	if input.PropertyID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHED_INVALID_QUERY", "propertyId is required", nil)
	}

	filter := swap.ListFilter{PropertyID: input.PropertyID, Status: input.Status}
	if err := authorizeScheduling(ctx, permissions.SwapsDecide); err != nil {
		if err := authorizeScheduling(ctx, permissions.SwapsRequest); err != nil {
			return nil, err
		}
		employeeID, err := currentEmployeeID(ctx)
		if err != nil {
			return nil, err
		}
		filter.EmployeeID = &employeeID
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]swap.Request, error) {
		requests, err := s.repo.List(txCtx, filter)
		if err != nil {
			return nil, mapPgError(err)
		}
		return requests, nil
	})
}

func holdsAssignment(assignments []shift.Assignment, employeeID uuid.UUID) bool {
	for _, a := range assignments {
		if a.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

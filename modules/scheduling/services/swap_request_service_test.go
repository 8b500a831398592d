package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	coreuser "github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/swap"
)

// swapFixture wires one shift plan held by requestor with target eligible
// for its job role, the starting position for every swap scenario.
type swapFixture struct {
	svc         *SwapRequestService
	swaps       *mockSwapRepo
	shifts      *mockShiftRepo
	eligibility *mockEligibilityRepo
	bus         *recordingPublisher
	plan        shift.Plan
	requestor   uuid.UUID
	target      uuid.UUID
}

func newSwapFixture(t *testing.T) *swapFixture {
	t.Helper()
	f := &swapFixture{
		swaps:       newMockSwapRepo(),
		shifts:      newMockShiftRepo(),
		eligibility: newMockEligibilityRepo(),
		bus:         &recordingPublisher{},
		requestor:   uuid.New(),
		target:      uuid.New(),
	}
	f.svc = NewSwapRequestService(f.swaps, f.shifts, f.eligibility, f.bus)

	jobRoleID := uuid.New()
	plan, err := shift.NewPlan(
		testTenantID, uuid.New(), uuid.New(), uuid.New(), jobRoleID,
		time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 3, 17, 0, 0, 0, time.UTC),
		30, false,
	)
	require.NoError(t, err)
	f.plan = plan
	f.shifts.seedPlan(plan, f.requestor)
	f.eligibility.roles[f.target] = []uuid.UUID{jobRoleID}
	return f
}

func (f *swapFixture) requestorCtx() context.Context {
	return testCtx(testUser(coreuser.RoleEmployee, f.requestor, f.plan.PropertyID))
}

func (f *swapFixture) deciderCtx() context.Context {
	return testCtx(testUser(coreuser.RolePropertyManager, uuid.Nil, f.plan.PropertyID))
}

func (f *swapFixture) pendingRequest(t *testing.T) swap.Request {
	t.Helper()
	req, err := f.svc.Create(f.requestorCtx(), CreateSwapInput{
		FromShiftPlanID: f.plan.ID,
		ToEmployeeID:    f.target,
	})
	require.NoError(t, err)
	return req
}

func TestSwapRequestService_Create(t *testing.T) {
	f := newSwapFixture(t)

	req := f.pendingRequest(t)
	require.Equal(t, swap.StatusPending, req.Status())
	require.Equal(t, f.plan.ID, req.ShiftPlanID())
	require.Equal(t, f.requestor, req.RequestorEmployeeID())
	require.Equal(t, f.target, req.TargetEmployeeID())
	require.Equal(t, f.plan.PropertyID, req.PropertyID())
	require.True(t, f.swaps.createCalled)
}

func TestSwapRequestService_CreateRequiresBothIDs(t *testing.T) {
	f := newSwapFixture(t)

	_, err := f.svc.Create(f.requestorCtx(), CreateSwapInput{FromShiftPlanID: f.plan.ID})
	requireServiceError(t, err, http.StatusBadRequest, "SCHED_INVALID_BODY")
}

func TestSwapRequestService_CreatePlanNotFound(t *testing.T) {
	f := newSwapFixture(t)

	_, err := f.svc.Create(f.requestorCtx(), CreateSwapInput{
		FromShiftPlanID: uuid.New(),
		ToEmployeeID:    f.target,
	})
	svcErr := requireServiceError(t, err, http.StatusNotFound, "SCHED_NOT_FOUND")
	require.Contains(t, svcErr.Message, "shift plan")
}

func TestSwapRequestService_CreateNotAssigned(t *testing.T) {
	f := newSwapFixture(t)
	outsider := testCtx(testUser(coreuser.RoleEmployee, uuid.New(), f.plan.PropertyID))

	_, err := f.svc.Create(outsider, CreateSwapInput{
		FromShiftPlanID: f.plan.ID,
		ToEmployeeID:    f.target,
	})
	svcErr := requireServiceError(t, err, http.StatusForbidden, "SCHED_NOT_ASSIGNED")
	require.Contains(t, svcErr.Message, "not assigned to you")
	require.False(t, f.swaps.createCalled)
}

func TestSwapRequestService_CreateIneligibleTarget(t *testing.T) {
	f := newSwapFixture(t)
	delete(f.eligibility.roles, f.target)

	_, err := f.svc.Create(f.requestorCtx(), CreateSwapInput{
		FromShiftPlanID: f.plan.ID,
		ToEmployeeID:    f.target,
	})
	svcErr := requireServiceError(t, err, http.StatusConflict, "SCHED_NOT_ELIGIBLE")
	require.Contains(t, svcErr.Message, "not eligible")
	require.False(t, f.swaps.createCalled)
}

func TestSwapRequestService_CreateOverlappingTarget(t *testing.T) {
	f := newSwapFixture(t)
	f.eligibility.overlaps[f.target] = true

	_, err := f.svc.Create(f.requestorCtx(), CreateSwapInput{
		FromShiftPlanID: f.plan.ID,
		ToEmployeeID:    f.target,
	})
	svcErr := requireServiceError(t, err, http.StatusConflict, "SCHED_OVERLAP")
	require.Contains(t, svcErr.Message, "overlapping")
	require.False(t, f.swaps.createCalled)
}

func TestSwapRequestService_CreateIdempotentWhilePending(t *testing.T) {
	f := newSwapFixture(t)

	first := f.pendingRequest(t)
	f.swaps.createCalled = false

	second, err := f.svc.Create(f.requestorCtx(), CreateSwapInput{
		FromShiftPlanID: f.plan.ID,
		ToEmployeeID:    f.target,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID(), second.ID())
	require.False(t, f.swaps.createCalled, "replay must return the pending request, not insert a new one")
	require.Len(t, f.swaps.requests, 1)
}

func TestSwapRequestService_CreateAgainAfterCancel(t *testing.T) {
	f := newSwapFixture(t)

	first := f.pendingRequest(t)
	_, err := f.svc.Cancel(f.requestorCtx(), first.ID())
	require.NoError(t, err)

	// A canceled request no longer dedupes; the retry is a fresh PENDING one.
	second, err := f.svc.Create(f.requestorCtx(), CreateSwapInput{
		FromShiftPlanID: f.plan.ID,
		ToEmployeeID:    f.target,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), second.ID())
	require.Equal(t, swap.StatusPending, second.Status())
}

func TestSwapRequestService_Cancel(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)

	canceled, err := f.svc.Cancel(f.requestorCtx(), req.ID())
	require.NoError(t, err)
	require.Equal(t, swap.StatusCanceled, canceled.Status())
	require.Nil(t, canceled.DecidedBy())
}

func TestSwapRequestService_CancelNotOwner(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)
	other := testCtx(testUser(coreuser.RoleEmployee, uuid.New(), f.plan.PropertyID))

	_, err := f.svc.Cancel(other, req.ID())
	svcErr := requireServiceError(t, err, http.StatusForbidden, "SCHED_NOT_OWNER")
	require.Contains(t, svcErr.Message, "only cancel your own")

	stored, getErr := f.swaps.GetByID(context.Background(), req.ID())
	require.NoError(t, getErr)
	require.Equal(t, swap.StatusPending, stored.Status())
}

func TestSwapRequestService_CancelAlreadyDecided(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)

	_, err := f.svc.Reject(f.deciderCtx(), req.ID())
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.requestorCtx(), req.ID())
	svcErr := requireServiceError(t, err, http.StatusConflict, "SCHED_ALREADY_DECIDED")
	require.Contains(t, svcErr.Message, "already decided")
}

func TestSwapRequestService_ApproveMovesAssignment(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)
	decider := testUser(coreuser.RolePropertyManager, uuid.Nil, f.plan.PropertyID)

	decision, err := f.svc.Approve(testCtx(decider), req.ID())
	require.NoError(t, err)
	require.Equal(t, swap.StatusApproved, decision.Request.Status())
	require.Equal(t, decider.ID(), *decision.Request.DecidedBy())
	require.NotNil(t, decision.Request.DecidedAt())

	// The shift ends with exactly one assignment: the target, stamped with
	// the approver.
	require.Len(t, decision.Shift.Assignments, 1)
	require.Equal(t, f.target, decision.Shift.Assignments[0].EmployeeID)
	require.Equal(t, decider.ID(), decision.Shift.Assignments[0].AssignedBy)
	require.Equal(t, []uuid.UUID{f.requestor}, f.shifts.deleted)

	require.Len(t, f.bus.events, 1)
	require.IsType(t, &swap.DecidedEvent{}, f.bus.events[0])
}

func TestSwapRequestService_ApproveAlreadyDecided(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)

	_, err := f.svc.Approve(f.deciderCtx(), req.ID())
	require.NoError(t, err)
	createdAfterFirst := len(f.shifts.created)

	_, err = f.svc.Approve(f.deciderCtx(), req.ID())
	requireServiceError(t, err, http.StatusConflict, "SCHED_ALREADY_DECIDED")
	require.Len(t, f.shifts.created, createdAfterFirst, "a decided request must never move assignments again")
}

func TestSwapRequestService_ApproveStaleAssignment(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)

	// The requestor loses the shift between request and approval.
	require.NoError(t, f.shifts.DeleteAssignment(context.Background(), f.plan.ID, f.requestor))
	f.shifts.deleted = nil

	_, err := f.svc.Approve(f.deciderCtx(), req.ID())
	svcErr := requireServiceError(t, err, http.StatusConflict, "SCHED_STALE_ASSIGNMENT")
	require.Contains(t, svcErr.Message, "no longer assigned")
	require.Empty(t, f.shifts.created, "target must not be assigned on a failed approval")
	require.Empty(t, f.shifts.deleted)
	require.Empty(t, f.bus.events)
}

func TestSwapRequestService_ApproveOutsideAssignedProperties(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)
	foreign := testCtx(testUser(coreuser.RolePropertyManager, uuid.Nil, uuid.New()))

	_, err := f.svc.Approve(foreign, req.ID())
	requireServiceError(t, err, http.StatusForbidden, "SCHED_FORBIDDEN")
	require.Empty(t, f.shifts.created)
}

func TestSwapRequestService_ApproveDeniedForEmployee(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)

	_, err := f.svc.Approve(f.requestorCtx(), req.ID())
	requireServiceError(t, err, http.StatusForbidden, "SCHED_FORBIDDEN")
}

func TestSwapRequestService_RejectLeavesAssignments(t *testing.T) {
	f := newSwapFixture(t)
	req := f.pendingRequest(t)

	rejected, err := f.svc.Reject(f.deciderCtx(), req.ID())
	require.NoError(t, err)
	require.Equal(t, swap.StatusRejected, rejected.Status())
	require.Empty(t, f.shifts.created)
	require.Empty(t, f.shifts.deleted)

	assignments, err := f.shifts.GetAssignments(context.Background(), []uuid.UUID{f.plan.ID})
	require.NoError(t, err)
	require.Len(t, assignments[f.plan.ID], 1)
	require.Equal(t, f.requestor, assignments[f.plan.ID][0].EmployeeID)

	require.Len(t, f.bus.events, 1)
}

func TestSwapRequestService_ListScopedToOwnForEmployees(t *testing.T) {
	f := newSwapFixture(t)
	mine := f.pendingRequest(t)

	// A request between two other employees on the same property.
	other := swap.New(testTenantID, f.plan.PropertyID, uuid.New(), uuid.New(), uuid.New())
	f.swaps.seed(other)

	own, err := f.svc.List(f.requestorCtx(), ListSwapsInput{PropertyID: f.plan.PropertyID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, mine.ID(), own[0].ID())

	all, err := f.svc.List(f.deciderCtx(), ListSwapsInput{PropertyID: f.plan.PropertyID})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSwapRequestService_ListRequiresProperty(t *testing.T) {
	f := newSwapFixture(t)

	_, err := f.svc.List(f.requestorCtx(), ListSwapsInput{})
	requireServiceError(t, err, http.StatusBadRequest, "SCHED_INVALID_QUERY")
}

func TestSwapRequestService_ListDeniedWithoutSwapScopes(t *testing.T) {
	f := newSwapFixture(t)
	scheduler := testCtx(testUser(coreuser.RoleScheduler, uuid.New(), f.plan.PropertyID))

	_, err := f.svc.List(scheduler, ListSwapsInput{PropertyID: f.plan.PropertyID})
	requireServiceError(t, err, http.StatusForbidden, "SCHED_FORBIDDEN")
}

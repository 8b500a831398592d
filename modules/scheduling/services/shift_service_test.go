package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	coreuser "github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
)

type shiftFixture struct {
	svc         *ShiftService
	shifts      *mockShiftRepo
	eligibility *mockEligibilityRepo
	periods     *mockPeriodRepo
	propertyID  uuid.UUID
	period      period.SchedulePeriod
	jobRoleID   uuid.UUID
}

func newShiftFixture(t *testing.T) *shiftFixture {
	t.Helper()
	f := &shiftFixture{
		shifts:      newMockShiftRepo(),
		eligibility: newMockEligibilityRepo(),
		periods:     newMockPeriodRepo(),
		propertyID:  uuid.New(),
		jobRoleID:   uuid.New(),
	}
	f.svc = NewShiftService(f.shifts, f.eligibility, f.periods)
	f.period = seededDraftPeriod(t, f.periods, f.propertyID)
	return f
}

func (f *shiftFixture) managerCtx() context.Context {
	return testCtx(testUser(coreuser.RolePropertyManager, uuid.Nil, f.propertyID))
}

func (f *shiftFixture) seedShift(t *testing.T, startHour, endHour int, open bool, assigned ...uuid.UUID) shift.Plan {
	t.Helper()
	plan, err := shift.NewPlan(
		testTenantID, f.propertyID, f.period.ID(), uuid.New(), f.jobRoleID,
		time.Date(2026, 11, 3, startHour, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 3, endHour, 0, 0, 0, time.UTC),
		30, open,
	)
	require.NoError(t, err)
	f.shifts.seedPlan(plan, assigned...)
	return plan
}

func (f *shiftFixture) lockPeriod(t *testing.T) {
	t.Helper()
	locked, _, err := f.period.Lock(uuid.New(), time.Now())
	require.NoError(t, err)
	f.periods.seed(locked)
}

func TestShiftService_CreateShift(t *testing.T) {
	f := newShiftFixture(t)

	created, err := f.svc.CreateShift(f.managerCtx(), CreateShiftInput{
		SchedulePeriodID: f.period.ID(),
		DepartmentID:     uuid.New(),
		JobRoleID:        f.jobRoleID,
		StartAt:          time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC),
		EndAt:            time.Date(2026, 11, 3, 17, 0, 0, 0, time.UTC),
		BreakMinutes:     30,
	})
	require.NoError(t, err)
	require.Equal(t, f.period.ID(), created.SchedulePeriodID)
	require.Equal(t, f.propertyID, created.PropertyID, "property must come from the period, not the caller")
	require.Equal(t, testTenantID, created.TenantID)
	require.Equal(t, 30, created.BreakMinutes)
}

func TestShiftService_CreateShiftTimeOrder(t *testing.T) {
	f := newShiftFixture(t)

	_, err := f.svc.CreateShift(f.managerCtx(), CreateShiftInput{
		SchedulePeriodID: f.period.ID(),
		JobRoleID:        f.jobRoleID,
		StartAt:          time.Date(2026, 11, 3, 17, 0, 0, 0, time.UTC),
		EndAt:            time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC),
	})
	svcErr := requireServiceError(t, err, http.StatusBadRequest, "SCHED_INVALID_BODY")
	require.Contains(t, svcErr.Message, "startDateTime")
}

func TestShiftService_CreateShiftLockedPeriod(t *testing.T) {
	f := newShiftFixture(t)
	f.lockPeriod(t)

	_, err := f.svc.CreateShift(f.managerCtx(), CreateShiftInput{
		SchedulePeriodID: f.period.ID(),
		JobRoleID:        f.jobRoleID,
		StartAt:          time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC),
		EndAt:            time.Date(2026, 11, 3, 17, 0, 0, 0, time.UTC),
	})
	svcErr := requireServiceError(t, err, http.StatusConflict, "SCHED_LOCKED")
	require.Contains(t, svcErr.Message, "locked")
	require.Empty(t, f.shifts.plans)
}

func TestShiftService_CreateShiftUnknownPeriod(t *testing.T) {
	f := newShiftFixture(t)

	_, err := f.svc.CreateShift(f.managerCtx(), CreateShiftInput{
		SchedulePeriodID: uuid.New(),
		JobRoleID:        f.jobRoleID,
		StartAt:          time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC),
		EndAt:            time.Date(2026, 11, 3, 17, 0, 0, 0, time.UTC),
	})
	requireServiceError(t, err, http.StatusNotFound, "SCHED_NOT_FOUND")
}

func TestShiftService_AssignShift(t *testing.T) {
	f := newShiftFixture(t)
	plan := f.seedShift(t, 9, 17, false)
	employeeID := uuid.New()
	f.eligibility.roles[employeeID] = []uuid.UUID{f.jobRoleID}
	manager := testUser(coreuser.RolePropertyManager, uuid.Nil, f.propertyID)

	result, err := f.svc.AssignShift(testCtx(manager), plan.ID, employeeID)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 1)
	require.Equal(t, employeeID, result.Assignments[0].EmployeeID)
	require.Equal(t, manager.ID(), result.Assignments[0].AssignedBy)
	require.Equal(t, []uuid.UUID{employeeID}, result.AssignedEmployeeIDs())
}

func TestShiftService_AssignShiftDuplicate(t *testing.T) {
	f := newShiftFixture(t)
	employeeID := uuid.New()
	plan := f.seedShift(t, 9, 17, false, employeeID)
	f.eligibility.roles[employeeID] = []uuid.UUID{f.jobRoleID}

	_, err := f.svc.AssignShift(f.managerCtx(), plan.ID, employeeID)
	svcErr := requireServiceError(t, err, http.StatusConflict, "SCHED_DUPLICATE_ASSIGNMENT")
	require.Contains(t, svcErr.Message, "already assigned")
	require.Empty(t, f.shifts.created)
}

func TestShiftService_AssignShiftIneligible(t *testing.T) {
	f := newShiftFixture(t)
	plan := f.seedShift(t, 9, 17, false)

	_, err := f.svc.AssignShift(f.managerCtx(), plan.ID, uuid.New())
	requireServiceError(t, err, http.StatusConflict, "SCHED_NOT_ELIGIBLE")
	require.Empty(t, f.shifts.created)
}

func TestShiftService_AssignShiftOverlap(t *testing.T) {
	f := newShiftFixture(t)
	plan := f.seedShift(t, 9, 17, false)
	employeeID := uuid.New()
	f.eligibility.roles[employeeID] = []uuid.UUID{f.jobRoleID}
	f.eligibility.overlaps[employeeID] = true

	_, err := f.svc.AssignShift(f.managerCtx(), plan.ID, employeeID)
	svcErr := requireServiceError(t, err, http.StatusConflict, "SCHED_OVERLAP")
	require.Contains(t, svcErr.Message, "overlapping")
	require.Empty(t, f.shifts.created)
}

func TestShiftService_AssignShiftLockedPeriod(t *testing.T) {
	f := newShiftFixture(t)
	plan := f.seedShift(t, 9, 17, false)
	employeeID := uuid.New()
	f.eligibility.roles[employeeID] = []uuid.UUID{f.jobRoleID}
	f.lockPeriod(t)

	_, err := f.svc.AssignShift(f.managerCtx(), plan.ID, employeeID)
	requireServiceError(t, err, http.StatusConflict, "SCHED_LOCKED")
	require.Empty(t, f.shifts.created)
}

func TestShiftService_AssignShiftDeniedForEmployee(t *testing.T) {
	f := newShiftFixture(t)
	plan := f.seedShift(t, 9, 17, false)

	_, err := f.svc.AssignShift(testCtx(testUser(coreuser.RoleEmployee, uuid.New(), f.propertyID)), plan.ID, uuid.New())
	requireServiceError(t, err, http.StatusForbidden, "SCHED_FORBIDDEN")
}

func TestShiftService_UnassignShift(t *testing.T) {
	f := newShiftFixture(t)
	employeeID := uuid.New()
	plan := f.seedShift(t, 9, 17, false, employeeID)

	result, err := f.svc.UnassignShift(f.managerCtx(), plan.ID, employeeID)
	require.NoError(t, err)
	require.Empty(t, result.Assignments)
}

func TestShiftService_UnassignShiftNotAssigned(t *testing.T) {
	f := newShiftFixture(t)
	plan := f.seedShift(t, 9, 17, false)

	_, err := f.svc.UnassignShift(f.managerCtx(), plan.ID, uuid.New())
	svcErr := requireServiceError(t, err, http.StatusNotFound, "SCHED_NOT_FOUND")
	require.Contains(t, svcErr.Message, "assignment")
}

func TestShiftService_GetShiftsRequiresWindow(t *testing.T) {
	f := newShiftFixture(t)

	_, err := f.svc.GetShifts(f.managerCtx(), shift.PlanFilter{PropertyID: f.propertyID})
	svcErr := requireServiceError(t, err, http.StatusBadRequest, "SCHED_INVALID_QUERY")
	require.Contains(t, svcErr.Message, "start and end")
}

func TestShiftService_GetShiftsAnnotatesAssignments(t *testing.T) {
	f := newShiftFixture(t)
	employeeID := uuid.New()
	assigned := f.seedShift(t, 9, 17, false, employeeID)
	f.seedShift(t, 18, 22, false)

	result, err := f.svc.GetShifts(f.managerCtx(), shift.PlanFilter{
		PropertyID: f.propertyID,
		Start:      time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, result, 2)
	for _, item := range result {
		require.NotNil(t, item.Assignments)
		if item.Plan.ID == assigned.ID {
			require.Equal(t, []uuid.UUID{employeeID}, item.AssignedEmployeeIDs())
		} else {
			require.Empty(t, item.Assignments)
		}
	}
}

func TestShiftService_OpenShiftsFilteredByEligibility(t *testing.T) {
	f := newShiftFixture(t)
	matching := f.seedShift(t, 9, 17, true)

	otherRole := uuid.New()
	other, err := shift.NewPlan(
		testTenantID, f.propertyID, f.period.ID(), uuid.New(), otherRole,
		time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 3, 17, 0, 0, 0, time.UTC),
		0, true,
	)
	require.NoError(t, err)
	f.shifts.seedPlan(other)

	employeeID := uuid.New()
	f.eligibility.roles[employeeID] = []uuid.UUID{f.jobRoleID}
	employee := testCtx(testUser(coreuser.RoleEmployee, employeeID, f.propertyID))

	start := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC)

	mine, err := f.svc.ListOpenShifts(employee, f.propertyID, start, end, false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, matching.ID, mine[0].Plan.ID)

	all, err := f.svc.ListOpenShifts(employee, f.propertyID, start, end, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestShiftService_OpenShiftsExcludeNonOpenPlans(t *testing.T) {
	f := newShiftFixture(t)
	f.seedShift(t, 9, 17, false)
	open := f.seedShift(t, 10, 14, true)

	result, err := f.svc.ListOpenShifts(
		f.managerCtx(), f.propertyID,
		time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC),
		true,
	)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, open.ID, result[0].Plan.ID)
}

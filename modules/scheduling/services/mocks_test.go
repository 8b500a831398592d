package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	coreuser "github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/swap"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/entities/availability"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var testTenantID = uuid.New()

// stubTx fills the transaction slot in context so services run their
// closures directly; every repository below is an in-memory fake, so no
// call ever reaches the embedded interface.
type stubTx struct{ pgx.Tx }

func testUser(role coreuser.Role, employeeID uuid.UUID, propertyIDs ...uuid.UUID) coreuser.User {
	return coreuser.New(testTenantID, "worker@example.com", role,
		coreuser.WithEmployeeID(employeeID),
		coreuser.WithPropertyIDs(propertyIDs),
	)
}

func testCtx(u coreuser.User) context.Context {
	ctx := composables.WithTx(context.Background(), stubTx{})
	ctx = composables.WithTenantID(ctx, testTenantID)
	if u != nil {
		ctx = composables.WithUser(ctx, u)
	}
	return ctx
}

func requireServiceError(t *testing.T, err error, status int, code string) *ServiceError {
	t.Helper()
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, status, svcErr.Status)
	require.Equal(t, code, svcErr.Code)
	return svcErr
}

type recordingPublisher struct {
	events []interface{}
}

func (p *recordingPublisher) Publish(args ...interface{})     { p.events = append(p.events, args...) }
func (p *recordingPublisher) Subscribe(handler interface{})   {}
func (p *recordingPublisher) Unsubscribe(handler interface{}) {}
func (p *recordingPublisher) Clear()                          {}
func (p *recordingPublisher) SubscribersCount() int           { return 0 }

type mockPeriodRepo struct {
	periods      map[uuid.UUID]period.SchedulePeriod
	events       []period.PublishEvent
	createCalled bool
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: map[uuid.UUID]period.SchedulePeriod{}}
}

func (m *mockPeriodRepo) seed(p period.SchedulePeriod) {
	m.periods[p.ID()] = p
}

func (m *mockPeriodRepo) Create(ctx context.Context, data period.SchedulePeriod) (period.SchedulePeriod, error) {
	m.createCalled = true
	m.periods[data.ID()] = data
	return data, nil
}

func (m *mockPeriodRepo) GetByID(ctx context.Context, id uuid.UUID) (period.SchedulePeriod, error) {
	p, ok := m.periods[id]
	if !ok {
		return period.SchedulePeriod{}, period.ErrNotFound
	}
	return p, nil
}

func (m *mockPeriodRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (period.SchedulePeriod, error) {
	return m.GetByID(ctx, id)
}

func (m *mockPeriodRepo) Update(ctx context.Context, data period.SchedulePeriod) error {
	if _, ok := m.periods[data.ID()]; !ok {
		return period.ErrNotFound
	}
	m.periods[data.ID()] = data
	return nil
}

func (m *mockPeriodRepo) List(ctx context.Context, filter period.ListFilter) ([]period.SchedulePeriod, error) {
	var out []period.SchedulePeriod
	for _, p := range m.periods {
		if p.PropertyID() == filter.PropertyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPeriodRepo) FindCovering(ctx context.Context, propertyID uuid.UUID, day time.Time) (period.SchedulePeriod, error) {
	for _, p := range m.periods {
		if p.PropertyID() == propertyID && p.Covers(day) {
			return p, nil
		}
	}
	return period.SchedulePeriod{}, period.ErrNotFound
}

func (m *mockPeriodRepo) CreatePublishEvent(ctx context.Context, event period.PublishEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockPeriodRepo) ListPublishEvents(ctx context.Context, periodID uuid.UUID) ([]period.PublishEvent, error) {
	var out []period.PublishEvent
	for _, e := range m.events {
		if e.PeriodID == periodID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockShiftRepo struct {
	plans       map[uuid.UUID]shift.Plan
	assignments map[uuid.UUID][]shift.Assignment
	created     []shift.Assignment
	deleted     []uuid.UUID
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{
		plans:       map[uuid.UUID]shift.Plan{},
		assignments: map[uuid.UUID][]shift.Assignment{},
	}
}

func (m *mockShiftRepo) seedPlan(p shift.Plan, assigned ...uuid.UUID) {
	m.plans[p.ID] = p
	for _, employeeID := range assigned {
		m.assignments[p.ID] = append(m.assignments[p.ID], shift.Assignment{
			ID:          uuid.New(),
			TenantID:    p.TenantID,
			PropertyID:  p.PropertyID,
			ShiftPlanID: p.ID,
			EmployeeID:  employeeID,
			AssignedBy:  uuid.New(),
			AssignedAt:  time.Now(),
		})
	}
}

func (m *mockShiftRepo) CreatePlan(ctx context.Context, data shift.Plan) (shift.Plan, error) {
	m.plans[data.ID] = data
	return data, nil
}

func (m *mockShiftRepo) GetPlan(ctx context.Context, id uuid.UUID) (shift.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return shift.Plan{}, shift.ErrPlanNotFound
	}
	return p, nil
}

func (m *mockShiftRepo) ListPlans(ctx context.Context, filter shift.PlanFilter) ([]shift.Plan, error) {
	var out []shift.Plan
	for _, p := range m.plans {
		if p.PropertyID != filter.PropertyID {
			continue
		}
		if !shift.Overlaps(p.StartAt, p.EndAt, filter.Start, filter.End) {
			continue
		}
		if filter.SchedulePeriodID != nil && p.SchedulePeriodID != *filter.SchedulePeriodID {
			continue
		}
		if filter.OpenOnly && !p.IsOpenShift {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockShiftRepo) GetAssignments(ctx context.Context, planIDs []uuid.UUID) (map[uuid.UUID][]shift.Assignment, error) {
	out := map[uuid.UUID][]shift.Assignment{}
	for _, id := range planIDs {
		if rows, ok := m.assignments[id]; ok {
			out[id] = append([]shift.Assignment{}, rows...)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) LockAssignments(ctx context.Context, planID uuid.UUID) ([]shift.Assignment, error) {
	return append([]shift.Assignment{}, m.assignments[planID]...), nil
}

func (m *mockShiftRepo) CreateAssignment(ctx context.Context, data shift.Assignment) (shift.Assignment, error) {
	m.assignments[data.ShiftPlanID] = append(m.assignments[data.ShiftPlanID], data)
	m.created = append(m.created, data)
	return data, nil
}

func (m *mockShiftRepo) DeleteAssignment(ctx context.Context, planID, employeeID uuid.UUID) error {
	rows := m.assignments[planID]
	for i, a := range rows {
		if a.EmployeeID == employeeID {
			m.assignments[planID] = append(rows[:i], rows[i+1:]...)
			m.deleted = append(m.deleted, employeeID)
			return nil
		}
	}
	return shift.ErrAssignmentNotFound
}

func (m *mockShiftRepo) CountOpen(ctx context.Context, propertyID uuid.UUID, start, end time.Time) (int, error) {
	count := 0
	for _, p := range m.plans {
		if p.PropertyID == propertyID && p.IsOpenShift && shift.Overlaps(p.StartAt, p.EndAt, start, end) {
			count++
		}
	}
	return count, nil
}

func (m *mockShiftRepo) CountUnassigned(ctx context.Context, propertyID uuid.UUID, start, end time.Time) (int, error) {
	count := 0
	for _, p := range m.plans {
		if p.PropertyID == propertyID && len(m.assignments[p.ID]) == 0 && shift.Overlaps(p.StartAt, p.EndAt, start, end) {
			count++
		}
	}
	return count, nil
}

type mockEligibilityRepo struct {
	roles    map[uuid.UUID][]uuid.UUID
	overlaps map[uuid.UUID]bool
}

func newMockEligibilityRepo() *mockEligibilityRepo {
	return &mockEligibilityRepo{
		roles:    map[uuid.UUID][]uuid.UUID{},
		overlaps: map[uuid.UUID]bool{},
	}
}

func (m *mockEligibilityRepo) IsEligible(ctx context.Context, employeeID, jobRoleID uuid.UUID, asOf time.Time) (bool, error) {
	for _, r := range m.roles[employeeID] {
		if r == jobRoleID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEligibilityRepo) HasOverlap(ctx context.Context, employeeID uuid.UUID, start, end time.Time, excludePlanID uuid.UUID) (bool, error) {
	return m.overlaps[employeeID], nil
}

func (m *mockEligibilityRepo) EligibleJobRoleIDs(ctx context.Context, employeeID uuid.UUID, asOf time.Time) ([]uuid.UUID, error) {
	return m.roles[employeeID], nil
}

type mockSwapRepo struct {
	requests     map[uuid.UUID]swap.Request
	createCalled bool
}

func newMockSwapRepo() *mockSwapRepo {
	return &mockSwapRepo{requests: map[uuid.UUID]swap.Request{}}
}

func (m *mockSwapRepo) seed(r swap.Request) {
	m.requests[r.ID()] = r
}

func (m *mockSwapRepo) Create(ctx context.Context, data swap.Request) (swap.Request, error) {
	m.createCalled = true
	m.requests[data.ID()] = data
	return data, nil
}

func (m *mockSwapRepo) GetByID(ctx context.Context, id uuid.UUID) (swap.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return swap.Request{}, swap.ErrNotFound
	}
	return r, nil
}

func (m *mockSwapRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (swap.Request, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSwapRepo) FindPending(ctx context.Context, shiftPlanID, requestorEmployeeID, targetEmployeeID uuid.UUID) (swap.Request, error) {
	for _, r := range m.requests {
		if r.Status() == swap.StatusPending &&
			r.ShiftPlanID() == shiftPlanID &&
			r.RequestorEmployeeID() == requestorEmployeeID &&
			r.TargetEmployeeID() == targetEmployeeID {
			return r, nil
		}
	}
	return swap.Request{}, swap.ErrNotFound
}

func (m *mockSwapRepo) Update(ctx context.Context, data swap.Request) error {
	if _, ok := m.requests[data.ID()]; !ok {
		return swap.ErrNotFound
	}
	m.requests[data.ID()] = data
	return nil
}

func (m *mockSwapRepo) List(ctx context.Context, filter swap.ListFilter) ([]swap.Request, error) {
	var out []swap.Request
	for _, r := range m.requests {
		if r.PropertyID() != filter.PropertyID {
			continue
		}
		if filter.Status != nil && r.Status() != *filter.Status {
			continue
		}
		if filter.EmployeeID != nil && r.RequestorEmployeeID() != *filter.EmployeeID && r.TargetEmployeeID() != *filter.EmployeeID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockSwapRepo) CountPending(ctx context.Context, propertyID uuid.UUID) (int, error) {
	count := 0
	for _, r := range m.requests {
		if r.PropertyID() == propertyID && r.Status() == swap.StatusPending {
			count++
		}
	}
	return count, nil
}

type mockAvailabilityRepo struct {
	entries   map[uuid.UUID]availability.Entry
	employees map[uuid.UUID]bool
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{
		entries:   map[uuid.UUID]availability.Entry{},
		employees: map[uuid.UUID]bool{},
	}
}

func (m *mockAvailabilityRepo) Create(ctx context.Context, data availability.Entry) (availability.Entry, error) {
	m.entries[data.ID] = data
	return data, nil
}

func (m *mockAvailabilityRepo) GetByID(ctx context.Context, id uuid.UUID) (availability.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return availability.Entry{}, availability.ErrNotFound
	}
	return e, nil
}

func (m *mockAvailabilityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.entries[id]; !ok {
		return availability.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *mockAvailabilityRepo) List(ctx context.Context, filter availability.ListFilter) ([]availability.Entry, error) {
	var out []availability.Entry
	for _, e := range m.entries {
		if e.PropertyID != filter.PropertyID {
			continue
		}
		if filter.EmployeeID != nil && e.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockAvailabilityRepo) EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	return m.employees[employeeID], nil
}

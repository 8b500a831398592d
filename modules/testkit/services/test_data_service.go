package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lodgecrew/lodgecrew/modules/testkit/domain/schemas"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

type TestDataService struct {
	app             application.Application
	resetService    *ResetService
	populateService *PopulateService
}

func NewTestDataService(app application.Application) *TestDataService {
	return &TestDataService{
		app:             app,
		resetService:    NewResetService(app),
		populateService: NewPopulateService(app),
	}
}

func (s *TestDataService) ResetDatabase(ctx context.Context, reseedMinimal bool) error {
	logger := composables.UseLogger(ctx)

	if err := s.resetService.TruncateAllTables(ctx); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	logger.Info("database tables truncated")

	if reseedMinimal {
		if err := s.SeedScenario(ctx, "minimal"); err != nil {
			return fmt.Errorf("failed to reseed minimal data: %w", err)
		}
		logger.Info("minimal data reseeded")
	}
	return nil
}

func (s *TestDataService) PopulateData(ctx context.Context, req *schemas.PopulateRequest) (*schemas.PopulateResponse, error) {
	return s.populateService.Execute(ctx, req)
}

func (s *TestDataService) SeedScenario(ctx context.Context, scenarioName string) error {
	scenario, exists := s.getScenario(scenarioName)
	if !exists {
		return fmt.Errorf("scenario '%s' not found", scenarioName)
	}
	_, err := s.PopulateData(ctx, scenario)
	return err
}

func (s *TestDataService) GetAvailableScenarios() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"name":        "minimal",
			"description": "Default tenant with an admin user and a ready session token",
		},
		{
			"name":        "scheduling",
			"description": "One property with job roles, employees and a draft schedule for the coming week",
		},
		{
			"name":        "comprehensive",
			"description": "Two properties, a published and a draft schedule, employee logins and availability",
		},
	}
}

// Scenario dates are computed relative to now so eligibility and coverage
// windows hold whenever the seed runs.
func (s *TestDataService) getScenario(name string) (*schemas.PopulateRequest, bool) {
	defaultTenant := &schemas.TenantSpec{
		ID:     "00000000-0000-0000-0000-000000000001",
		Name:   "Lodge Test Tenant",
		Domain: "test.localhost",
	}
	defaultOptions := &schemas.OptionsSpec{
		ReturnIds:          true,
		ValidateReferences: true,
		StopOnError:        true,
	}
	adminUser := schemas.UserSpec{
		Email:     "admin@lodge.test",
		Role:      "TENANT_ADMIN",
		FirstName: "Avery",
		LastName:  "Admin",
		Ref:       "admin",
	}
	adminSession := schemas.SessionSpec{UserRef: "@users.admin", Token: "test-admin-token"}

	weekStart := nextMonday(time.Now().UTC())
	day := func(offset int) string { return weekStart.AddDate(0, 0, offset).Format(time.DateOnly) }
	at := func(offset, hour int) string {
		d := weekStart.AddDate(0, 0, offset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC).Format(time.RFC3339)
	}

	schedulingData := &schemas.DataSpec{
		Properties: []schemas.PropertySpec{
			{Name: "Seaside Hotel", Timezone: "UTC", Ref: "main"},
		},
		JobRoles: []schemas.JobRoleSpec{
			{Name: "Housekeeping", Ref: "housekeeping"},
			{Name: "Front Desk", Ref: "frontDesk"},
		},
		Employees: []schemas.EmployeeSpec{
			{FirstName: "Alice", LastName: "Nguyen", Email: "alice@lodge.test", PropertyRef: "@properties.main", JobRoleRefs: []string{"@jobRoles.housekeeping"}, Ref: "alice"},
			{FirstName: "Bob", LastName: "Ortiz", Email: "bob@lodge.test", PropertyRef: "@properties.main", JobRoleRefs: []string{"@jobRoles.housekeeping"}, Ref: "bob"},
			{FirstName: "Carol", LastName: "Smith", Email: "carol@lodge.test", PropertyRef: "@properties.main", JobRoleRefs: []string{"@jobRoles.frontDesk"}, Ref: "carol"},
		},
		Users: []schemas.UserSpec{
			adminUser,
			{Email: "scheduler@lodge.test", Role: "SCHEDULER", FirstName: "Sam", LastName: "Scheduler", PropertyRefs: []string{"@properties.main"}, Ref: "scheduler"},
			{Email: "alice@lodge.test", Role: "EMPLOYEE", FirstName: "Alice", LastName: "Nguyen", EmployeeRef: "@employees.alice", Ref: "aliceUser"},
			{Email: "bob@lodge.test", Role: "EMPLOYEE", FirstName: "Bob", LastName: "Ortiz", EmployeeRef: "@employees.bob", Ref: "bobUser"},
		},
		Sessions: []schemas.SessionSpec{
			adminSession,
			{UserRef: "@users.scheduler", Token: "test-scheduler-token"},
			{UserRef: "@users.aliceUser", Token: "test-alice-token"},
			{UserRef: "@users.bobUser", Token: "test-bob-token"},
		},
		Scheduling: &schemas.SchedulingSpec{
			Periods: []schemas.PeriodSpec{
				{PropertyRef: "@properties.main", StartDate: day(0), EndDate: day(6), Name: "Week of " + day(0), Ref: "week"},
			},
			ShiftPlans: []schemas.ShiftPlanSpec{
				{PeriodRef: "@periods.week", JobRoleRef: "@jobRoles.housekeeping", StartAt: at(0, 9), EndAt: at(0, 17), BreakMinutes: 30, AssigneeRefs: []string{"@employees.alice"}, Ref: "aliceShift"},
				{PeriodRef: "@periods.week", JobRoleRef: "@jobRoles.housekeeping", StartAt: at(1, 9), EndAt: at(1, 17), BreakMinutes: 30, AssigneeRefs: []string{"@employees.bob"}, Ref: "bobShift"},
				{PeriodRef: "@periods.week", JobRoleRef: "@jobRoles.frontDesk", StartAt: at(2, 8), EndAt: at(2, 16), IsOpenShift: true, Ref: "openShift"},
			},
			Availability: []schemas.AvailabilitySpec{
				{EmployeeRef: "@employees.alice", PropertyRef: "@properties.main", Day: day(3), StartTime: "09:00", EndTime: "17:00", Kind: "PREFERRED"},
			},
		},
	}

	scenarios := map[string]*schemas.PopulateRequest{
		"minimal": {
			Version: "1.0",
			Tenant:  defaultTenant,
			Data: &schemas.DataSpec{
				Users:    []schemas.UserSpec{adminUser},
				Sessions: []schemas.SessionSpec{adminSession},
			},
			Options: defaultOptions,
		},
		"scheduling": {
			Version: "1.0",
			Tenant:  defaultTenant,
			Data:    schedulingData,
			Options: defaultOptions,
		},
		"comprehensive": {
			Version: "1.0",
			Tenant:  defaultTenant,
			Data:    comprehensiveData(schedulingData, day, at),
			Options: defaultOptions,
		},
	}

	scenario, exists := scenarios[name]
	return scenario, exists
}

// comprehensiveData layers a second property and a published past week on
// top of the scheduling scenario.
func comprehensiveData(base *schemas.DataSpec, day func(int) string, at func(int, int) string) *schemas.DataSpec {
	data := *base
	data.Properties = append([]schemas.PropertySpec{}, base.Properties...)
	data.Properties = append(data.Properties, schemas.PropertySpec{Name: "Harbor Inn", Timezone: "UTC", Ref: "harbor"})

	data.Employees = append([]schemas.EmployeeSpec{}, base.Employees...)
	data.Employees = append(data.Employees,
		schemas.EmployeeSpec{FirstName: "Dana", LastName: "Park", Email: "dana@lodge.test", PropertyRef: "@properties.harbor", JobRoleRefs: []string{"@jobRoles.frontDesk"}, Ref: "dana"},
	)

	sched := *base.Scheduling
	sched.Periods = append([]schemas.PeriodSpec{}, base.Scheduling.Periods...)
	sched.Periods = append(sched.Periods,
		schemas.PeriodSpec{PropertyRef: "@properties.main", StartDate: day(-7), EndDate: day(-1), Name: "Week of " + day(-7), Status: "PUBLISHED", Ref: "lastWeek"},
		schemas.PeriodSpec{PropertyRef: "@properties.harbor", StartDate: day(0), EndDate: day(6), Name: "Harbor week of " + day(0), Ref: "harborWeek"},
	)
	sched.ShiftPlans = append([]schemas.ShiftPlanSpec{}, base.Scheduling.ShiftPlans...)
	sched.ShiftPlans = append(sched.ShiftPlans,
		schemas.ShiftPlanSpec{PeriodRef: "@periods.lastWeek", JobRoleRef: "@jobRoles.housekeeping", StartAt: at(-7, 9), EndAt: at(-7, 17), BreakMinutes: 30, AssigneeRefs: []string{"@employees.alice"}},
		schemas.ShiftPlanSpec{PeriodRef: "@periods.harborWeek", JobRoleRef: "@jobRoles.frontDesk", StartAt: at(1, 7), EndAt: at(1, 15), AssigneeRefs: []string{"@employees.dana"}},
	)
	sched.Availability = append([]schemas.AvailabilitySpec{}, base.Scheduling.Availability...)
	sched.Availability = append(sched.Availability,
		schemas.AvailabilitySpec{EmployeeRef: "@employees.bob", PropertyRef: "@properties.main", Day: day(4), StartTime: "00:00", EndTime: "23:59", Kind: "UNAVAILABLE"},
		schemas.AvailabilitySpec{EmployeeRef: "@employees.dana", PropertyRef: "@properties.harbor", Day: day(2), StartTime: "07:00", EndTime: "15:00", Kind: "AVAILABLE"},
	)
	data.Scheduling = &sched
	return &data
}

func nextMonday(from time.Time) time.Time {
	d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/property"
	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/session"
	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/tenant"
	corepersistence "github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/aggregates/employee"
	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/entities/jobrole"
	hrmpersistence "github.com/lodgecrew/lodgecrew/modules/hrm/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/entities/availability"
	schedpersistence "github.com/lodgecrew/lodgecrew/modules/scheduling/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/modules/testkit/domain/schemas"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

// PopulateService turns a declarative populate payload into rows, writing
// through the same repositories the modules use in production. Everything
// runs in one transaction; a failing spec leaves the database untouched.
type PopulateService struct {
	app application.Application

	tenants        tenant.Repository
	properties     property.Repository
	users          user.Repository
	sessions       session.Repository
	employees      employee.Repository
	jobRoles       jobrole.Repository
	jobAssignments employee.JobAssignmentRepository
	periods        period.Repository
	shifts         shift.Repository
	availability   availability.Repository

	refs         map[string]uuid.UUID
	rolesByRef   map[string]*jobrole.JobRole
	periodsByRef map[string]period.SchedulePeriod
	created      map[string]map[string]string
	stats        schemas.PopulateStats
	departmentID uuid.UUID
	actorID      uuid.UUID
}

func NewPopulateService(app application.Application) *PopulateService {
	return &PopulateService{
		app:            app,
		tenants:        corepersistence.NewTenantRepository(),
		properties:     corepersistence.NewPropertyRepository(),
		users:          corepersistence.NewUserRepository(),
		sessions:       corepersistence.NewSessionRepository(),
		employees:      hrmpersistence.NewEmployeeRepository(),
		jobRoles:       hrmpersistence.NewJobRoleRepository(),
		jobAssignments: hrmpersistence.NewJobAssignmentRepository(),
		periods:        schedpersistence.NewPeriodRepository(),
		shifts:         schedpersistence.NewShiftRepository(),
		availability:   schedpersistence.NewAvailabilityRepository(),
	}
}

func (s *PopulateService) Execute(ctx context.Context, req *schemas.PopulateRequest) (*schemas.PopulateResponse, error) {
	logger := composables.UseLogger(ctx)

	// Reset per-request state.
	s.refs = make(map[string]uuid.UUID)
	s.rolesByRef = make(map[string]*jobrole.JobRole)
	s.periodsByRef = make(map[string]period.SchedulePeriod)
	s.created = make(map[string]map[string]string)
	s.stats = schemas.PopulateStats{}
	s.departmentID = uuid.New()
	s.actorID = uuid.Nil

	tx, err := s.app.DB().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ctx = composables.WithTx(ctx, tx)

	logger.Info("populating test data")

	if req.Tenant != nil {
		ctx, err = s.setupTenant(ctx, req.Tenant)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tenant: %w", err)
		}
	}

	if req.Data != nil {
		if err := s.populateData(ctx, req.Data); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.WithField("total", s.stats.TotalCreated).Info("test data populated")

	stats := s.stats
	resp := &schemas.PopulateResponse{Success: true, Stats: &stats}
	if req.Options != nil && req.Options.ReturnIds {
		resp.Created = s.created
	}
	return resp, nil
}

func (s *PopulateService) setupTenant(ctx context.Context, spec *schemas.TenantSpec) (context.Context, error) {
	logger := composables.UseLogger(ctx)

	tenantID := uuid.New()
	if spec.ID != "" {
		parsed, err := uuid.Parse(spec.ID)
		if err != nil {
			return ctx, fmt.Errorf("invalid tenant id %q: %w", spec.ID, err)
		}
		tenantID = parsed
	}

	existing, err := s.tenants.List(ctx)
	if err != nil {
		return ctx, fmt.Errorf("failed to list tenants: %w", err)
	}
	exists := false
	for _, t := range existing {
		if t.ID() == tenantID {
			exists = true
			break
		}
	}

	if !exists {
		domain := spec.Domain
		if domain == "" {
			domain = "localhost"
		}
		newTenant := tenant.New(spec.Name, tenant.WithID(tenantID), tenant.WithDomain(domain))
		if _, err := s.tenants.Create(ctx, newTenant); err != nil {
			return ctx, fmt.Errorf("failed to create tenant: %w", err)
		}
		s.stats.TenantsCreated++
		s.stats.TotalCreated++
		logger.WithField("tenantID", tenantID).Info("tenant created")
	}

	s.created["tenant"] = map[string]string{"id": tenantID.String()}
	return composables.WithTenantID(ctx, tenantID), nil
}

// populateData creates entities in dependency order: employees need
// properties and job roles, shifts need periods, sessions need users.
func (s *PopulateService) populateData(ctx context.Context, data *schemas.DataSpec) error {
	if err := s.createProperties(ctx, data.Properties); err != nil {
		return fmt.Errorf("failed to create properties: %w", err)
	}
	if err := s.createJobRoles(ctx, data.JobRoles); err != nil {
		return fmt.Errorf("failed to create job roles: %w", err)
	}
	if err := s.createEmployees(ctx, data.Employees); err != nil {
		return fmt.Errorf("failed to create employees: %w", err)
	}
	if err := s.createUsers(ctx, data.Users); err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	if err := s.createSessions(ctx, data.Sessions); err != nil {
		return fmt.Errorf("failed to create sessions: %w", err)
	}
	if data.Scheduling != nil {
		if err := s.createSchedulingData(ctx, data.Scheduling); err != nil {
			return fmt.Errorf("failed to create scheduling data: %w", err)
		}
	}
	return nil
}

func (s *PopulateService) createProperties(ctx context.Context, specs []schemas.PropertySpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	logger := composables.UseLogger(ctx)

	for _, spec := range specs {
		logger.WithField("name", spec.Name).Debug("creating property")

		opts := []property.Option{}
		if spec.Timezone != "" {
			opts = append(opts, property.WithTimezone(spec.Timezone))
		}
		prop := property.New(tenantID, spec.Name, opts...)
		if err := s.properties.Create(ctx, prop); err != nil {
			return fmt.Errorf("property %q: %w", spec.Name, err)
		}
		s.track("properties", spec.Ref, spec.Name, prop.ID())
		s.stats.PropertiesCreated++
	}
	return nil
}

func (s *PopulateService) createJobRoles(ctx context.Context, specs []schemas.JobRoleSpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	logger := composables.UseLogger(ctx)

	for _, spec := range specs {
		logger.WithField("name", spec.Name).Debug("creating job role")

		// Seeded roles share one synthetic department; schedules only carry
		// the id through.
		role := &jobrole.JobRole{
			ID:           uuid.New(),
			TenantID:     tenantID,
			DepartmentID: s.departmentID,
			Name:         spec.Name,
		}
		if err := s.jobRoles.Create(ctx, role); err != nil {
			return fmt.Errorf("job role %q: %w", spec.Name, err)
		}
		if spec.Ref != "" {
			s.rolesByRef[spec.Ref] = role
		}
		s.track("jobRoles", spec.Ref, spec.Name, role.ID)
		s.stats.JobRolesCreated++
	}
	return nil
}

func (s *PopulateService) createEmployees(ctx context.Context, specs []schemas.EmployeeSpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	logger := composables.UseLogger(ctx)

	for _, spec := range specs {
		logger.WithField("email", spec.Email).Debug("creating employee")

		propertyID, err := s.resolve("properties", spec.PropertyRef)
		if err != nil {
			return fmt.Errorf("employee %q: %w", spec.Email, err)
		}
		created, err := s.employees.Create(ctx, employee.New(tenantID, propertyID, spec.FirstName, spec.LastName, spec.Email))
		if err != nil {
			return fmt.Errorf("employee %q: %w", spec.Email, err)
		}
		for _, roleRef := range spec.JobRoleRefs {
			roleID, err := s.resolve("jobRoles", roleRef)
			if err != nil {
				return fmt.Errorf("employee %q: %w", spec.Email, err)
			}
			// Backdated a year so seeded shifts near the present fall inside
			// the assignment window.
			a := employee.JobAssignment{
				EmployeeID: created.ID(),
				JobRoleID:  roleID,
				StartDate:  time.Now().AddDate(-1, 0, 0),
			}
			if err := s.jobAssignments.Assign(ctx, a); err != nil {
				return fmt.Errorf("employee %q: assign role: %w", spec.Email, err)
			}
		}
		s.track("employees", spec.Ref, spec.Email, created.ID())
		s.stats.EmployeesCreated++
	}
	return nil
}

func (s *PopulateService) createUsers(ctx context.Context, specs []schemas.UserSpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	logger := composables.UseLogger(ctx)

	for _, spec := range specs {
		logger.WithField("email", spec.Email).Debug("creating user")

		role := user.Role(strings.ToUpper(spec.Role))
		if !role.IsValid() {
			return fmt.Errorf("user %q: unknown role %q", spec.Email, spec.Role)
		}

		if existing, err := s.users.GetByEmail(ctx, spec.Email); err == nil {
			logger.WithField("email", spec.Email).Debug("user already exists, skipping")
			s.track("users", spec.Ref, spec.Email, existing.ID())
			s.rememberActor(existing.ID(), existing.Role())
			continue
		}

		opts := []user.Option{}
		if spec.FirstName != "" || spec.LastName != "" {
			opts = append(opts, user.WithName(spec.FirstName, spec.LastName))
		}
		if spec.EmployeeRef != "" {
			employeeID, err := s.resolve("employees", spec.EmployeeRef)
			if err != nil {
				return fmt.Errorf("user %q: %w", spec.Email, err)
			}
			opts = append(opts, user.WithEmployeeID(employeeID))
		}
		if len(spec.PropertyRefs) > 0 {
			propertyIDs := make([]uuid.UUID, 0, len(spec.PropertyRefs))
			for _, ref := range spec.PropertyRefs {
				id, err := s.resolve("properties", ref)
				if err != nil {
					return fmt.Errorf("user %q: %w", spec.Email, err)
				}
				propertyIDs = append(propertyIDs, id)
			}
			opts = append(opts, user.WithPropertyIDs(propertyIDs))
		}

		created, err := s.users.Create(ctx, user.New(tenantID, spec.Email, role, opts...))
		if err != nil {
			return fmt.Errorf("user %q: %w", spec.Email, err)
		}
		s.track("users", spec.Ref, spec.Email, created.ID())
		s.rememberActor(created.ID(), created.Role())
		s.stats.UsersCreated++
	}
	return nil
}

func (s *PopulateService) createSessions(ctx context.Context, specs []schemas.SessionSpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	for _, spec := range specs {
		userID, err := s.resolve("users", spec.UserRef)
		if err != nil {
			return err
		}
		token := spec.Token
		if token == "" {
			token = "test-" + uuid.NewString()
		}
		ttl := configuration.Use().SessionDuration
		if spec.TTL != "" {
			parsed, err := time.ParseDuration(spec.TTL)
			if err != nil {
				return fmt.Errorf("session for %q: invalid ttl %q: %w", spec.UserRef, spec.TTL, err)
			}
			ttl = parsed
		}
		now := time.Now()
		sess := &session.Session{
			Token:     token,
			UserID:    userID,
			TenantID:  tenantID,
			IP:        "127.0.0.1",
			UserAgent: "testkit",
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		if err := s.sessions.Create(ctx, sess); err != nil {
			return fmt.Errorf("session for %q: %w", spec.UserRef, err)
		}
		// The token goes back in the response so the suite can authenticate.
		bucket, ok := s.created["sessions"]
		if !ok {
			bucket = make(map[string]string)
			s.created["sessions"] = bucket
		}
		bucket[refLeaf("users", spec.UserRef)] = token
		s.stats.SessionsCreated++
		s.stats.TotalCreated++
	}
	return nil
}

func (s *PopulateService) createSchedulingData(ctx context.Context, spec *schemas.SchedulingSpec) error {
	if err := s.createPeriods(ctx, spec.Periods); err != nil {
		return err
	}
	if err := s.createShiftPlans(ctx, spec.ShiftPlans); err != nil {
		return err
	}
	return s.createAvailability(ctx, spec.Availability)
}

func (s *PopulateService) createPeriods(ctx context.Context, specs []schemas.PeriodSpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	for i, spec := range specs {
		propertyID, err := s.resolve("properties", spec.PropertyRef)
		if err != nil {
			return fmt.Errorf("periods[%d]: %w", i, err)
		}
		startDate, err := time.Parse(time.DateOnly, spec.StartDate)
		if err != nil {
			return fmt.Errorf("periods[%d]: invalid startDate: %w", i, err)
		}
		endDate, err := time.Parse(time.DateOnly, spec.EndDate)
		if err != nil {
			return fmt.Errorf("periods[%d]: invalid endDate: %w", i, err)
		}
		name := spec.Name
		if name == "" {
			name = "Week of " + spec.StartDate
		}

		p, err := period.New(tenantID, propertyID, startDate, endDate, name, s.actor())
		if err != nil {
			return fmt.Errorf("periods[%d]: %w", i, err)
		}
		created, err := s.periods.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("periods[%d]: %w", i, err)
		}

		// PUBLISHED and LOCKED periods go through the same transitions the
		// service applies, so publish audit rows stay consistent.
		status := period.Status(strings.ToUpper(spec.Status))
		if status == period.StatusPublished || status == period.StatusLocked {
			published, changed, err := created.Publish(s.actor(), time.Now(), "seeded")
			if err != nil {
				return fmt.Errorf("periods[%d]: %w", i, err)
			}
			created = published
			if status == period.StatusLocked {
				locked, _, err := created.Lock(s.actor(), time.Now())
				if err != nil {
					return fmt.Errorf("periods[%d]: %w", i, err)
				}
				created = locked
			}
			if err := s.periods.Update(ctx, created); err != nil {
				return fmt.Errorf("periods[%d]: %w", i, err)
			}
			if changed {
				event := period.PublishEvent{
					ID:          uuid.New(),
					TenantID:    tenantID,
					PeriodID:    created.ID(),
					PublishedBy: *created.PublishedBy(),
					PublishedAt: *created.PublishedAt(),
					Notes:       created.PublishNotes(),
				}
				if err := s.periods.CreatePublishEvent(ctx, event); err != nil {
					return fmt.Errorf("periods[%d]: %w", i, err)
				}
			}
		} else if spec.Status != "" && status != period.StatusDraft {
			return fmt.Errorf("periods[%d]: unknown status %q", i, spec.Status)
		}

		if spec.Ref != "" {
			s.periodsByRef[spec.Ref] = created
		}
		s.track("periods", spec.Ref, name, created.ID())
		s.stats.PeriodsCreated++
	}
	return nil
}

func (s *PopulateService) createShiftPlans(ctx context.Context, specs []schemas.ShiftPlanSpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	for i, spec := range specs {
		per, ok := s.periodsByRef[refLeaf("periods", spec.PeriodRef)]
		if !ok {
			return fmt.Errorf("shiftPlans[%d]: unresolved reference %q", i, spec.PeriodRef)
		}
		role, ok := s.rolesByRef[refLeaf("jobRoles", spec.JobRoleRef)]
		if !ok {
			return fmt.Errorf("shiftPlans[%d]: unresolved reference %q", i, spec.JobRoleRef)
		}
		startAt, err := time.Parse(time.RFC3339, spec.StartAt)
		if err != nil {
			return fmt.Errorf("shiftPlans[%d]: invalid startAt: %w", i, err)
		}
		endAt, err := time.Parse(time.RFC3339, spec.EndAt)
		if err != nil {
			return fmt.Errorf("shiftPlans[%d]: invalid endAt: %w", i, err)
		}

		plan, err := shift.NewPlan(tenantID, per.PropertyID(), per.ID(), role.DepartmentID, role.ID, startAt, endAt, spec.BreakMinutes, spec.IsOpenShift)
		if err != nil {
			return fmt.Errorf("shiftPlans[%d]: %w", i, err)
		}
		created, err := s.shifts.CreatePlan(ctx, plan)
		if err != nil {
			return fmt.Errorf("shiftPlans[%d]: %w", i, err)
		}

		for _, assigneeRef := range spec.AssigneeRefs {
			employeeID, err := s.resolve("employees", assigneeRef)
			if err != nil {
				return fmt.Errorf("shiftPlans[%d]: %w", i, err)
			}
			assignment := shift.Assignment{
				ID:          uuid.New(),
				TenantID:    tenantID,
				PropertyID:  created.PropertyID,
				ShiftPlanID: created.ID,
				EmployeeID:  employeeID,
				AssignedBy:  s.actor(),
				AssignedAt:  time.Now(),
			}
			if _, err := s.shifts.CreateAssignment(ctx, assignment); err != nil {
				return fmt.Errorf("shiftPlans[%d]: assign %q: %w", i, assigneeRef, err)
			}
			s.stats.TotalCreated++
		}

		s.track("shiftPlans", spec.Ref, created.ID.String(), created.ID)
		s.stats.ShiftsCreated++
	}
	return nil
}

func (s *PopulateService) createAvailability(ctx context.Context, specs []schemas.AvailabilitySpec) error {
	if len(specs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	for i, spec := range specs {
		employeeID, err := s.resolve("employees", spec.EmployeeRef)
		if err != nil {
			return fmt.Errorf("availability[%d]: %w", i, err)
		}
		propertyID, err := s.resolve("properties", spec.PropertyRef)
		if err != nil {
			return fmt.Errorf("availability[%d]: %w", i, err)
		}
		day, err := time.Parse(time.DateOnly, spec.Day)
		if err != nil {
			return fmt.Errorf("availability[%d]: invalid day: %w", i, err)
		}
		kind := availability.KindAvailable
		if spec.Kind != "" {
			kind, err = availability.ParseKind(strings.ToUpper(spec.Kind))
			if err != nil {
				return fmt.Errorf("availability[%d]: %w", i, err)
			}
		}
		if err := availability.ValidateTimeRange(spec.StartTime, spec.EndTime); err != nil {
			return fmt.Errorf("availability[%d]: %w", i, err)
		}

		entry := availability.Entry{
			ID:             uuid.New(),
			TenantID:       tenantID,
			PropertyID:     propertyID,
			EmployeeID:     employeeID,
			Day:            day,
			StartTime:      spec.StartTime,
			EndTime:        spec.EndTime,
			Kind:           kind,
			RecurrenceRule: spec.Recurrence,
		}
		if _, err := s.availability.Create(ctx, entry); err != nil {
			return fmt.Errorf("availability[%d]: %w", i, err)
		}
		s.stats.TotalCreated++
	}
	return nil
}

// track records a created id under its kind so later specs can reference it
// and the response can return it.
func (s *PopulateService) track(kind, ref, key string, id uuid.UUID) {
	if ref != "" {
		s.refs[kind+"."+ref] = id
		key = ref
	} else {
		s.refs[kind+"."+key] = id
	}
	bucket, ok := s.created[kind]
	if !ok {
		bucket = make(map[string]string)
		s.created[kind] = bucket
	}
	bucket[key] = id.String()
	s.stats.TotalCreated++
}

// resolve maps a "@kind.name" or bare "name" reference to a created id.
func (s *PopulateService) resolve(kind, ref string) (uuid.UUID, error) {
	key := strings.TrimPrefix(ref, "@")
	if !strings.Contains(key, ".") {
		key = kind + "." + key
	}
	id, ok := s.refs[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("unresolved reference %q", ref)
	}
	return id, nil
}

func refLeaf(kind, ref string) string {
	key := strings.TrimPrefix(ref, "@")
	return strings.TrimPrefix(key, kind+".")
}

// rememberActor keeps the first non-employee user as the author stamped on
// seeded periods and assignments.
func (s *PopulateService) rememberActor(id uuid.UUID, role user.Role) {
	if s.actorID == uuid.Nil && role != user.RoleEmployee {
		s.actorID = id
	}
}

func (s *PopulateService) actor() uuid.UUID {
	if s.actorID == uuid.Nil {
		s.actorID = uuid.New()
	}
	return s.actorID
}

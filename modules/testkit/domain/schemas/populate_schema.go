package schemas

import (
	"encoding/json"
	"fmt"
)

// PopulateRequest is the declarative payload accepted by POST
// /__test__/populate. E2E suites describe the tenant and the workforce data
// they need; the populate service turns the description into rows. Specs may
// point at each other through "@refs": a spec declares `"_ref": "main"` and a
// later spec references it as "@properties.main".
type PopulateRequest struct {
	Version string       `json:"version"`
	Tenant  *TenantSpec  `json:"tenant,omitempty"`
	Data    *DataSpec    `json:"data,omitempty"`
	Options *OptionsSpec `json:"options,omitempty"`
}

type TenantSpec struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

type DataSpec struct {
	Properties []PropertySpec  `json:"properties,omitempty"`
	JobRoles   []JobRoleSpec   `json:"jobRoles,omitempty"`
	Employees  []EmployeeSpec  `json:"employees,omitempty"`
	Users      []UserSpec      `json:"users,omitempty"`
	Sessions   []SessionSpec   `json:"sessions,omitempty"`
	Scheduling *SchedulingSpec `json:"scheduling,omitempty"`
}

type PropertySpec struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
	Ref      string `json:"_ref,omitempty"`
}

type JobRoleSpec struct {
	Name string `json:"name"`
	Ref  string `json:"_ref,omitempty"`
}

type EmployeeSpec struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	PropertyRef string   `json:"property"`
	JobRoleRefs []string `json:"jobRoles,omitempty"`
	Ref         string   `json:"_ref,omitempty"`
}

type UserSpec struct {
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	FirstName    string   `json:"firstName,omitempty"`
	LastName     string   `json:"lastName,omitempty"`
	EmployeeRef  string   `json:"employee,omitempty"`
	PropertyRefs []string `json:"properties,omitempty"`
	Ref          string   `json:"_ref,omitempty"`
}

// SessionSpec mints a login token for a seeded user so an e2e suite can call
// the API without going through the external identity provider.
type SessionSpec struct {
	UserRef string `json:"user"`
	Token   string `json:"token,omitempty"`
	TTL     string `json:"ttl,omitempty"`
}

type SchedulingSpec struct {
	Periods      []PeriodSpec       `json:"periods,omitempty"`
	ShiftPlans   []ShiftPlanSpec    `json:"shiftPlans,omitempty"`
	Availability []AvailabilitySpec `json:"availability,omitempty"`
}

type PeriodSpec struct {
	PropertyRef string `json:"property"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Name        string `json:"name,omitempty"`
	Status      string `json:"status,omitempty"`
	Ref         string `json:"_ref,omitempty"`
}

type ShiftPlanSpec struct {
	PeriodRef    string   `json:"period"`
	JobRoleRef   string   `json:"jobRole"`
	StartAt      string   `json:"startAt"`
	EndAt        string   `json:"endAt"`
	BreakMinutes int      `json:"breakMinutes,omitempty"`
	IsOpenShift  bool     `json:"isOpenShift,omitempty"`
	AssigneeRefs []string `json:"assignees,omitempty"`
	Ref          string   `json:"_ref,omitempty"`
}

type AvailabilitySpec struct {
	EmployeeRef string `json:"employee"`
	PropertyRef string `json:"property"`
	Day         string `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Kind        string `json:"kind,omitempty"`
	Recurrence  string `json:"recurrenceRule,omitempty"`
}

type OptionsSpec struct {
	ClearExisting      bool `json:"clearExisting,omitempty"`
	ReturnIds          bool `json:"returnIds,omitempty"`
	ValidateReferences bool `json:"validateReferences,omitempty"`
	StopOnError        bool `json:"stopOnError,omitempty"`
}

type PopulateResponse struct {
	Success bool                         `json:"success"`
	Created map[string]map[string]string `json:"created,omitempty"`
	Errors  []PopulateError              `json:"errors,omitempty"`
	Stats   *PopulateStats               `json:"stats,omitempty"`
}

type PopulateError struct {
	Entity  string `json:"entity"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

type PopulateStats struct {
	TenantsCreated    int `json:"tenantsCreated"`
	PropertiesCreated int `json:"propertiesCreated"`
	JobRolesCreated   int `json:"jobRolesCreated"`
	EmployeesCreated  int `json:"employeesCreated"`
	UsersCreated      int `json:"usersCreated"`
	SessionsCreated   int `json:"sessionsCreated"`
	PeriodsCreated    int `json:"periodsCreated"`
	ShiftsCreated     int `json:"shiftsCreated"`
	TotalCreated      int `json:"totalCreated"`
}

// Validate checks structural soundness before any row is written. Reference
// resolution happens later, inside the populate transaction.
func (r *PopulateRequest) Validate() error {
	if r.Version == "" {
		r.Version = "1.0"
	}
	if r.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s", r.Version)
	}
	if r.Tenant != nil && r.Tenant.Name == "" {
		return fmt.Errorf("tenant name is required")
	}
	if r.Data == nil {
		return nil
	}
	for i, p := range r.Data.Properties {
		if p.Name == "" {
			return fmt.Errorf("properties[%d]: name is required", i)
		}
	}
	for i, jr := range r.Data.JobRoles {
		if jr.Name == "" {
			return fmt.Errorf("jobRoles[%d]: name is required", i)
		}
	}
	for i, e := range r.Data.Employees {
		if e.Email == "" {
			return fmt.Errorf("employees[%d]: email is required", i)
		}
		if e.PropertyRef == "" {
			return fmt.Errorf("employees[%d]: property reference is required", i)
		}
	}
	for i, u := range r.Data.Users {
		if u.Email == "" {
			return fmt.Errorf("users[%d]: email is required", i)
		}
		if u.Role == "" {
			return fmt.Errorf("users[%d]: role is required", i)
		}
	}
	for i, s := range r.Data.Sessions {
		if s.UserRef == "" {
			return fmt.Errorf("sessions[%d]: user reference is required", i)
		}
	}
	if sched := r.Data.Scheduling; sched != nil {
		for i, p := range sched.Periods {
			if p.PropertyRef == "" || p.StartDate == "" || p.EndDate == "" {
				return fmt.Errorf("scheduling.periods[%d]: property, startDate and endDate are required", i)
			}
		}
		for i, sp := range sched.ShiftPlans {
			if sp.PeriodRef == "" || sp.JobRoleRef == "" || sp.StartAt == "" || sp.EndAt == "" {
				return fmt.Errorf("scheduling.shiftPlans[%d]: period, jobRole, startAt and endAt are required", i)
			}
		}
		for i, a := range sched.Availability {
			if a.EmployeeRef == "" || a.PropertyRef == "" || a.Day == "" {
				return fmt.Errorf("scheduling.availability[%d]: employee, property and day are required", i)
			}
		}
	}
	return nil
}

// ParsePopulateRequest decodes and validates a populate payload.
func ParsePopulateRequest(data []byte) (*PopulateRequest, error) {
	var req PopulateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &req, nil
}

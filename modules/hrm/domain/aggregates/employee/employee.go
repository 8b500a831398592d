package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Employee is the HR record shifts are assigned to. Platform accounts link to
// it through users.employee_id; scheduling only reads employees, it never
// creates them.
type Employee struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	propertyID uuid.UUID
	firstName  string
	lastName   string
	email      string
	status     Status
	hiredAt    time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

func New(tenantID, propertyID uuid.UUID, firstName, lastName, email string) Employee {
	return Employee{
		id:         uuid.New(),
		tenantID:   tenantID,
		propertyID: propertyID,
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		email:      strings.ToLower(strings.TrimSpace(email)),
		status:     StatusActive,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	propertyID uuid.UUID,
	firstName string,
	lastName string,
	email string,
	status Status,
	hiredAt time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Employee {
	return Employee{
		id:         id,
		tenantID:   tenantID,
		propertyID: propertyID,
		firstName:  firstName,
		lastName:   lastName,
		email:      email,
		status:     status,
		hiredAt:    hiredAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (e Employee) ID() uuid.UUID         { return e.id }
func (e Employee) TenantID() uuid.UUID   { return e.tenantID }
func (e Employee) PropertyID() uuid.UUID { return e.propertyID }
func (e Employee) FirstName() string     { return e.firstName }
func (e Employee) LastName() string      { return e.lastName }
func (e Employee) Email() string         { return e.email }
func (e Employee) Status() Status        { return e.status }
func (e Employee) HiredAt() time.Time    { return e.hiredAt }
func (e Employee) CreatedAt() time.Time  { return e.createdAt }
func (e Employee) UpdatedAt() time.Time  { return e.updatedAt }

func (e Employee) IsActive() bool { return e.status == StatusActive }

func (e Employee) WithStatus(status Status) Employee {
	e.status = status
	return e
}

func (e Employee) WithName(firstName, lastName string) Employee {
	e.firstName = strings.TrimSpace(firstName)
	e.lastName = strings.TrimSpace(lastName)
	return e
}

func (e Employee) WithHiredAt(hiredAt time.Time) Employee {
	e.hiredAt = hiredAt
	return e
}

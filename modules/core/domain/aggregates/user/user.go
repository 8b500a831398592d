package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the authenticated platform account. Accounts with RoleEmployee are
// linked to an HR employee record through EmployeeID; manager-level accounts
// carry the property ids they may act on.
type User interface {
	ID() uuid.UUID
	TenantID() uuid.UUID
	Email() string
	FirstName() string
	LastName() string
	Role() Role
	EmployeeID() uuid.UUID
	PropertyIDs() []uuid.UUID
	CanAccessProperty(propertyID uuid.UUID) bool
	IsActive() bool
	CreatedAt() time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, data User) (User, error)
}

type Option func(*u)

type u struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	email       string
	firstName   string
	lastName    string
	role        Role
	employeeID  uuid.UUID
	propertyIDs []uuid.UUID
	isActive    bool
	createdAt   time.Time
}

func WithID(id uuid.UUID) Option {
	return func(usr *u) {
		usr.id = id
	}
}

func WithName(first, last string) Option {
	return func(usr *u) {
		usr.firstName = first
		usr.lastName = last
	}
}

func WithEmployeeID(employeeID uuid.UUID) Option {
	return func(usr *u) {
		usr.employeeID = employeeID
	}
}

func WithPropertyIDs(propertyIDs []uuid.UUID) Option {
	return func(usr *u) {
		usr.propertyIDs = propertyIDs
	}
}

func WithIsActive(isActive bool) Option {
	return func(usr *u) {
		usr.isActive = isActive
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(usr *u) {
		usr.createdAt = createdAt
	}
}

func New(tenantID uuid.UUID, email string, role Role, opts ...Option) User {
	usr := &u{
		id:        uuid.New(),
		tenantID:  tenantID,
		email:     email,
		role:      role,
		isActive:  true,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(usr)
	}
	return usr
}

func (usr *u) ID() uuid.UUID {
	return usr.id
}

func (usr *u) TenantID() uuid.UUID {
	return usr.tenantID
}

func (usr *u) Email() string {
	return usr.email
}

func (usr *u) FirstName() string {
	return usr.firstName
}

func (usr *u) LastName() string {
	return usr.lastName
}

func (usr *u) Role() Role {
	return usr.role
}

func (usr *u) EmployeeID() uuid.UUID {
	return usr.employeeID
}

func (usr *u) PropertyIDs() []uuid.UUID {
	return usr.propertyIDs
}

// CanAccessProperty reports whether the account may act on the given
// property. Tenant-wide roles are not limited to an explicit property list.
func (usr *u) CanAccessProperty(propertyID uuid.UUID) bool {
	switch usr.role {
	case RoleSystemAdmin, RoleTenantAdmin:
		return true
	}
	for _, id := range usr.propertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}

func (usr *u) IsActive() bool {
	return usr.isActive
}

func (usr *u) CreatedAt() time.Time {
	return usr.createdAt
}

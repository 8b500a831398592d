package employee

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("employee not found")
	ErrInvalidStatus = errors.New("invalid employee status")
)

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetAll(ctx context.Context) ([]Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (Employee, error)
	GetByProperty(ctx context.Context, propertyID uuid.UUID) ([]Employee, error)
	Create(ctx context.Context, data Employee) (Employee, error)
	Update(ctx context.Context, data Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// JobAssignment binds an employee to a job role for a date range. An open
// EndDate means the assignment is still in force; eligibility checks reduce
// to "an active row exists".
type JobAssignment struct {
	EmployeeID uuid.UUID
	JobRoleID  uuid.UUID
	StartDate  time.Time
	EndDate    *time.Time
}

func (a JobAssignment) ActiveAt(t time.Time) bool {
	if t.Before(a.StartDate) {
		return false
	}
	return a.EndDate == nil || !t.After(*a.EndDate)
}

type JobAssignmentRepository interface {
	GetByEmployee(ctx context.Context, employeeID uuid.UUID) ([]JobAssignment, error)
	Assign(ctx context.Context, a JobAssignment) error
	End(ctx context.Context, employeeID, jobRoleID uuid.UUID, endDate time.Time) error
}

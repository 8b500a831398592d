package jobrole

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobRole is a bookable function inside a property department (front desk,
// housekeeping, bar). Shift plans require one; employees become eligible for
// it through job assignments.
type JobRole struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	DepartmentID uuid.UUID
	Name         string
	CreatedAt    time.Time
}

type Repository interface {
	GetAll(ctx context.Context) ([]*JobRole, error)
	GetByID(ctx context.Context, id uuid.UUID) (*JobRole, error)
	Create(ctx context.Context, role *JobRole) error
}

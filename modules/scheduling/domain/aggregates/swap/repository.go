package swap

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List to one property; Status and EmployeeID are
// optional. EmployeeID matches requests where the employee is either the
// requestor or the target.
type ListFilter struct {
	PropertyID uuid.UUID
	Status     *Status
	EmployeeID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, data Request) (Request, error)
	GetByID(ctx context.Context, id uuid.UUID) (Request, error)
	// GetByIDForUpdate takes a row lock on the request so concurrent
	// decisions serialize: the second one sees a terminal status.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Request, error)
	// FindPending looks up an undecided request by its natural key, the
	// dedup step for idempotent creation.
	FindPending(ctx context.Context, shiftPlanID, requestorEmployeeID, targetEmployeeID uuid.UUID) (Request, error)
	Update(ctx context.Context, data Request) error
	List(ctx context.Context, filter ListFilter) ([]Request, error)
	CountPending(ctx context.Context, propertyID uuid.UUID) (int, error)
}

package period

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("schedule period not found")
	ErrDateOrder = errors.New("startDate must be before endDate")
	ErrLocked    = errors.New("schedule period is locked")
)

// ListFilter narrows List to one property and an optional date window. A
// period matches the window when its inclusive date range overlaps it.
type ListFilter struct {
	PropertyID uuid.UUID
	Start      *time.Time
	End        *time.Time
}

type Repository interface {
	Create(ctx context.Context, data SchedulePeriod) (SchedulePeriod, error)
	GetByID(ctx context.Context, id uuid.UUID) (SchedulePeriod, error)
	// GetByIDForUpdate takes a row lock so status transitions serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (SchedulePeriod, error)
	Update(ctx context.Context, data SchedulePeriod) error
	List(ctx context.Context, filter ListFilter) ([]SchedulePeriod, error)
	// FindCovering returns the period whose date range contains day, or
	// ErrNotFound.
	FindCovering(ctx context.Context, propertyID uuid.UUID, day time.Time) (SchedulePeriod, error)
	CreatePublishEvent(ctx context.Context, event PublishEvent) error
	ListPublishEvents(ctx context.Context, periodID uuid.UUID) ([]PublishEvent, error)
}

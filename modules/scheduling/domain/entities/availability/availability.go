package availability

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("availability entry not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrTimeOrder        = errors.New("startTime must be before endTime")
	ErrInvalidTime      = errors.New("time must be in HH:MM format")
	ErrInvalidKind      = errors.New("invalid availability type")
)

type Kind string

const (
	KindAvailable   Kind = "AVAILABLE"
	KindUnavailable Kind = "UNAVAILABLE"
	KindPreferred   Kind = "PREFERRED"
)

func ParseKind(v string) (Kind, error) {
	switch Kind(v) {
	case KindAvailable, KindUnavailable, KindPreferred:
		return Kind(v), nil
	}
	return "", ErrInvalidKind
}

// Entry is one employee's declared availability for a single day. Times are
// HH:MM wall-clock strings. RecurrenceRule is opaque to the server: it is
// stored and returned verbatim, never expanded.
type Entry struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	PropertyID     uuid.UUID
	EmployeeID     uuid.UUID
	Day            time.Time
	StartTime      string
	EndTime        string
	Kind           Kind
	RecurrenceRule string
	CreatedAt      time.Time
}

// ValidateTimeRange enforces the HH:MM shape and startTime < endTime. The
// comparison is lexicographic, which is exact for zero-padded 24h times.
func ValidateTimeRange(startTime, endTime string) error {
	if !isClockTime(startTime) || !isClockTime(endTime) {
		return ErrInvalidTime
	}
	if startTime >= endTime {
		return ErrTimeOrder
	}
	return nil
}

func isClockTime(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	if _, err := time.Parse("15:04", v); err != nil {
		return false
	}
	return true
}

// ListFilter narrows List to one property plus an optional employee and day
// window (inclusive).
type ListFilter struct {
	PropertyID uuid.UUID
	EmployeeID *uuid.UUID
	Start      *time.Time
	End        *time.Time
}

type Repository interface {
	Create(ctx context.Context, data Entry) (Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
	// EmployeeExists resolves the employee id within the caller's tenant;
	// creation for an unknown employee is a not-found, not a validation
	// failure.
	EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error)
}

package shift

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrPlanNotFound       = errors.New("shift plan not found")
	ErrAssignmentNotFound = errors.New("shift assignment not found")
	ErrTimeOrder          = errors.New("startDateTime must be before endDateTime")
)

// Plan is a single bookable work interval within a schedule period. Its job
// role determines which employees are eligible to hold it.
type Plan struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	PropertyID       uuid.UUID
	SchedulePeriodID uuid.UUID
	DepartmentID     uuid.UUID
	JobRoleID        uuid.UUID
	StartAt          time.Time
	EndAt            time.Time
	BreakMinutes     int
	IsOpenShift      bool
	CreatedAt        time.Time
}

// NewPlan validates the interval invariant before anything is persisted.
func NewPlan(tenantID, propertyID, periodID, departmentID, jobRoleID uuid.UUID, startAt, endAt time.Time, breakMinutes int, isOpenShift bool) (Plan, error) {
	if !startAt.Before(endAt) {
		return Plan{}, ErrTimeOrder
	}
	return Plan{
		ID:               uuid.New(),
		TenantID:         tenantID,
		PropertyID:       propertyID,
		SchedulePeriodID: periodID,
		DepartmentID:     departmentID,
		JobRoleID:        jobRoleID,
		StartAt:          startAt,
		EndAt:            endAt,
		BreakMinutes:     breakMinutes,
		IsOpenShift:      isOpenShift,
		CreatedAt:        time.Now(),
	}, nil
}

// Assignment binds one employee to one shift plan and records who made the
// binding. A plan holds at most one assignment per employee.
type Assignment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	PropertyID  uuid.UUID
	ShiftPlanID uuid.UUID
	EmployeeID  uuid.UUID
	AssignedBy  uuid.UUID
	AssignedAt  time.Time
}

// Overlaps applies half-open interval comparison: two shifts share time iff
// aStart < bEnd && bStart < aEnd. Back-to-back shifts (one ending exactly
// when the next starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

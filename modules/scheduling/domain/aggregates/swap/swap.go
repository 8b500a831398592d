package swap

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("swap request not found")
	ErrAlreadyDecided = errors.New("swap request is already decided")
)

// Status is the swap request lifecycle. PENDING is the only non-terminal
// state; APPROVED, REJECTED and CANCELED are final.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusCanceled Status = "CANCELED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// Request is an employee-initiated transfer of one assigned shift to another
// employee, pending a manager decision. It references the shift and the two
// employees but owns neither; its effect lands on shift assignments only
// when approved.
type Request struct {
	id                  uuid.UUID
	tenantID            uuid.UUID
	propertyID          uuid.UUID
	shiftPlanID         uuid.UUID
	requestorEmployeeID uuid.UUID
	targetEmployeeID    uuid.UUID
	status              Status
	decidedBy           *uuid.UUID
	decidedAt           *time.Time
	createdAt           time.Time
	updatedAt           time.Time
}

func New(tenantID, propertyID, shiftPlanID, requestorEmployeeID, targetEmployeeID uuid.UUID) Request {
	now := time.Now()
	return Request{
		id:                  uuid.New(),
		tenantID:            tenantID,
		propertyID:          propertyID,
		shiftPlanID:         shiftPlanID,
		requestorEmployeeID: requestorEmployeeID,
		targetEmployeeID:    targetEmployeeID,
		status:              StatusPending,
		createdAt:           now,
		updatedAt:           now,
	}
}

func Hydrate(
	id, tenantID, propertyID, shiftPlanID, requestorEmployeeID, targetEmployeeID uuid.UUID,
	status Status,
	decidedBy *uuid.UUID,
	decidedAt *time.Time,
	createdAt, updatedAt time.Time,
) Request {
	return Request{
		id:                  id,
		tenantID:            tenantID,
		propertyID:          propertyID,
		shiftPlanID:         shiftPlanID,
		requestorEmployeeID: requestorEmployeeID,
		targetEmployeeID:    targetEmployeeID,
		status:              status,
		decidedBy:           decidedBy,
		decidedAt:           decidedAt,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

func (r Request) ID() uuid.UUID                  { return r.id }
func (r Request) TenantID() uuid.UUID            { return r.tenantID }
func (r Request) PropertyID() uuid.UUID          { return r.propertyID }
func (r Request) ShiftPlanID() uuid.UUID         { return r.shiftPlanID }
func (r Request) RequestorEmployeeID() uuid.UUID { return r.requestorEmployeeID }
func (r Request) TargetEmployeeID() uuid.UUID    { return r.targetEmployeeID }
func (r Request) Status() Status                 { return r.status }
func (r Request) DecidedBy() *uuid.UUID          { return r.decidedBy }
func (r Request) DecidedAt() *time.Time          { return r.decidedAt }
func (r Request) CreatedAt() time.Time           { return r.createdAt }
func (r Request) UpdatedAt() time.Time           { return r.updatedAt }

func (r Request) IsRequestor(employeeID uuid.UUID) bool {
	return r.requestorEmployeeID == employeeID
}

// Cancel is the requestor's own exit from the workflow, valid only while
// PENDING.
func (r Request) Cancel(at time.Time) (Request, error) {
	if r.status.IsTerminal() {
		return r, ErrAlreadyDecided
	}
	r.status = StatusCanceled
	r.updatedAt = at
	return r, nil
}

// Approve records the manager decision; the caller is responsible for moving
// the shift assignment in the same transaction.
func (r Request) Approve(by uuid.UUID, at time.Time) (Request, error) {
	return r.decide(StatusApproved, by, at)
}

func (r Request) Reject(by uuid.UUID, at time.Time) (Request, error) {
	return r.decide(StatusRejected, by, at)
}

func (r Request) decide(next Status, by uuid.UUID, at time.Time) (Request, error) {
	if r.status.IsTerminal() {
		return r, ErrAlreadyDecided
	}
	r.status = next
	r.decidedBy = &by
	r.decidedAt = &at
	r.updatedAt = at
	return r, nil
}

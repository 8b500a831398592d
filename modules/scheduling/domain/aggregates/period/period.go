package period

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the schedule period lifecycle. Transitions are monotonic:
// DRAFT -> PUBLISHED -> LOCKED, never backward.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusLocked    Status = "LOCKED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusLocked:
		return true
	}
	return false
}

// SchedulePeriod is a bounded calendar range within which shifts are planned
// for a property. Periods never move backward through the lifecycle and are
// never deleted in normal operation.
type SchedulePeriod struct {
	id                 uuid.UUID
	tenantID           uuid.UUID
	propertyID         uuid.UUID
	startDate          time.Time
	endDate            time.Time
	status             Status
	version            int
	name               string
	planningTemplateID *uuid.UUID
	createdBy          uuid.UUID
	createdAt          time.Time
	publishedBy        *uuid.UUID
	publishedAt        *time.Time
	publishNotes       string
	lockedBy           *uuid.UUID
	lockedAt           *time.Time
}

// New builds a DRAFT period at version 1. Dates are date-only and the range
// is inclusive; startDate must fall strictly before endDate.
func New(tenantID, propertyID uuid.UUID, startDate, endDate time.Time, name string, createdBy uuid.UUID) (SchedulePeriod, error) {
	if !startDate.Before(endDate) {
		return SchedulePeriod{}, ErrDateOrder
	}
	return SchedulePeriod{
		id:         uuid.New(),
		tenantID:   tenantID,
		propertyID: propertyID,
		startDate:  startDate,
		endDate:    endDate,
		status:     StatusDraft,
		version:    1,
		name:       strings.TrimSpace(name),
		createdBy:  createdBy,
		createdAt:  time.Now(),
	}, nil
}

// Hydrate restores a period from storage without revalidating invariants.
func Hydrate(
	id, tenantID, propertyID uuid.UUID,
	startDate, endDate time.Time,
	status Status,
	version int,
	name string,
	planningTemplateID *uuid.UUID,
	createdBy uuid.UUID,
	createdAt time.Time,
	publishedBy *uuid.UUID,
	publishedAt *time.Time,
	publishNotes string,
	lockedBy *uuid.UUID,
	lockedAt *time.Time,
) SchedulePeriod {
	return SchedulePeriod{
		id:                 id,
		tenantID:           tenantID,
		propertyID:         propertyID,
		startDate:          startDate,
		endDate:            endDate,
		status:             status,
		version:            version,
		name:               name,
		planningTemplateID: planningTemplateID,
		createdBy:          createdBy,
		createdAt:          createdAt,
		publishedBy:        publishedBy,
		publishedAt:        publishedAt,
		publishNotes:       publishNotes,
		lockedBy:           lockedBy,
		lockedAt:           lockedAt,
	}
}

func (p SchedulePeriod) ID() uuid.UUID                  { return p.id }
func (p SchedulePeriod) TenantID() uuid.UUID            { return p.tenantID }
func (p SchedulePeriod) PropertyID() uuid.UUID          { return p.propertyID }
func (p SchedulePeriod) StartDate() time.Time           { return p.startDate }
func (p SchedulePeriod) EndDate() time.Time             { return p.endDate }
func (p SchedulePeriod) Status() Status                 { return p.status }
func (p SchedulePeriod) Version() int                   { return p.version }
func (p SchedulePeriod) Name() string                   { return p.name }
func (p SchedulePeriod) PlanningTemplateID() *uuid.UUID { return p.planningTemplateID }
func (p SchedulePeriod) CreatedBy() uuid.UUID           { return p.createdBy }
func (p SchedulePeriod) CreatedAt() time.Time           { return p.createdAt }
func (p SchedulePeriod) PublishedBy() *uuid.UUID        { return p.publishedBy }
func (p SchedulePeriod) PublishedAt() *time.Time        { return p.publishedAt }
func (p SchedulePeriod) PublishNotes() string           { return p.publishNotes }
func (p SchedulePeriod) LockedBy() *uuid.UUID           { return p.lockedBy }
func (p SchedulePeriod) LockedAt() *time.Time           { return p.lockedAt }
func (p SchedulePeriod) IsLocked() bool                 { return p.status == StatusLocked }
func (p SchedulePeriod) WithPlanningTemplateID(id *uuid.UUID) SchedulePeriod {
	p.planningTemplateID = id
	return p
}

// Publish moves the period to PUBLISHED. Publishing a PUBLISHED period is a
// no-op success that must not restamp publishedAt; publishing a LOCKED
// period is rejected. The changed result tells the caller whether a publish
// event has to be recorded.
func (p SchedulePeriod) Publish(by uuid.UUID, at time.Time, notes string) (SchedulePeriod, bool, error) {
	switch p.status {
	case StatusLocked:
		return p, false, ErrLocked
	case StatusPublished:
		return p, false, nil
	}
	p.status = StatusPublished
	p.publishedBy = &by
	p.publishedAt = &at
	p.publishNotes = strings.TrimSpace(notes)
	return p, true, nil
}

// Lock moves the period to LOCKED from either DRAFT or PUBLISHED. Locking a
// LOCKED period is a no-op success that keeps the original lockedAt.
func (p SchedulePeriod) Lock(by uuid.UUID, at time.Time) (SchedulePeriod, bool, error) {
	if p.status == StatusLocked {
		return p, false, nil
	}
	p.status = StatusLocked
	p.lockedBy = &by
	p.lockedAt = &at
	return p, true, nil
}

// Covers reports whether day falls inside the inclusive [startDate, endDate]
// range, compared at date precision.
func (p SchedulePeriod) Covers(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	return !d.Before(p.startDate.Truncate(24*time.Hour)) && !d.After(p.endDate.Truncate(24*time.Hour))
}

// PublishEvent is the immutable audit record written on a period's first
// publish. A period accrues exactly one.
type PublishEvent struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	PeriodID    uuid.UUID
	PublishedBy uuid.UUID
	PublishedAt time.Time
	Notes       string
}

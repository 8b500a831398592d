package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

type SchedulePeriodService struct {
	repo      period.Repository
	publisher eventbus.EventBus
}

func NewSchedulePeriodService(repo period.Repository, publisher eventbus.EventBus) *SchedulePeriodService {
	return &SchedulePeriodService{
		repo:      repo,
		publisher: publisher,
	}
}

type CreatePeriodInput struct {
	PropertyID         uuid.UUID
	StartDate          time.Time
	EndDate            time.Time
	Name               string
	PlanningTemplateID *uuid.UUID
}

func (s *SchedulePeriodService) Create(ctx context.Context, input CreatePeriodInput) (period.SchedulePeriod, error) {
	if err := authorizeScheduling(ctx, permissions.PeriodsManage); err != nil {
		return period.SchedulePeriod{}, err
	}
	if input.PropertyID == uuid.Nil {
		return period.SchedulePeriod{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "propertyId is required", nil)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return period.SchedulePeriod{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "startDate and endDate are required", nil)
	}
	if err := ensurePropertyAccess(ctx, input.PropertyID); err != nil {
		return period.SchedulePeriod{}, err
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (period.SchedulePeriod, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return period.SchedulePeriod{}, err
		}

		p, err := period.New(tenantID, input.PropertyID, input.StartDate, input.EndDate, input.Name, actorID(txCtx))
		if err != nil {
			if errors.Is(err, period.ErrDateOrder) {
				return period.SchedulePeriod{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "startDate must be before endDate", err)
			}
			return period.SchedulePeriod{}, err
		}
		if input.PlanningTemplateID != nil {
			p = p.WithPlanningTemplateID(input.PlanningTemplateID)
		}

		created, err := s.repo.Create(txCtx, p)
		if err != nil {
			return period.SchedulePeriod{}, mapPgError(err)
		}
		return created, nil
	})
}

// Publish moves a DRAFT period to PUBLISHED and records the one immutable
// publish event. Replaying publish on a PUBLISHED period returns the stored
// state untouched; a LOCKED period rejects the call.
func (s *SchedulePeriodService) Publish(ctx context.Context, periodID uuid.UUID, notes string) (period.SchedulePeriod, error) {
	if err := authorizeScheduling(ctx, permissions.PeriodsManage); err != nil {
		return period.SchedulePeriod{}, err
	}

	var published bool
	result, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (period.SchedulePeriod, error) {
		current, err := s.repo.GetByIDForUpdate(txCtx, periodID)
		if err != nil {
			if errors.Is(err, period.ErrNotFound) {
				return period.SchedulePeriod{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "schedule period not found", err)
			}
			return period.SchedulePeriod{}, mapPgError(err)
		}
		if err := ensurePropertyAccess(txCtx, current.PropertyID()); err != nil {
			return period.SchedulePeriod{}, err
		}

		next, changed, err := current.Publish(actorID(txCtx), time.Now(), notes)
		if err != nil {
			return period.SchedulePeriod{}, newServiceError(http.StatusBadRequest, "SCHED_LOCKED", "schedule period is locked", err)
		}
		if !changed {
			return next, nil
		}

		if err := s.repo.Update(txCtx, next); err != nil {
			return period.SchedulePeriod{}, mapPgError(err)
		}
		event := period.PublishEvent{
			ID:          uuid.New(),
			TenantID:    next.TenantID(),
			PeriodID:    next.ID(),
			PublishedBy: *next.PublishedBy(),
			PublishedAt: *next.PublishedAt(),
			Notes:       next.PublishNotes(),
		}
		if err := s.repo.CreatePublishEvent(txCtx, event); err != nil {
			return period.SchedulePeriod{}, mapPgError(err)
		}
		published = true
		return next, nil
	})
	if err != nil {
		return period.SchedulePeriod{}, err
	}
	if published {
		recordPeriodTransition("publish")
		s.publisher.Publish(period.NewPublishedEvent(result))
	}
	return result, nil
}

// Lock finalizes a period from DRAFT or PUBLISHED. Locking a LOCKED period
// is a no-op success that keeps the original stamp.
func (s *SchedulePeriodService) Lock(ctx context.Context, periodID uuid.UUID) (period.SchedulePeriod, error) {
	if err := authorizeScheduling(ctx, permissions.PeriodsManage); err != nil {
		return period.SchedulePeriod{}, err
	}

	var locked bool
	result, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (period.SchedulePeriod, error) {
		current, err := s.repo.GetByIDForUpdate(txCtx, periodID)
		if err != nil {
			if errors.Is(err, period.ErrNotFound) {
				return period.SchedulePeriod{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "schedule period not found", err)
			}
			return period.SchedulePeriod{}, mapPgError(err)
		}
		if err := ensurePropertyAccess(txCtx, current.PropertyID()); err != nil {
			return period.SchedulePeriod{}, err
		}

		next, changed, err := current.Lock(actorID(txCtx), time.Now())
		if err != nil {
			return period.SchedulePeriod{}, err
		}
		if !changed {
			return next, nil
		}

		if err := s.repo.Update(txCtx, next); err != nil {
			return period.SchedulePeriod{}, mapPgError(err)
		}
		locked = true
		return next, nil
	})
	if err != nil {
		return period.SchedulePeriod{}, err
	}
	if locked {
		recordPeriodTransition("lock")
		s.publisher.Publish(period.NewLockedEvent(result))
	}
	return result, nil
}

// List returns the tenant's periods for one property, optionally narrowed to
// those overlapping a date window. A property belonging to another tenant
// simply yields nothing.
func (s *SchedulePeriodService) List(ctx context.Context, filter period.ListFilter) ([]period.SchedulePeriod, error) {
	if err := authorizeScheduling(ctx, permissions.PeriodsRead); err != nil {
		return nil, err
	}
	if filter.PropertyID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHED_INVALID_QUERY", "propertyId is required", nil)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]period.SchedulePeriod, error) {
		periods, err := s.repo.List(txCtx, filter)
		if err != nil {
			return nil, mapPgError(err)
		}
		return periods, nil
	})
}

func (s *SchedulePeriodService) ListPublishEvents(ctx context.Context, periodID uuid.UUID) ([]period.PublishEvent, error) {
	if err := authorizeScheduling(ctx, permissions.PeriodsRead); err != nil {
		return nil, err
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]period.PublishEvent, error) {
		if _, err := s.repo.GetByID(txCtx, periodID); err != nil {
			if errors.Is(err, period.ErrNotFound) {
				return nil, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "schedule period not found", err)
			}
			return nil, mapPgError(err)
		}
		events, err := s.repo.ListPublishEvents(txCtx, periodID)
		if err != nil {
			return nil, mapPgError(err)
		}
		return events, nil
	})
}

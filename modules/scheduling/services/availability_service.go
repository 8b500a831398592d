package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/entities/availability"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

type AvailabilityService struct {
	repo availability.Repository
}

func NewAvailabilityService(repo availability.Repository) *AvailabilityService {
	return &AvailabilityService{repo: repo}
}

type ListAvailabilityInput struct {
	PropertyID uuid.UUID
	EmployeeID *uuid.UUID
	Start      *time.Time
	End        *time.Time
}

// List scopes to the caller's own entries unless they may manage anyone's.
// An employee asking for somebody else's calendar is refused, not emptied.
func (s *AvailabilityService) List(ctx context.Context, input ListAvailabilityInput) ([]availability.Entry, error) {
	if err := authorizeScheduling(ctx, permissions.AvailabilityManageOwn); err != nil {
		return nil, err
	}
	if input.PropertyID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHED_INVALID_QUERY", "propertyId is required", nil)
	}

	filter := availability.ListFilter{
		PropertyID: input.PropertyID,
		EmployeeID: input.EmployeeID,
		Start:      input.Start,
		End:        input.End,
	}
	if authorizeScheduling(ctx, permissions.AvailabilityManageAny) != nil {
		ownID, err := currentEmployeeID(ctx)
		if err != nil {
			return nil, err
		}
		if input.EmployeeID != nil && *input.EmployeeID != ownID {
			return nil, newServiceError(http.StatusForbidden, "SCHED_FORBIDDEN", "no permission to view other employees' availability", nil)
		}
		filter.EmployeeID = &ownID
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]availability.Entry, error) {
		entries, err := s.repo.List(txCtx, filter)
		if err != nil {
			return nil, mapPgError(err)
		}
		return entries, nil
	})
}

type CreateAvailabilityInput struct {
	PropertyID     uuid.UUID
	EmployeeID     uuid.UUID
	Day            time.Time
	StartTime      string
	EndTime        string
	Kind           string
	RecurrenceRule string
}

// Create records one availability entry. EmployeeID defaults to the caller;
// writing for another employee needs the manage-any scope. RecurrenceRule is
// persisted verbatim.
func (s *AvailabilityService) Create(ctx context.Context, input CreateAvailabilityInput) (availability.Entry, error) {
	if err := authorizeScheduling(ctx, permissions.AvailabilityManageOwn); err != nil {
		return availability.Entry{}, err
	}
	if input.PropertyID == uuid.Nil || input.Day.IsZero() {
		return availability.Entry{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "propertyId and date are required", nil)
	}

	employeeID := input.EmployeeID
	if employeeID == uuid.Nil {
		ownID, err := currentEmployeeID(ctx)
		if err != nil {
			return availability.Entry{}, err
		}
		employeeID = ownID
	} else if employeeID != optionalEmployeeID(ctx) {
		if err := authorizeScheduling(ctx, permissions.AvailabilityManageAny); err != nil {
			return availability.Entry{}, newServiceError(http.StatusForbidden, "SCHED_FORBIDDEN", "no permission to manage other employees' availability", nil)
		}
	}

	kind, err := availability.ParseKind(input.Kind)
	if err != nil {
		return availability.Entry{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "type must be one of AVAILABLE, UNAVAILABLE, PREFERRED", err)
	}
	if err := availability.ValidateTimeRange(input.StartTime, input.EndTime); err != nil {
		if errors.Is(err, availability.ErrTimeOrder) {
			return availability.Entry{}, newServiceError(http.StatusBadRequest, "SCHED_TIME_ORDER", "startTime must be before endTime", err)
		}
		return availability.Entry{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_BODY", "time must be in HH:MM format", err)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (availability.Entry, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return availability.Entry{}, err
		}
		exists, err := s.repo.EmployeeExists(txCtx, employeeID)
		if err != nil {
			return availability.Entry{}, mapPgError(err)
		}
		if !exists {
			return availability.Entry{}, newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "employee not found", availability.ErrEmployeeNotFound)
		}

		created, err := s.repo.Create(txCtx, availability.Entry{
			ID:             uuid.New(),
			TenantID:       tenantID,
			PropertyID:     input.PropertyID,
			EmployeeID:     employeeID,
			Day:            input.Day,
			StartTime:      input.StartTime,
			EndTime:        input.EndTime,
			Kind:           kind,
			RecurrenceRule: input.RecurrenceRule,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			return availability.Entry{}, mapPgError(err)
		}
		return created, nil
	})
}

// Delete removes one entry. Owners may delete their own; anyone else needs
// the manage-any scope.
func (s *AvailabilityService) Delete(ctx context.Context, entryID uuid.UUID) error {
	if err := authorizeScheduling(ctx, permissions.AvailabilityManageOwn); err != nil {
		return err
	}

	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		entry, err := s.repo.GetByID(txCtx, entryID)
		if err != nil {
			if errors.Is(err, availability.ErrNotFound) {
				return newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "availability entry not found", err)
			}
			return mapPgError(err)
		}

		if entry.EmployeeID != optionalEmployeeID(txCtx) {
			if err := authorizeScheduling(txCtx, permissions.AvailabilityManageAny); err != nil {
				return newServiceError(http.StatusForbidden, "SCHED_FORBIDDEN", "no permission to manage other employees' availability", nil)
			}
		}

		if err := s.repo.Delete(txCtx, entry.ID); err != nil {
			if errors.Is(err, availability.ErrNotFound) {
				return newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "availability entry not found", err)
			}
			return mapPgError(err)
		}
		return nil
	})
}

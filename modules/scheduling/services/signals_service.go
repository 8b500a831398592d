package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/shift"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/swap"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

// Signals are the dashboard counts for one property: pending swap requests,
// open and unassigned shifts within the period covering today, and that
// period's status. Without a covering period the status is "NONE" and the
// shift counts are zero; pending swaps are counted regardless.
type Signals struct {
	PendingSwapRequests int
	OpenShifts          int
	UnassignedShifts    int
	CurrentPeriodStatus string
}

type SignalsService struct {
	periods period.Repository
	shifts  shift.Repository
	swaps   swap.Repository
}

func NewSignalsService(periods period.Repository, shifts shift.Repository, swaps swap.Repository) *SignalsService {
	return &SignalsService{periods: periods, shifts: shifts, swaps: swaps}
}

func (s *SignalsService) Get(ctx context.Context, propertyID uuid.UUID) (Signals, error) {
	if err := authorizeScheduling(ctx, permissions.SignalsRead); err != nil {
		return Signals{}, err
	}
	if propertyID == uuid.Nil {
		return Signals{}, newServiceError(http.StatusBadRequest, "SCHED_INVALID_QUERY", "propertyId is required", nil)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (Signals, error) {
		out := Signals{CurrentPeriodStatus: "NONE"}

		pending, err := s.swaps.CountPending(txCtx, propertyID)
		if err != nil {
			return Signals{}, mapPgError(err)
		}
		out.PendingSwapRequests = pending

		current, err := s.periods.FindCovering(txCtx, propertyID, time.Now())
		if err != nil {
			if errors.Is(err, period.ErrNotFound) {
				return out, nil
			}
			return Signals{}, mapPgError(err)
		}
		out.CurrentPeriodStatus = string(current.Status())

		// Period dates are inclusive; shift intervals compare half-open.
		windowStart := current.StartDate()
		windowEnd := current.EndDate().AddDate(0, 0, 1)

		if out.OpenShifts, err = s.shifts.CountOpen(txCtx, propertyID, windowStart, windowEnd); err != nil {
			return Signals{}, mapPgError(err)
		}
		if out.UnassignedShifts, err = s.shifts.CountUnassigned(txCtx, propertyID, windowStart, windowEnd); err != nil {
			return Signals{}, mapPgError(err)
		}
		return out, nil
	})
}

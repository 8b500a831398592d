package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ServiceError is the unit of failure for every scheduling operation: one
// HTTP status, a stable code, and a message callers can match on. Operations
// either fully apply or return exactly one of these.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func mapPgError(err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return mapPgErrorToServiceError(err)
}

func mapPgErrorToServiceError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "SCHED_NOT_FOUND", "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		recordWriteConflict("unique")
		switch pgErr.ConstraintName {
		case "shift_assignments_plan_employee_key":
			return newServiceError(http.StatusConflict, "SCHED_DUPLICATE_ASSIGNMENT", "employee is already assigned to shift", err)
		case "schedule_publish_events_period_id_key":
			return newServiceError(http.StatusConflict, "SCHED_ALREADY_PUBLISHED", "publish event already recorded for period", err)
		default:
			return newServiceError(http.StatusConflict, "SCHED_CONFLICT", "unique constraint violated", err)
		}
	case "23P01": // exclusion_violation
		recordWriteConflict("overlap")
		return newServiceError(http.StatusConflict, "SCHED_OVERLAP", "time window overlap", err)
	case "23503": // foreign_key_violation
		recordWriteConflict("foreign_key")
		return newServiceError(http.StatusUnprocessableEntity, "SCHED_REFERENCE_NOT_FOUND", "referenced record not found", err)
	default:
		return newServiceError(http.StatusInternalServerError, "SCHED_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}

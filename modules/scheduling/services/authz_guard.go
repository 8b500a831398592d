package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var authorizeSchedulingFn = defaultAuthorizeScheduling

func authorizeScheduling(ctx context.Context, scope string) error {
	return authorizeSchedulingFn(ctx, scope)
}

// defaultAuthorizeScheduling checks the caller's role against the module
// grant table. Contexts without a user (seeds, internal jobs) pass through;
// HTTP callers always carry one by the time a service runs.
func defaultAuthorizeScheduling(ctx context.Context, scope string) error {
	currentUser, err := composables.UseUser(ctx)
	if err != nil {
		if errors.Is(err, composables.ErrNoUserFound) {
			return nil
		}
		return err
	}

	if !permissions.Allows(currentUser.Role(), scope) {
		return newServiceError(http.StatusForbidden, "SCHED_FORBIDDEN", "insufficient permissions", composables.ErrForbidden)
	}
	return nil
}

// currentEmployeeID resolves the employee record bound to the calling user.
// Operations that act on "my shifts" or "my availability" require it.
func currentEmployeeID(ctx context.Context) (uuid.UUID, error) {
	currentUser, err := composables.UseUser(ctx)
	if err != nil {
		if errors.Is(err, composables.ErrNoUserFound) {
			return uuid.Nil, newServiceError(http.StatusForbidden, "SCHED_NO_EMPLOYEE", "caller is not linked to an employee record", err)
		}
		return uuid.Nil, err
	}
	if currentUser.EmployeeID() == uuid.Nil {
		return uuid.Nil, newServiceError(http.StatusForbidden, "SCHED_NO_EMPLOYEE", "caller is not linked to an employee record", nil)
	}
	return currentUser.EmployeeID(), nil
}

// optionalEmployeeID is currentEmployeeID without the failure mode, for read
// paths that fall back to unfiltered results when the caller is not an
// employee.
func optionalEmployeeID(ctx context.Context) uuid.UUID {
	currentUser, err := composables.UseUser(ctx)
	if err != nil {
		return uuid.Nil
	}
	return currentUser.EmployeeID()
}

// ensurePropertyAccess rejects property-scoped accounts acting outside their
// assigned properties. Contexts without a user pass, tenant isolation still
// applies to them.
func ensurePropertyAccess(ctx context.Context, propertyID uuid.UUID) error {
	currentUser, err := composables.UseUser(ctx)
	if err != nil {
		if errors.Is(err, composables.ErrNoUserFound) {
			return nil
		}
		return err
	}
	if currentUser.CanAccessProperty(propertyID) {
		return nil
	}
	return newServiceError(http.StatusForbidden, "SCHED_FORBIDDEN", "no access to this property", nil)
}

func actorID(ctx context.Context) uuid.UUID {
	currentUser, err := composables.UseUser(ctx)
	if err != nil {
		return uuid.Nil
	}
	return currentUser.ID()
}

package services

import (
	"context"
	"errors"

	"github.com/lodgecrew/lodgecrew/modules/hrm/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var authorizeHRMFn = defaultAuthorizeHRM

func authorizeHRM(ctx context.Context, scope string) error {
	return authorizeHRMFn(ctx, scope)
}

// defaultAuthorizeHRM checks the caller's role against the module grant
// table. Contexts without a user (seeds, internal jobs) pass through; HTTP
// callers always carry one by the time a service runs.
func defaultAuthorizeHRM(ctx context.Context, scope string) error {
	currentUser, err := composables.UseUser(ctx)
	if err != nil {
		if errors.Is(err, composables.ErrNoUserFound) {
			return nil
		}
		return err
	}

	if !permissions.Allows(currentUser.Role(), scope) {
		return composables.ErrForbidden
	}
	return nil
}

package services

import (
	"context"
	"errors"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/serrors"
)

var authorizeLoggingFn = defaultAuthorizeLogging

func authorizeLogging(ctx context.Context) error {
	return authorizeLoggingFn(ctx)
}

// defaultAuthorizeLogging restricts the audit trail to administrators.
// Contexts without a user (internal jobs) pass through.
func defaultAuthorizeLogging(ctx context.Context) error {
	currentUser, err := composables.UseUser(ctx)
	if err != nil {
		if errors.Is(err, composables.ErrNoUserFound) {
			return nil
		}
		return err
	}

	switch currentUser.Role() {
	case user.RoleSystemAdmin, user.RoleTenantAdmin:
		return nil
	}
	return serrors.NewError("AUTHZ_FORBIDDEN", "insufficient permissions", "Logging.ViewDenied")
}

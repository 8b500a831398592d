package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/serrors"
)

func guardCtx(role user.Role) context.Context {
	u := user.New(uuid.New(), "auditor@example.com", role)
	return composables.WithUser(context.Background(), u)
}

func TestAuthorizeLogging_AllowsAdmins(t *testing.T) {
	require.NoError(t, authorizeLogging(guardCtx(user.RoleSystemAdmin)))
	require.NoError(t, authorizeLogging(guardCtx(user.RoleTenantAdmin)))
}

func TestAuthorizeLogging_DeniesNonAdmins(t *testing.T) {
	for _, role := range []user.Role{user.RolePropertyManager, user.RoleScheduler, user.RoleEmployee} {
		err := authorizeLogging(guardCtx(role))
		require.Error(t, err, "role %s must not view logs", role)

		var serr *serrors.BaseError
		require.True(t, errors.As(err, &serr))
		require.Equal(t, "AUTHZ_FORBIDDEN", serr.Code)
	}
}

func TestAuthorizeLogging_PassesWithoutUser(t *testing.T) {
	// Internal writers (session subscriber, request middleware) run without a
	// user in context.
	require.NoError(t, authorizeLogging(context.Background()))
}

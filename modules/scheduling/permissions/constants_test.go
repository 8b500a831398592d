package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
)

func TestAllows(t *testing.T) {
	// Admin roles hold every scope.
	for _, role := range []user.Role{user.RoleSystemAdmin, user.RoleTenantAdmin} {
		for _, scope := range []string{
			PeriodsManage, PeriodsRead, ShiftsManage, ShiftsRead,
			SwapsRequest, SwapsDecide, AvailabilityManageOwn, AvailabilityManageAny,
			SignalsRead,
		} {
			require.True(t, Allows(role, scope), "%s should allow %s", role, scope)
		}
	}

	// Employees read and act on their own behalf; they never plan or decide.
	require.True(t, Allows(user.RoleEmployee, PeriodsRead))
	require.True(t, Allows(user.RoleEmployee, SwapsRequest))
	require.True(t, Allows(user.RoleEmployee, AvailabilityManageOwn))
	require.False(t, Allows(user.RoleEmployee, PeriodsManage))
	require.False(t, Allows(user.RoleEmployee, ShiftsManage))
	require.False(t, Allows(user.RoleEmployee, SwapsDecide))
	require.False(t, Allows(user.RoleEmployee, AvailabilityManageAny))

	// Managers decide swaps but do not request them, nothing is inherited.
	require.True(t, Allows(user.RolePropertyManager, SwapsDecide))
	require.False(t, Allows(user.RolePropertyManager, SwapsRequest))

	// Schedulers plan; the swap workflow belongs to employees and managers.
	require.True(t, Allows(user.RoleScheduler, PeriodsManage))
	require.True(t, Allows(user.RoleScheduler, AvailabilityManageAny))
	require.False(t, Allows(user.RoleScheduler, SwapsRequest))
	require.False(t, Allows(user.RoleScheduler, SwapsDecide))
}

func TestAllowsUnknownRole(t *testing.T) {
	require.False(t, Allows(user.Role("CONTRACTOR"), PeriodsRead))
	require.False(t, Allows(user.Role(""), SignalsRead))
}

func TestManageAnyImpliesPairingWithManageOwn(t *testing.T) {
	// Every role granted manage_any also holds manage_own; the service layer
	// checks them in that order.
	for role, scopes := range RolePermissions {
		hasAny, hasOwn := false, false
		for _, s := range scopes {
			switch s {
			case AvailabilityManageAny:
				hasAny = true
			case AvailabilityManageOwn:
				hasOwn = true
			}
		}
		if hasAny {
			require.True(t, hasOwn, "%s grants manage_any without manage_own", role)
		}
	}
}

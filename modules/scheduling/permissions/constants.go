package permissions

import "github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"

const (
	PeriodsManage         = "scheduling.periods.manage"
	PeriodsRead           = "scheduling.periods.read"
	ShiftsManage          = "scheduling.shifts.manage"
	ShiftsRead            = "scheduling.shifts.read"
	SwapsRequest          = "scheduling.swaps.request"
	SwapsDecide           = "scheduling.swaps.decide"
	AvailabilityManageOwn = "scheduling.availability.manage_own"
	AvailabilityManageAny = "scheduling.availability.manage_any"
	SignalsRead           = "scheduling.signals.read"
)

// RolePermissions is the full grant table for this module. Authorization is a
// set-membership check, nothing is inherited between roles: a manager who
// should also request swaps needs the scope granted here.
var RolePermissions = map[user.Role][]string{
	user.RoleSystemAdmin: {
		PeriodsManage, PeriodsRead, ShiftsManage, ShiftsRead,
		SwapsRequest, SwapsDecide, AvailabilityManageOwn, AvailabilityManageAny,
		SignalsRead,
	},
	user.RoleTenantAdmin: {
		PeriodsManage, PeriodsRead, ShiftsManage, ShiftsRead,
		SwapsRequest, SwapsDecide, AvailabilityManageOwn, AvailabilityManageAny,
		SignalsRead,
	},
	user.RolePropertyManager: {
		PeriodsManage, PeriodsRead, ShiftsManage, ShiftsRead,
		SwapsDecide, AvailabilityManageOwn, AvailabilityManageAny,
		SignalsRead,
	},
	user.RoleScheduler: {
		PeriodsManage, PeriodsRead, ShiftsManage, ShiftsRead,
		AvailabilityManageAny, AvailabilityManageOwn, SignalsRead,
	},
	user.RoleEmployee: {
		PeriodsRead, ShiftsRead, SwapsRequest, AvailabilityManageOwn,
		SignalsRead,
	},
}

func Allows(role user.Role, scope string) bool {
	for _, granted := range RolePermissions[role] {
		if granted == scope {
			return true
		}
	}
	return false
}

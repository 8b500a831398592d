package permissions

import "github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"

const (
	EmployeesManage = "hrm.employees.manage"
	EmployeesRead   = "hrm.employees.read"
	JobRolesManage  = "hrm.jobroles.manage"
	JobRolesRead    = "hrm.jobroles.read"
)

// RolePermissions is the full grant table for this module. Authorization is a
// set-membership check, nothing is inherited between roles.
var RolePermissions = map[user.Role][]string{
	user.RoleSystemAdmin: {
		EmployeesManage, EmployeesRead, JobRolesManage, JobRolesRead,
	},
	user.RoleTenantAdmin: {
		EmployeesManage, EmployeesRead, JobRolesManage, JobRolesRead,
	},
	user.RolePropertyManager: {
		EmployeesManage, EmployeesRead, JobRolesRead,
	},
	user.RoleScheduler: {
		EmployeesRead, JobRolesRead,
	},
	user.RoleEmployee: {},
}

func Allows(role user.Role, scope string) bool {
	for _, granted := range RolePermissions[role] {
		if granted == scope {
			return true
		}
	}
	return false
}

package user

// Role is the closed set of platform roles. Permission scopes are resolved
// from the role by each module's permissions package.
type Role string

const (
	RoleSystemAdmin     Role = "SYSTEM_ADMIN"
	RoleTenantAdmin     Role = "TENANT_ADMIN"
	RolePropertyManager Role = "PROPERTY_MANAGER"
	RoleScheduler       Role = "SCHEDULER"
	RoleEmployee        Role = "EMPLOYEE"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSystemAdmin, RoleTenantAdmin, RolePropertyManager, RoleScheduler, RoleEmployee:
		return true
	}
	return false
}

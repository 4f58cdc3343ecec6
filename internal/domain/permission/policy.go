package permission

import "github.com/cmlabs-hris/academy-backend-go/internal/domain/user"

var (
	full     = CapabilitySet{CanView: true, CanAdd: true, CanEdit: true, CanDelete: true}
	viewOnly = CapabilitySet{CanView: true}
	viewAdd  = CapabilitySet{CanView: true, CanAdd: true}
	viewEdit = CapabilitySet{CanView: true, CanAdd: true, CanEdit: true}
)

// RoleDefaults returns the capability matrix a role has before any per-user
// override is applied. Modules absent from the map grant nothing.
func RoleDefaults(role user.Role) map[Module]CapabilitySet {
	defaults := make(map[Module]CapabilitySet)

	switch role {
	case user.RoleSuperAdmin:
		for _, m := range AllModules {
			defaults[m] = full
		}
	case user.RoleAdmin:
		for _, m := range AllModules {
			defaults[m] = full
		}
		// Admins review punches but do not punch for others
		defaults[ModuleEmployeePunches] = viewOnly
	case user.RoleFaculty:
		defaults[ModuleAttendance] = viewEdit
		defaults[ModuleSessions] = viewEdit
		defaults[ModuleBatches] = viewOnly
		defaults[ModuleStudents] = viewOnly
		defaults[ModuleSoftwareCompletions] = viewEdit
	case user.RoleStudent:
		defaults[ModuleSessions] = viewOnly
		defaults[ModuleAttendance] = viewOnly
		defaults[ModulePortfolios] = viewAdd
		defaults[ModuleStudentLeaves] = viewAdd
	case user.RoleEmployee:
		defaults[ModuleEmployeePunches] = viewEdit
	}

	return defaults
}

// Resolve merges per-user overrides over the role defaults. SuperAdmin
// overrides are ignored.
func Resolve(role user.Role, overrides []Permission) map[Module]CapabilitySet {
	resolved := RoleDefaults(role)
	if role == user.RoleSuperAdmin {
		return resolved
	}
	for _, o := range overrides {
		if !o.Module.IsValid() {
			continue
		}
		resolved[o.Module] = o.CapabilitySet
	}
	return resolved
}

// Allows reports whether the resolved matrix grants capability on module.
func Allows(resolved map[Module]CapabilitySet, module Module, capability Capability) bool {
	set, ok := resolved[module]
	if !ok {
		return false
	}
	return set.Has(capability)
}

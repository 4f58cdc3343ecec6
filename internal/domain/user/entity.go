package user

import "time"

type Role string

const (
	RoleSuperAdmin Role = "superadmin" // Full access, permissions are immutable
	RoleAdmin      Role = "admin"      // Back-office administration
	RoleFaculty    Role = "faculty"
	RoleStudent    Role = "student"
	RoleEmployee   Role = "employee" // Staff who punch in and out
)

// AllRoles lists every role known to the system.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleFaculty, RoleStudent, RoleEmployee}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Caller is the authenticated principal of a request, read from the access token.
type Caller struct {
	UserID string
	Role   Role
}

// IsSuperAdmin checks if the caller is a super admin
func (c Caller) IsSuperAdmin() bool {
	return c.Role == RoleSuperAdmin
}

// IsAdmin checks if the caller is an admin or super admin
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin || c.Role == RoleSuperAdmin
}

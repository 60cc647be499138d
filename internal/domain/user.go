package domain

import "time"

// Role enumerates account capability tiers. Admin is a support agent;
// SuperAdmin additionally holds cross-cutting override authority.
type Role string

const (
	RoleUser       Role = "User"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

// ParseRole validates a wire value against the role enumeration.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return Role(value), true
	}
	return "", false
}

// Elevated reports whether the role belongs to support staff. Elevated
// accounts cannot author tickets.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is both the identity record and the directory entry used for
// display-name snapshots.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the verified caller identity supplied by the auth layer.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// IsAgent reports whether the actor may be assigned tickets.
func (a Actor) IsAgent() bool {
	return a.Role.Elevated()
}

// IsSuperAdmin reports whether the actor holds override authority.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

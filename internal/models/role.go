package models

import "strings"

// Role is the position a membership holds inside its organization.
type Role string

const (
	// RoleOwner is held by exactly one active membership per organization.
	RoleOwner Role = "owner"
	// RoleAdmin is held by at most one active membership per organization.
	RoleAdmin Role = "admin"
	// RoleManager members supervise staff and report to the owner.
	RoleManager Role = "manager"
	// RoleStaff is the default rank-and-file role.
	RoleStaff Role = "staff"
)

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// CanManage reports whether memberships holding this role may appear as
// another membership's manager.
func (r Role) CanManage() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager:
		return true
	}
	return false
}

// ParseRole normalizes raw input into a Role. The boolean is false when the
// input is not a known role.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

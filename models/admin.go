package models

// IsStaffRole reports whether role may access support tooling.
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleSupport
}

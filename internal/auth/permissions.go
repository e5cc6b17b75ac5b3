package auth

import "slices"

// Role is an authorisation tier.
type Role string

// Roles.
const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Permission is a named capability.
type Permission string

// Permissions.
const (
	PermLocationsRead  Permission = "locations:read"
	PermLocationsWrite Permission = "locations:write"
	PermAuditRead      Permission = "audit:read"
)

var rolePermissions = map[Role][]Permission{
	RoleViewer:   {PermLocationsRead},
	RoleOperator: {PermLocationsRead, PermLocationsWrite},
	RoleAdmin:    {PermLocationsRead, PermLocationsWrite, PermAuditRead},
}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns a copy of the permissions granted to role.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}

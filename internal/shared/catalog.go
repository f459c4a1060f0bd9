package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"

	PermAuditView = "audit.view"
)

// CatalogEntry is a named role or permission created by the seed command.
type CatalogEntry struct {
	Name        string
	Description string
}

// CorePermissions lists the permissions every installation starts with.
func CorePermissions() []CatalogEntry {
	return []CatalogEntry{
		{PermUsersView, "View users"},
		{PermUsersEdit, "Manage users"},
		{PermRolesView, "View roles"},
		{PermRolesEdit, "Manage roles"},
		{PermPermissionsView, "View permissions"},
		{PermPermissionsEdit, "Manage permissions"},
		{PermAuditView, "View the audit trail"},
	}
}

// CoreRoles lists the default roles.
func CoreRoles() []CatalogEntry {
	return []CatalogEntry{
		{"admin", "Full access to identity management"},
		{"auditor", "Read-only access including the audit trail"},
		{"viewer", "Read-only access"},
	}
}

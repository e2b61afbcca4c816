package rbac

import "time"

// Permission represents an atomic named capability such as "pets.view".
// Permissions are never created implicitly; role operations only reference
// records that already exist.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Role represents a named, reusable bundle of permissions.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleWithPermissions is a role eager-expanded with its permission names.
type RoleWithPermissions struct {
	Role
	Permissions []string
}

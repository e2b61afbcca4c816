package rbac

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrDuplicateName indicates a uniqueness violation on a permission or role name.
	ErrDuplicateName = errors.New("rbac: duplicate name")
	// ErrEmptyName indicates a blank permission or role name.
	ErrEmptyName = errors.New("rbac: name required")
)

// UnknownPermissionsError reports submitted permission names that do not
// resolve to existing records. The whole operation is rejected.
type UnknownPermissionsError struct {
	Names []string
}

func (e *UnknownPermissionsError) Error() string {
	return fmt.Sprintf("rbac: unknown permissions: %s", strings.Join(e.Names, ", "))
}

// UnknownRolesError reports submitted role names that do not resolve to
// existing records.
type UnknownRolesError struct {
	Names []string
}

func (e *UnknownRolesError) Error() string {
	return fmt.Sprintf("rbac: unknown roles: %s", strings.Join(e.Names, ", "))
}

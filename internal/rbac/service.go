package rbac

import (
	"context"
	"slices"
	"strings"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

// DefaultSuperRole is the conventional bypass role name. A user holding this
// role satisfies every permission check. Override via RBAC_SUPER_ROLE.
const DefaultSuperRole = "admin"

// Service orchestrates permission, role and assignment operations and
// answers authorization queries.
type Service struct {
	repo      Repository
	superRole string
}

// NewService constructs a Service. superRole may be empty to use the default.
func NewService(repo Repository, superRole string) *Service {
	if superRole == "" {
		superRole = DefaultSuperRole
	}
	return &Service{repo: repo, superRole: superRole}
}

// SuperRole returns the configured bypass role name.
func (s *Service) SuperRole() string {
	return s.superRole
}

// CreatePermission inserts a new permission. Fails with ErrDuplicateName if
// the name is already taken.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, ErrEmptyName
	}
	return s.repo.CreatePermission(ctx, name, strings.TrimSpace(description))
}

// EnsurePermission creates the permission if absent. Safe to call repeatedly.
func (s *Service) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, ErrEmptyName
	}
	return s.repo.EnsurePermission(ctx, name, strings.TrimSpace(description))
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GetPermission fetches a permission by ID.
func (s *Service) GetPermission(ctx context.Context, id int64) (Permission, error) {
	return s.repo.GetPermission(ctx, id)
}

// RenamePermission updates a permission name. Fails with ErrNotFound or
// ErrDuplicateName.
func (s *Service) RenamePermission(ctx context.Context, id int64, name string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, ErrEmptyName
	}
	return s.repo.RenamePermission(ctx, id, name)
}

// DeletePermission removes a permission and cascades it out of every role
// that references it.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	return s.repo.DeletePermission(ctx, id)
}

// CreateRole creates a role with its initial permission set atomically.
// Every submitted permission name must resolve to an existing record;
// otherwise nothing is created and the offending names are reported.
// An empty permission set is allowed at this layer; requiring at least one
// permission is a form-level rule, not a store invariant.
func (s *Service) CreateRole(ctx context.Context, name, description string, permissionNames []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, ErrEmptyName
	}
	permIDs, err := s.resolvePermissions(ctx, permissionNames)
	if err != nil {
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description), permIDs)
}

// ListRoles returns all roles, optionally expanded with permission names.
func (s *Service) ListRoles(ctx context.Context, withPermissions bool) ([]RoleWithPermissions, error) {
	if withPermissions {
		return s.repo.ListRolesWithPermissions(ctx)
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleWithPermissions, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleWithPermissions{Role: role})
	}
	return out, nil
}

// GetRole fetches a role with its permission names.
func (s *Service) GetRole(ctx context.Context, id int64) (RoleWithPermissions, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	perms, err := s.repo.GetRolePermissionNames(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	return RoleWithPermissions{Role: role, Permissions: perms}, nil
}

// UpdateRole renames a role and replaces its permission set. The submitted
// names are the complete desired state: resubmitting the same list leaves
// the link set unchanged.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string, permissionNames []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	permIDs, err := s.resolvePermissions(ctx, permissionNames)
	if err != nil {
		return err
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description), permIDs)
}

// DeleteRole removes a role. Users keep their accounts but lose whatever
// capabilities the role granted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// AssignRoles replaces a user's role set. Every submitted role name must
// resolve; otherwise no links change.
func (s *Service) AssignRoles(ctx context.Context, userID int64, roleNames []string) error {
	roleIDs, err := s.resolveRoles(ctx, roleNames)
	if err != nil {
		return err
	}
	return s.repo.ReplaceUserRoles(ctx, userID, roleIDs)
}

// VerifyRoleNames checks that every submitted role name resolves to an
// existing role. Nothing is written; callers use this to validate before
// persisting their own records.
func (s *Service) VerifyRoleNames(ctx context.Context, roleNames []string) error {
	_, err := s.resolveRoles(ctx, roleNames)
	return err
}

// EffectivePermissions returns the deduplicated union of permission names
// across the user's roles plus any direct grants. This is the single source
// of truth for authorization decisions.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.EffectivePermissions(ctx, userID)
}

// EffectiveRoles returns the user's role names.
func (s *Service) EffectiveRoles(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.EffectiveRoles(ctx, userID)
}

// Authorize reports whether the user may perform the requested capability.
// Holding the configured super role grants unconditionally; otherwise the
// capability must be a member of the user's effective permission set.
// Pure read, safe to call concurrently.
func (s *Service) Authorize(ctx context.Context, userID int64, cap shared.Capability) (bool, error) {
	roles, err := s.repo.EffectiveRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	if slices.Contains(roles, s.superRole) {
		return true, nil
	}
	perms, err := s.repo.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(perms, cap.String()), nil
}

// AuthPayload assembles the per-request authorization payload delivered to
// the presentation layer. Both the server-side gate and the rendered page
// derive from this one computation.
func (s *Service) AuthPayload(ctx context.Context, userID int64) (*shared.AuthPayload, error) {
	roles, err := s.repo.EffectiveRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &shared.AuthPayload{
		UserID:      userID,
		Roles:       roles,
		Permissions: perms,
		SuperRole:   s.superRole,
	}, nil
}

func (s *Service) resolveRoles(ctx context.Context, names []string) ([]int64, error) {
	names = dedupe(names)
	resolved, err := s.repo.ResolveRoleNames(ctx, names)
	if err != nil {
		return nil, err
	}
	var missing []string
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := resolved[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return nil, &UnknownRolesError{Names: missing}
	}
	return ids, nil
}

func (s *Service) resolvePermissions(ctx context.Context, names []string) ([]int64, error) {
	names = dedupe(names)
	resolved, err := s.repo.ResolvePermissionNames(ctx, names)
	if err != nil {
		return nil, err
	}
	var missing []string
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := resolved[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return nil, &UnknownPermissionsError{Names: missing}
	}
	return ids, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fureverhealth/fureverhealth/internal/shared"
	_ "github.com/fureverhealth/fureverhealth/testing"
)

// memRepo is an in-memory Repository used to exercise service semantics
// without a database. Link replacement mirrors the SQL implementation:
// resolve, diff, apply.
type memRepo struct {
	nextID    int64
	perms     map[int64]Permission
	roles     map[int64]Role
	rolePerms map[int64][]int64 // role -> permission ids
	userRoles map[int64][]int64 // user -> role ids
	userPerms map[int64][]int64 // direct grants
}

func newMemRepo() *memRepo {
	return &memRepo{
		perms:     make(map[int64]Permission),
		roles:     make(map[int64]Role),
		rolePerms: make(map[int64][]int64),
		userRoles: make(map[int64][]int64),
		userPerms: make(map[int64][]int64),
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) permByName(name string) (Permission, bool) {
	for _, p := range m.perms {
		if p.Name == name {
			return p, true
		}
	}
	return Permission{}, false
}

func (m *memRepo) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	if _, exists := m.permByName(name); exists {
		return Permission{}, ErrDuplicateName
	}
	p := Permission{ID: m.id(), Name: name, Description: description}
	m.perms[p.ID] = p
	return p, nil
}

func (m *memRepo) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	if p, exists := m.permByName(name); exists {
		return p, nil
	}
	return m.CreatePermission(ctx, name, description)
}

func (m *memRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	return out, nil
}

func (m *memRepo) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, ErrNotFound
	}
	return p, nil
}

func (m *memRepo) RenamePermission(ctx context.Context, id int64, name string) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, ErrNotFound
	}
	if other, exists := m.permByName(name); exists && other.ID != id {
		return Permission{}, ErrDuplicateName
	}
	p.Name = name
	m.perms[id] = p
	return p, nil
}

func (m *memRepo) DeletePermission(ctx context.Context, id int64) error {
	if _, ok := m.perms[id]; !ok {
		return ErrNotFound
	}
	delete(m.perms, id)
	for roleID, ids := range m.rolePerms {
		m.rolePerms[roleID] = removeID(ids, id)
	}
	for userID, ids := range m.userPerms {
		m.userPerms[userID] = removeID(ids, id)
	}
	return nil
}

func (m *memRepo) ResolvePermissionNames(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, name := range names {
		if p, ok := m.permByName(name); ok {
			out[name] = p.ID
		}
	}
	return out, nil
}

func (m *memRepo) roleByName(name string) (Role, bool) {
	for _, r := range m.roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

func (m *memRepo) CreateRole(ctx context.Context, name, description string, permissionIDs []int64) (Role, error) {
	if _, exists := m.roleByName(name); exists {
		return Role{}, ErrDuplicateName
	}
	r := Role{ID: m.id(), Name: name, Description: description}
	m.roles[r.ID] = r
	m.rolePerms[r.ID] = append([]int64(nil), permissionIDs...)
	return r, nil
}

func (m *memRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRepo) ListRolesWithPermissions(ctx context.Context) ([]RoleWithPermissions, error) {
	out := make([]RoleWithPermissions, 0, len(m.roles))
	for _, r := range m.roles {
		names, _ := m.GetRolePermissionNames(ctx, r.ID)
		out = append(out, RoleWithPermissions{Role: r, Permissions: names})
	}
	return out, nil
}

func (m *memRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return r, nil
}

func (m *memRepo) GetRolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	var names []string
	for _, pid := range m.rolePerms[roleID] {
		if p, ok := m.perms[pid]; ok {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

func (m *memRepo) UpdateRole(ctx context.Context, id int64, name, description string, permissionIDs []int64) error {
	r, ok := m.roles[id]
	if !ok {
		return ErrNotFound
	}
	if other, exists := m.roleByName(name); exists && other.ID != id {
		return ErrDuplicateName
	}
	r.Name = name
	r.Description = description
	m.roles[id] = r
	add, remove := diffLinks(m.rolePerms[id], permissionIDs)
	links := m.rolePerms[id]
	for _, pid := range remove {
		links = removeID(links, pid)
	}
	links = append(links, add...)
	m.rolePerms[id] = links
	return nil
}

func (m *memRepo) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	delete(m.rolePerms, id)
	for userID, ids := range m.userRoles {
		m.userRoles[userID] = removeID(ids, id)
	}
	return nil
}

func (m *memRepo) ResolveRoleNames(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, name := range names {
		if r, ok := m.roleByName(name); ok {
			out[name] = r.ID
		}
	}
	return out, nil
}

func (m *memRepo) ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	add, remove := diffLinks(m.userRoles[userID], roleIDs)
	links := m.userRoles[userID]
	for _, rid := range remove {
		links = removeID(links, rid)
	}
	links = append(links, add...)
	m.userRoles[userID] = links
	return nil
}

func (m *memRepo) EffectiveRoles(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	for _, rid := range m.userRoles[userID] {
		if r, ok := m.roles[rid]; ok {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

func (m *memRepo) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	collect := func(pid int64) {
		p, ok := m.perms[pid]
		if !ok {
			return
		}
		if _, dup := seen[p.Name]; dup {
			return
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	for _, rid := range m.userRoles[userID] {
		for _, pid := range m.rolePerms[rid] {
			collect(pid)
		}
	}
	for _, pid := range m.userPerms[userID] {
		collect(pid)
	}
	return names, nil
}

func removeID(ids []int64, target int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return NewService(repo, ""), repo
}

func seedPermissions(t *testing.T, svc *Service, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := svc.CreatePermission(context.Background(), name, "")
		require.NoError(t, err)
	}
}

func TestCreatePermissionRejectsDuplicateAndEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "pets.view", "")
	require.NoError(t, err)

	_, err = svc.CreatePermission(ctx, "pets.view", "")
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = svc.CreatePermission(ctx, "  ", "")
	require.ErrorIs(t, err, ErrEmptyName)
}

func TestEnsurePermissionIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsurePermission(ctx, "pets.view", "See pets")
	require.NoError(t, err)
	second, err := svc.EnsurePermission(ctx, "pets.view", "See pets")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.perms, 1)
}

func TestCreateRoleRejectsUnknownPermissionsAtomically(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")

	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view", "ghost.one", "ghost.two"})

	var unknown *UnknownPermissionsError
	require.ErrorAs(t, err, &unknown)
	require.ElementsMatch(t, []string{"ghost.one", "ghost.two"}, unknown.Names)
	require.Empty(t, repo.roles, "no role row may exist after a rejected create")
}

func TestUpdateRoleReplacesPermissionSet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit", "staff.view")

	role, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view", "pets.edit"})
	require.NoError(t, err)

	// The submitted set is the complete desired state: pets.edit drops out,
	// staff.view comes in, pets.view stays.
	require.NoError(t, svc.UpdateRole(ctx, role.ID, "vet", "", []string{"pets.view", "staff.view"}))

	got, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"pets.view", "staff.view"}, got.Permissions)
}

func TestUpdateRoleIdenticalSetIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit")

	role, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view", "pets.edit"})
	require.NoError(t, err)

	before, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRole(ctx, role.ID, "vet", "", []string{"pets.edit", "pets.view"}))

	after, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, before.Permissions, after.Permissions)
}

func TestUpdateRoleDeduplicatesSubmittedNames(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")

	role, err := svc.CreateRole(ctx, "vet", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRole(ctx, role.ID, "vet", "", []string{"pets.view", "pets.view"}))
	require.Len(t, repo.rolePerms[role.ID], 1)
}

func TestAssignRolesReplaceSemantics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "staff.view")

	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, "reception", "", []string{"staff.view"})
	require.NoError(t, err)

	const userID = int64(7)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))
	roles, err := svc.EffectiveRoles(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []string{"vet"}, roles)

	// A new submission fully replaces the previous set.
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"reception"}))
	roles, err = svc.EffectiveRoles(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []string{"reception"}, roles)

	// Empty submission revokes everything.
	require.NoError(t, svc.AssignRoles(ctx, userID, nil))
	roles, err = svc.EffectiveRoles(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestAssignRolesRejectsUnknownNamesWithoutPartialChange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")
	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)

	const userID = int64(7)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))

	err = svc.AssignRoles(ctx, userID, []string{"vet", "ghost"})
	var unknown *UnknownRolesError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, []string{"ghost"}, unknown.Names)

	roles, err := svc.EffectiveRoles(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []string{"vet"}, roles, "a rejected submission must not touch the link set")
}

func TestVerifyRoleNamesWritesNothing(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")
	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)

	require.NoError(t, svc.VerifyRoleNames(ctx, []string{"vet", "vet"}))

	err = svc.VerifyRoleNames(ctx, []string{"vet", "ghost"})
	var unknown *UnknownRolesError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, []string{"ghost"}, unknown.Names)
	require.Empty(t, repo.userRoles, "verification must not create links")
}

func TestEffectivePermissionsUnionAcrossRoles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit", "staff.view")

	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view", "pets.edit"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, "reception", "", []string{"pets.view", "staff.view"})
	require.NoError(t, err)

	const userID = int64(3)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet", "reception"}))

	perms, err := svc.EffectivePermissions(ctx, userID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"pets.view", "pets.edit", "staff.view"}, perms,
		"overlapping grants must appear once")
}

func TestEffectivePermissionsIncludeDirectGrants(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "reports.export")

	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)

	const userID = int64(3)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))

	direct, _ := repo.permByName("reports.export")
	repo.userPerms[userID] = []int64{direct.ID}

	perms, err := svc.EffectivePermissions(ctx, userID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"pets.view", "reports.export"}, perms)
}

func TestDeletePermissionCascadesOutOfRoles(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit")

	role, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view", "pets.edit"})
	require.NoError(t, err)

	const userID = int64(3)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))

	doomed, _ := repo.permByName("pets.edit")
	require.NoError(t, svc.DeletePermission(ctx, doomed.ID))

	got, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"pets.view"}, got.Permissions)

	perms, err := svc.EffectivePermissions(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []string{"pets.view"}, perms)
}

func TestDeleteRoleRevokesDerivedPermissions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")

	role, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)

	const userID = int64(3)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))
	require.NoError(t, svc.DeleteRole(ctx, role.ID))

	perms, err := svc.EffectivePermissions(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, perms)
	require.Empty(t, repo.userRoles[userID])
}

func TestAuthorizeChecksEffectiveSet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")

	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)

	const userID = int64(3)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))

	allowed, err := svc.Authorize(ctx, userID, shared.CapPetsView)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Authorize(ctx, userID, shared.CapPetsDelete)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestAuthorizeSuperRoleBypassesEverything(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// The super role carries no permission links at all.
	_, err := svc.CreateRole(ctx, "admin", "", nil)
	require.NoError(t, err)

	const userID = int64(1)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"admin"}))

	for _, cap := range shared.AllCapabilities() {
		allowed, err := svc.Authorize(ctx, userID, cap)
		require.NoError(t, err)
		require.True(t, allowed, "super role must satisfy %s", cap)
	}
}

func TestConfigurableSuperRoleName(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, "clinic-owner")
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, "admin", "", nil)
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, "clinic-owner", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.AssignRoles(ctx, 1, []string{"admin"}))
	require.NoError(t, svc.AssignRoles(ctx, 2, []string{"clinic-owner"}))

	// With the bypass renamed, plain "admin" is an ordinary role.
	allowed, err := svc.Authorize(ctx, 1, shared.CapPetsView)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = svc.Authorize(ctx, 2, shared.CapPetsView)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAuthPayloadMirrorsAuthorize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit")

	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)

	const userID = int64(9)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))

	payload, err := svc.AuthPayload(ctx, userID)
	require.NoError(t, err)

	for _, cap := range []shared.Capability{shared.CapPetsView, shared.CapPetsEdit, shared.CapStaffView} {
		fromService, err := svc.Authorize(ctx, userID, cap)
		require.NoError(t, err)
		require.Equal(t, fromService, payload.Can(cap.String()),
			"payload and evaluator disagree on %s", cap)
	}
}

func TestRenamePermissionConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreatePermission(ctx, "pets.view", "")
	require.NoError(t, err)
	_, err = svc.CreatePermission(ctx, "pets.edit", "")
	require.NoError(t, err)

	_, err = svc.RenamePermission(ctx, a.ID, "pets.edit")
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = svc.RenamePermission(ctx, 999, "whatever")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRoleLifecycleEndToEnd(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit", "appointments.view")

	role, err := svc.CreateRole(ctx, "vet", "Clinical staff", []string{"pets.view"})
	require.NoError(t, err)

	const userID = int64(12)
	require.NoError(t, svc.AssignRoles(ctx, userID, []string{"vet"}))

	allowed, err := svc.Authorize(ctx, userID, shared.CapAppointmentsView)
	require.NoError(t, err)
	require.False(t, allowed)

	// Widening the role takes effect for the user immediately.
	require.NoError(t, svc.UpdateRole(ctx, role.ID, "vet", "Clinical staff",
		[]string{"pets.view", "pets.edit", "appointments.view"}))

	allowed, err = svc.Authorize(ctx, userID, shared.CapAppointmentsView)
	require.NoError(t, err)
	require.True(t, allowed)

	// Narrowing revokes just as immediately.
	require.NoError(t, svc.UpdateRole(ctx, role.ID, "vet", "Clinical staff", []string{"pets.view"}))

	allowed, err = svc.Authorize(ctx, userID, shared.CapPetsEdit)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestGetRoleNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetRole(context.Background(), 42)
	require.True(t, errors.Is(err, ErrNotFound))
}

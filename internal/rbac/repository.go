package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/platform/db"
)

// Repository defines persistence operations for the RBAC subsystem.
type Repository interface {
	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	EnsurePermission(ctx context.Context, name, description string) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	RenamePermission(ctx context.Context, id int64, name string) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	ResolvePermissionNames(ctx context.Context, names []string) (map[string]int64, error)

	CreateRole(ctx context.Context, name, description string, permissionIDs []int64) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListRolesWithPermissions(ctx context.Context) ([]RoleWithPermissions, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	GetRolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
	UpdateRole(ctx context.Context, id int64, name, description string, permissionIDs []int64) error
	DeleteRole(ctx context.Context, id int64) error
	ResolveRoleNames(ctx context.Context, names []string) (map[string]int64, error)

	ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error
	EffectiveRoles(ctx context.Context, userID int64) ([]string, error)
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

const uniqueViolation = "23505"

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// CreatePermission inserts a permission record.
func (r *PGRepository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	perm := Permission{Name: name, Description: description}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name, description) VALUES ($1, $2) RETURNING id`,
		name, description,
	).Scan(&perm.ID)
	if err != nil {
		return Permission{}, translateUnique(err)
	}
	return perm, nil
}

// EnsurePermission creates the permission if absent and returns the stored
// record either way. Used by seeding, which must be safe to re-run.
func (r *PGRepository) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO permissions (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, description,
	)
	if err != nil {
		return Permission{}, err
	}
	var perm Permission
	err = r.pool.QueryRow(ctx,
		`SELECT id, name, description FROM permissions WHERE name = $1`,
		name,
	).Scan(&perm.ID, &perm.Name, &perm.Description)
	if err != nil {
		return Permission{}, err
	}
	return perm, nil
}

// ListPermissions returns all permissions in insertion order.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetPermission fetches a permission by ID.
func (r *PGRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description FROM permissions WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

// RenamePermission updates a permission name.
func (r *PGRepository) RenamePermission(ctx context.Context, id int64, name string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`UPDATE permissions SET name = $2 WHERE id = $1 RETURNING id, name, description`,
		id, name,
	).Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, translateUnique(err)
	}
	return p, nil
}

// DeletePermission removes a permission. Role and direct user links are
// removed by the ON DELETE CASCADE constraints on the join tables.
func (r *PGRepository) DeletePermission(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolvePermissionNames maps permission names to IDs. Names without a
// matching record are simply absent from the result.
func (r *PGRepository) ResolvePermissionNames(ctx context.Context, names []string) (map[string]int64, error) {
	return r.resolveNames(ctx, `SELECT name, id FROM permissions WHERE name = ANY($1)`, names)
}

// CreateRole inserts a role and its permission links in one transaction.
func (r *PGRepository) CreateRole(ctx context.Context, name, description string, permissionIDs []int64) (Role, error) {
	var role Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, description, created_at, updated_at)
			 VALUES ($1, $2, now(), now())
			 RETURNING id, name, description, created_at, updated_at`,
			name, description,
		).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			return translateUnique(err)
		}
		for _, permID := range permissionIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
				role.ID, permID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns all roles.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListRolesWithPermissions returns all roles eager-expanded with their
// permission names.
func (r *PGRepository) ListRolesWithPermissions(ctx context.Context) ([]RoleWithPermissions, error) {
	roles, err := r.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT rp.role_id, p.name
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 ORDER BY rp.role_id, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRole := make(map[int64][]string)
	for rows.Next() {
		var roleID int64
		var name string
		if err := rows.Scan(&roleID, &name); err != nil {
			return nil, err
		}
		byRole[roleID] = append(byRole[roleID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	expanded := make([]RoleWithPermissions, 0, len(roles))
	for _, role := range roles {
		expanded = append(expanded, RoleWithPermissions{Role: role, Permissions: byRole[role.ID]})
	}
	return expanded, nil
}

// GetRole fetches a role by ID.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// GetRolePermissionNames lists the permission names linked to a role.
func (r *PGRepository) GetRolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UpdateRole renames a role and replaces its permission link set in a single
// transaction. Links in the intersection are left untouched, so concurrent
// readers observe either the fully-old or fully-new set.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, name, description string, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE roles SET name = $2, description = $3, updated_at = now() WHERE id = $1`,
			id, name, description,
		)
		if err != nil {
			return translateUnique(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		current, err := linkedIDs(ctx, tx,
			`SELECT permission_id FROM role_permissions WHERE role_id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		add, remove := diffLinks(current, permissionIDs)
		for _, permID := range add {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
				id, permID,
			); err != nil {
				return err
			}
		}
		for _, permID := range remove {
			if _, err := tx.Exec(ctx,
				`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
				id, permID,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRole removes a role. Its permission and user links cascade.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveRoleNames maps role names to IDs.
func (r *PGRepository) ResolveRoleNames(ctx context.Context, names []string) (map[string]int64, error) {
	return r.resolveNames(ctx, `SELECT name, id FROM roles WHERE name = ANY($1)`, names)
}

// ReplaceUserRoles replaces a user's role link set in a single transaction,
// with the same diff semantics as UpdateRole.
func (r *PGRepository) ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := linkedIDs(ctx, tx,
			`SELECT role_id FROM user_roles WHERE user_id = $1 FOR UPDATE`, userID)
		if err != nil {
			return err
		}

		add, remove := diffLinks(current, roleIDs)
		for _, roleID := range add {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
				userID, roleID,
			); err != nil {
				return err
			}
		}
		for _, roleID := range remove {
			if _, err := tx.Exec(ctx,
				`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
				userID, roleID,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// EffectiveRoles returns the user's role names.
func (r *PGRepository) EffectiveRoles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.name
		 FROM user_roles ur
		 JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// EffectivePermissions returns the deduplicated union of the user's
// role-derived permissions and any direct grants.
func (r *PGRepository) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name
		 FROM user_roles ur
		 JOIN role_permissions rp ON rp.role_id = ur.role_id
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE ur.user_id = $1
		 UNION
		 SELECT p.name
		 FROM user_permissions up
		 JOIN permissions p ON p.id = up.permission_id
		 WHERE up.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *PGRepository) resolveNames(ctx context.Context, query string, names []string) (map[string]int64, error) {
	resolved := make(map[string]int64, len(names))
	if len(names) == 0 {
		return resolved, nil
	}
	rows, err := r.pool.Query(ctx, query, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		resolved[name] = id
	}
	return resolved, rows.Err()
}

func linkedIDs(ctx context.Context, tx pgx.Tx, query string, parentID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateName
	}
	return err
}

package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

// ErrDuplicateEmail indicates the email is already registered.
var ErrDuplicateEmail = errors.New("users: duplicate email")

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	UpdateUser(ctx context.Context, id int64, user User, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)
	CountUsersSince(ctx context.Context, since time.Time) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// ListUsers returns all users with their role names.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.address, u.is_active, u.created_at, u.updated_at
		 FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	index := make(map[int64]int)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Address, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		index[u.ID] = len(users)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roleRows, err := r.pool.Query(ctx,
		`SELECT ur.user_id, ro.name
		 FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id
		 ORDER BY ur.user_id, ro.id`)
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var userID int64
		var role string
		if err := roleRows.Scan(&userID, &role); err != nil {
			return nil, err
		}
		if i, ok := index[userID]; ok {
			users[i].Roles = append(users[i].Roles, role)
		}
	}
	return users, roleRows.Err()
}

// GetUser fetches a user with role names by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone, address, is_active, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Address, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ro.name FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id WHERE ur.user_id = $1 ORDER BY ro.id`, id)
	if err != nil {
		return User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return User{}, err
		}
		u.Roles = append(u.Roles, role)
	}
	return u, rows.Err()
}

// CreateUser inserts a user record.
func (r *Repository) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, email, phone, address, password_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
		 RETURNING id, created_at, updated_at`,
		user.FirstName, user.LastName, user.Email, user.Phone, user.Address, passwordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, translateUnique(err)
	}
	user.IsActive = true
	return user, nil
}

// UpdateUser updates identity fields; the password is replaced only when a
// new hash is supplied.
func (r *Repository) UpdateUser(ctx context.Context, id int64, user User, passwordHash string) error {
	var tag pgconn.CommandTag
	var err error
	if passwordHash != "" {
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, password_hash = $7, updated_at = now()
			 WHERE id = $1`,
			id, user.FirstName, user.LastName, user.Email, user.Phone, user.Address, passwordHash)
	} else {
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, updated_at = now()
			 WHERE id = $1`,
			id, user.FirstName, user.LastName, user.Email, user.Phone, user.Address)
	}
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUser removes a user; role links cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CountUsersSince returns how many accounts were created on or after the
// given instant.
func (r *Repository) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, since).Scan(&count)
	return count, err
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

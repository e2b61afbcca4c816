package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

// ErrDuplicateEmail indicates a staff email collision.
var ErrDuplicateEmail = errors.New("staff: email already in use")

const uniqueViolation = "23505"

// RepositoryPort describes staff persistence operations.
type RepositoryPort interface {
	ListMembers(ctx context.Context) ([]Member, error)
	GetMember(ctx context.Context, id int64) (Member, error)
	CreateMember(ctx context.Context, member Member) (int64, error)
	UpdateMember(ctx context.Context, id int64, member Member) error
	DeleteMember(ctx context.Context, id int64) error
	CountMembers(ctx context.Context) (int64, error)
}

// Repository stores staff records in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `id, first_name, last_name, email, phone, address, position, date_hired, salary, employment_status, created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.Address, &m.Position, &m.DateHired, &m.Salary, &m.EmploymentStatus, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *Repository) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+` FROM staff ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) GetMember(ctx context.Context, id int64) (Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM staff WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, shared.ErrNotFound
	}
	if err != nil {
		return Member{}, fmt.Errorf("get staff member: %w", err)
	}
	return m, nil
}

func (r *Repository) CreateMember(ctx context.Context, member Member) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO staff (first_name, last_name, email, phone, address, position, date_hired, salary, employment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		member.FirstName, member.LastName, member.Email, member.Phone, member.Address,
		member.Position, member.DateHired, member.Salary, member.EmploymentStatus,
	).Scan(&id)
	if err != nil {
		return 0, translateUnique(err)
	}
	return id, nil
}

func (r *Repository) UpdateMember(ctx context.Context, id int64, member Member) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5,
		    position = $6, date_hired = $7, salary = $8, employment_status = $9, updated_at = now()
		WHERE id = $10`,
		member.FirstName, member.LastName, member.Email, member.Phone, member.Address,
		member.Position, member.DateHired, member.Salary, member.EmploymentStatus, id,
	)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteMember(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staff member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) CountMembers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM staff`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return count, nil
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

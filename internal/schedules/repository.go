package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

// RepositoryPort describes schedule persistence operations.
type RepositoryPort interface {
	ListShifts(ctx context.Context) ([]Shift, error)
	GetShift(ctx context.Context, id int64) (Shift, error)
	CreateShift(ctx context.Context, shift Shift) (int64, error)
	UpdateShift(ctx context.Context, id int64, shift Shift) error
	DeleteShift(ctx context.Context, id int64) error
}

// Repository stores schedules in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const shiftColumns = `s.id, s.staff_id, st.first_name || ' ' || st.last_name, s.schedule_date, s.start_time, s.end_time, s.status, s.remarks, s.created_at, s.updated_at`

func scanShift(row pgx.Row) (Shift, error) {
	var sh Shift
	err := row.Scan(&sh.ID, &sh.StaffID, &sh.StaffName, &sh.ScheduleDate, &sh.StartTime, &sh.EndTime, &sh.Status, &sh.Remarks, &sh.CreatedAt, &sh.UpdatedAt)
	return sh, err
}

func (r *Repository) ListShifts(ctx context.Context) ([]Shift, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM schedules s
		JOIN staff st ON st.id = s.staff_id
		ORDER BY s.schedule_date DESC, s.start_time`)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

func (r *Repository) GetShift(ctx context.Context, id int64) (Shift, error) {
	sh, err := scanShift(r.pool.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM schedules s
		JOIN staff st ON st.id = s.staff_id
		WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Shift{}, shared.ErrNotFound
	}
	if err != nil {
		return Shift{}, fmt.Errorf("get shift: %w", err)
	}
	return sh, nil
}

func (r *Repository) CreateShift(ctx context.Context, shift Shift) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO schedules (staff_id, schedule_date, start_time, end_time, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		shift.StaffID, shift.ScheduleDate, shift.StartTime, shift.EndTime, shift.Status, shift.Remarks,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create shift: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateShift(ctx context.Context, id int64, shift Shift) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schedules
		SET staff_id = $1, schedule_date = $2, start_time = $3, end_time = $4,
		    status = $5, remarks = $6, updated_at = now()
		WHERE id = $7`,
		shift.StaffID, shift.ScheduleDate, shift.StartTime, shift.EndTime, shift.Status, shift.Remarks, id,
	)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteShift(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

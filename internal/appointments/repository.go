package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

// RepositoryPort describes appointment persistence operations.
type RepositoryPort interface {
	ListAppointments(ctx context.Context) ([]Appointment, error)
	ListUpcoming(ctx context.Context, from, to time.Time) ([]Appointment, error)
	GetAppointment(ctx context.Context, id int64) (Appointment, error)
	CreateAppointment(ctx context.Context, appt Appointment) (int64, error)
	UpdateAppointment(ctx context.Context, id int64, appt Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// Repository stores appointments in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const apptColumns = `a.id, a.pet_id, p.name, a.staff_id, st.first_name || ' ' || st.last_name, a.appointment_date, a.service_type, a.status, a.remarks, a.created_at, a.updated_at`

const apptJoins = `
	FROM appointments a
	JOIN pets p ON p.id = a.pet_id
	JOIN staff st ON st.id = a.staff_id`

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PetID, &a.PetName, &a.StaffID, &a.StaffName, &a.AppointmentDate, &a.ServiceType, &a.Status, &a.Remarks, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *Repository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apptColumns+apptJoins+` ORDER BY a.appointment_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *Repository) ListUpcoming(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+apptJoins+`
		WHERE a.appointment_date >= $1 AND a.appointment_date < $2
		  AND a.status IN ($3, $4)
		ORDER BY a.appointment_date`,
		from, to, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Appointment, error) {
	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *Repository) GetAppointment(ctx context.Context, id int64) (Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+apptColumns+apptJoins+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, shared.ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *Repository) CreateAppointment(ctx context.Context, appt Appointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (pet_id, staff_id, appointment_date, service_type, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		appt.PetID, appt.StaffID, appt.AppointmentDate, appt.ServiceType, appt.Status, appt.Remarks,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create appointment: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateAppointment(ctx context.Context, id int64, appt Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET pet_id = $1, staff_id = $2, appointment_date = $3,
		    service_type = $4, status = $5, remarks = $6, updated_at = now()
		WHERE id = $7`,
		appt.PetID, appt.StaffID, appt.AppointmentDate, appt.ServiceType, appt.Status, appt.Remarks, id,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteAppointment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan appointment count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

package appointments

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrMissingPet indicates an appointment without a pet.
	ErrMissingPet = errors.New("appointments: pet is required")
	// ErrMissingStaff indicates an appointment without an assigned staff member.
	ErrMissingStaff = errors.New("appointments: staff member is required")
	// ErrMissingService indicates an appointment without a service type.
	ErrMissingService = errors.New("appointments: service type is required")
	// ErrUnknownStatus indicates a status outside the accepted set.
	ErrUnknownStatus = errors.New("appointments: unknown status")
)

// ReminderEnqueuer schedules a reminder notification for a booked visit.
type ReminderEnqueuer interface {
	EnqueueAppointmentReminder(ctx context.Context, appointmentID int64, visitAt time.Time) error
}

// Service exposes appointment operations to handlers.
type Service struct {
	repo      RepositoryPort
	reminders ReminderEnqueuer
	logger    *slog.Logger
}

// NewService builds an appointment Service. reminders may be nil when no
// queue is configured.
func NewService(repo RepositoryPort, reminders ReminderEnqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, reminders: reminders, logger: logger}
}

func (s *Service) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListAppointments(ctx)
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

// CreateAppointment books a visit and schedules its reminder. A failed
// enqueue is logged but never rolls back the booking.
func (s *Service) CreateAppointment(ctx context.Context, appt Appointment) (int64, error) {
	if appt.Status == "" {
		appt.Status = StatusPending
	}
	if err := validateAppointment(appt); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		return 0, err
	}
	if s.reminders != nil {
		if err := s.reminders.EnqueueAppointmentReminder(ctx, id, appt.AppointmentDate); err != nil {
			s.logger.Warn("enqueue appointment reminder failed",
				slog.Int64("appointment_id", id),
				slog.Any("error", err))
		}
	}
	return id, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id int64, appt Appointment) error {
	if err := validateAppointment(appt); err != nil {
		return err
	}
	return s.repo.UpdateAppointment(ctx, id, appt)
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	return s.repo.DeleteAppointment(ctx, id)
}

func (s *Service) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}

func validateAppointment(appt Appointment) error {
	if appt.PetID == 0 {
		return ErrMissingPet
	}
	if appt.StaffID == 0 {
		return ErrMissingStaff
	}
	if appt.ServiceType == "" {
		return ErrMissingService
	}
	switch appt.Status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return nil
	default:
		return ErrUnknownStatus
	}
}

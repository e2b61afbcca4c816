package schedules

import (
	"context"
	"errors"
)

var (
	// ErrMissingStaff indicates a shift without an assigned staff member.
	ErrMissingStaff = errors.New("schedules: staff member is required")
	// ErrInvalidWindow indicates the shift end does not follow its start.
	ErrInvalidWindow = errors.New("schedules: end time must be after start time")
	// ErrUnknownStatus indicates a status outside the accepted set.
	ErrUnknownStatus = errors.New("schedules: unknown status")
)

// Service exposes schedule operations to handlers.
type Service struct {
	repo RepositoryPort
}

// NewService builds a schedule Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListShifts(ctx context.Context) ([]Shift, error) {
	return s.repo.ListShifts(ctx)
}

func (s *Service) GetShift(ctx context.Context, id int64) (Shift, error) {
	return s.repo.GetShift(ctx, id)
}

func (s *Service) CreateShift(ctx context.Context, shift Shift) (int64, error) {
	if shift.Status == "" {
		shift.Status = StatusScheduled
	}
	if err := validateShift(shift); err != nil {
		return 0, err
	}
	return s.repo.CreateShift(ctx, shift)
}

func (s *Service) UpdateShift(ctx context.Context, id int64, shift Shift) error {
	if err := validateShift(shift); err != nil {
		return err
	}
	return s.repo.UpdateShift(ctx, id, shift)
}

func (s *Service) DeleteShift(ctx context.Context, id int64) error {
	return s.repo.DeleteShift(ctx, id)
}

func validateShift(shift Shift) error {
	if shift.StaffID == 0 {
		return ErrMissingStaff
	}
	// Times are HH:MM strings so lexical order matches clock order.
	if shift.StartTime == "" || shift.EndTime == "" || shift.EndTime <= shift.StartTime {
		return ErrInvalidWindow
	}
	switch shift.Status {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return nil
	default:
		return ErrUnknownStatus
	}
}

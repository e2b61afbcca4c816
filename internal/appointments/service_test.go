package appointments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/fureverhealth/fureverhealth/testing"
)

type stubRepo struct {
	nextID  int64
	created []Appointment
	updated map[int64]Appointment
	failOn  error
}

func (s *stubRepo) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return s.created, nil
}

func (s *stubRepo) ListUpcoming(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range s.created {
		if !a.AppointmentDate.Before(from) && a.AppointmentDate.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubRepo) GetAppointment(ctx context.Context, id int64) (Appointment, error) {
	for _, a := range s.created {
		if a.ID == id {
			return a, nil
		}
	}
	return Appointment{}, errors.New("not found")
}

func (s *stubRepo) CreateAppointment(ctx context.Context, appt Appointment) (int64, error) {
	if s.failOn != nil {
		return 0, s.failOn
	}
	s.nextID++
	appt.ID = s.nextID
	s.created = append(s.created, appt)
	return appt.ID, nil
}

func (s *stubRepo) UpdateAppointment(ctx context.Context, id int64, appt Appointment) error {
	if s.updated == nil {
		s.updated = make(map[int64]Appointment)
	}
	s.updated[id] = appt
	return nil
}

func (s *stubRepo) DeleteAppointment(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, a := range s.created {
		counts[a.Status]++
	}
	return counts, nil
}

type stubEnqueuer struct {
	calls []int64
	err   error
}

func (s *stubEnqueuer) EnqueueAppointmentReminder(ctx context.Context, appointmentID int64, visitAt time.Time) error {
	s.calls = append(s.calls, appointmentID)
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validAppointment() Appointment {
	return Appointment{
		PetID:           1,
		StaffID:         2,
		AppointmentDate: time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC),
		ServiceType:     "Vaccination",
	}
}

func TestCreateAppointmentDefaultsToPendingAndEnqueuesReminder(t *testing.T) {
	repo := &stubRepo{}
	enq := &stubEnqueuer{}
	svc := NewService(repo, enq, discardLogger())

	id, err := svc.CreateAppointment(context.Background(), validAppointment())
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Equal(t, StatusPending, repo.created[0].Status)
	require.Equal(t, []int64{1}, enq.calls)
}

func TestCreateAppointmentSurvivesEnqueueFailure(t *testing.T) {
	repo := &stubRepo{}
	enq := &stubEnqueuer{err: errors.New("queue down")}
	svc := NewService(repo, enq, discardLogger())

	id, err := svc.CreateAppointment(context.Background(), validAppointment())
	require.NoError(t, err, "the booking must not roll back when the queue is unavailable")
	require.Equal(t, int64(1), id)
	require.Len(t, repo.created, 1)
}

func TestCreateAppointmentWithoutEnqueuer(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, discardLogger())

	_, err := svc.CreateAppointment(context.Background(), validAppointment())
	require.NoError(t, err)
}

func TestCreateAppointmentValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Appointment)
		wantErr error
	}{
		{"missing pet", func(a *Appointment) { a.PetID = 0 }, ErrMissingPet},
		{"missing staff", func(a *Appointment) { a.StaffID = 0 }, ErrMissingStaff},
		{"missing service", func(a *Appointment) { a.ServiceType = "" }, ErrMissingService},
		{"bogus status", func(a *Appointment) { a.Status = "maybe" }, ErrUnknownStatus},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{}
			enq := &stubEnqueuer{}
			svc := NewService(repo, enq, discardLogger())

			appt := validAppointment()
			tc.mutate(&appt)
			_, err := svc.CreateAppointment(context.Background(), appt)
			require.ErrorIs(t, err, tc.wantErr)
			require.Empty(t, repo.created)
			require.Empty(t, enq.calls, "no reminder may be scheduled for a rejected booking")
		})
	}
}

func TestCreateAppointmentRepoFailureSkipsReminder(t *testing.T) {
	repo := &stubRepo{failOn: errors.New("db down")}
	enq := &stubEnqueuer{}
	svc := NewService(repo, enq, discardLogger())

	_, err := svc.CreateAppointment(context.Background(), validAppointment())
	require.Error(t, err)
	require.Empty(t, enq.calls)
}

func TestUpdateAppointmentKeepsExplicitStatus(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, discardLogger())

	appt := validAppointment()
	appt.Status = StatusConfirmed
	require.NoError(t, svc.UpdateAppointment(context.Background(), 7, appt))
	require.Equal(t, StatusConfirmed, repo.updated[7].Status)
}

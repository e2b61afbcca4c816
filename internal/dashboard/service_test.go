package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fureverhealth/fureverhealth/internal/appointments"
	"github.com/fureverhealth/fureverhealth/internal/pets"
	"github.com/fureverhealth/fureverhealth/internal/staff"
	"github.com/fureverhealth/fureverhealth/internal/users"
	_ "github.com/fureverhealth/fureverhealth/testing"
)

type stubUsers struct {
	count  int64
	recent int64
}

func (s stubUsers) ListUsers(ctx context.Context) ([]users.User, error) { return nil, nil }
func (s stubUsers) GetUser(ctx context.Context, id int64) (users.User, error) {
	return users.User{}, nil
}
func (s stubUsers) CreateUser(ctx context.Context, user users.User, hash string) (users.User, error) {
	return users.User{}, nil
}
func (s stubUsers) UpdateUser(ctx context.Context, id int64, user users.User, hash string) error {
	return nil
}
func (s stubUsers) DeleteUser(ctx context.Context, id int64) error { return nil }
func (s stubUsers) CountUsers(ctx context.Context) (int64, error)  { return s.count, nil }
func (s stubUsers) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	return s.recent, nil
}

type stubPets struct{ count int64 }

func (s stubPets) ListPets(ctx context.Context) ([]pets.Pet, error)       { return nil, nil }
func (s stubPets) GetPet(ctx context.Context, id int64) (pets.Pet, error) { return pets.Pet{}, nil }
func (s stubPets) CreatePet(ctx context.Context, pet pets.Pet) (pets.Pet, error) {
	return pets.Pet{}, nil
}
func (s stubPets) UpdatePet(ctx context.Context, id int64, pet pets.Pet) error { return nil }
func (s stubPets) DeletePet(ctx context.Context, id int64) error               { return nil }
func (s stubPets) CountPets(ctx context.Context) (int64, error)                { return s.count, nil }

type stubStaff struct{ count int64 }

func (s stubStaff) ListMembers(ctx context.Context) ([]staff.Member, error) { return nil, nil }
func (s stubStaff) GetMember(ctx context.Context, id int64) (staff.Member, error) {
	return staff.Member{}, nil
}
func (s stubStaff) CreateMember(ctx context.Context, m staff.Member) (int64, error) { return 0, nil }
func (s stubStaff) UpdateMember(ctx context.Context, id int64, m staff.Member) error {
	return nil
}
func (s stubStaff) DeleteMember(ctx context.Context, id int64) error { return nil }
func (s stubStaff) CountMembers(ctx context.Context) (int64, error)  { return s.count, nil }

type stubAppointments struct {
	counts   map[string]int64
	upcoming []appointments.Appointment
	gotFrom  time.Time
	gotTo    time.Time
	err      error
}

func (s *stubAppointments) ListAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	return nil, nil
}

func (s *stubAppointments) ListUpcoming(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	s.gotFrom, s.gotTo = from, to
	return s.upcoming, s.err
}

func (s *stubAppointments) GetAppointment(ctx context.Context, id int64) (appointments.Appointment, error) {
	return appointments.Appointment{}, nil
}

func (s *stubAppointments) CreateAppointment(ctx context.Context, a appointments.Appointment) (int64, error) {
	return 0, nil
}

func (s *stubAppointments) UpdateAppointment(ctx context.Context, id int64, a appointments.Appointment) error {
	return nil
}

func (s *stubAppointments) DeleteAppointment(ctx context.Context, id int64) error { return nil }

func (s *stubAppointments) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.counts, s.err
}

func TestSummarizeGathersAllCounters(t *testing.T) {
	appts := &stubAppointments{
		counts: map[string]int64{
			appointments.StatusPending:   3,
			appointments.StatusConfirmed: 2,
		},
		upcoming: []appointments.Appointment{{ID: 1}, {ID: 2}},
	}
	svc := NewService(stubUsers{count: 10, recent: 3}, stubPets{count: 25}, stubStaff{count: 4}, appts)

	fixed := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(10), summary.Users)
	require.Equal(t, int64(3), summary.NewUsers30d)
	require.Equal(t, int64(25), summary.Pets)
	require.Equal(t, int64(4), summary.Staff)
	require.Equal(t, int64(5), summary.TotalAppointments())
	require.Len(t, summary.Upcoming, 2)
	require.Equal(t, fixed, appts.gotFrom)
	require.Equal(t, fixed.Add(7*24*time.Hour), appts.gotTo)
}

func TestSummarizeFailsWhenAnyQueryFails(t *testing.T) {
	appts := &stubAppointments{err: errors.New("db down")}
	svc := NewService(stubUsers{}, stubPets{}, stubStaff{}, appts)

	_, err := svc.Summarize(context.Background())
	require.Error(t, err)
}

func TestTotalAppointmentsEmptySummary(t *testing.T) {
	require.Zero(t, Summary{}.TotalAppointments())
}

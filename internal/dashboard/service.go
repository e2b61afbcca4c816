package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fureverhealth/fureverhealth/internal/appointments"
	"github.com/fureverhealth/fureverhealth/internal/pets"
	"github.com/fureverhealth/fureverhealth/internal/staff"
	"github.com/fureverhealth/fureverhealth/internal/users"
)

// Summary aggregates the clinic counters shown on the landing dashboard.
type Summary struct {
	Users               int64
	NewUsers30d         int64
	Pets                int64
	Staff               int64
	AppointmentsByState map[string]int64
	Upcoming            []appointments.Appointment
}

// TotalAppointments sums the per-status counters.
func (s Summary) TotalAppointments() int64 {
	var total int64
	for _, n := range s.AppointmentsByState {
		total += n
	}
	return total
}

// Service fans out the dashboard queries.
type Service struct {
	users        users.RepositoryPort
	pets         pets.RepositoryPort
	staff        staff.RepositoryPort
	appointments appointments.RepositoryPort
	now          func() time.Time
}

// NewService builds a dashboard Service.
func NewService(usersRepo users.RepositoryPort, petsRepo pets.RepositoryPort, staffRepo staff.RepositoryPort, apptRepo appointments.RepositoryPort) *Service {
	return &Service{
		users:        usersRepo,
		pets:         petsRepo,
		staff:        staffRepo,
		appointments: apptRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Summarize gathers all counters concurrently. One failing query fails the
// whole summary.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	var summary Summary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.users.CountUsers(gctx)
		summary.Users = count
		return err
	})
	g.Go(func() error {
		count, err := s.users.CountUsersSince(gctx, s.now().Add(-30*24*time.Hour))
		summary.NewUsers30d = count
		return err
	})
	g.Go(func() error {
		count, err := s.pets.CountPets(gctx)
		summary.Pets = count
		return err
	})
	g.Go(func() error {
		count, err := s.staff.CountMembers(gctx)
		summary.Staff = count
		return err
	})
	g.Go(func() error {
		counts, err := s.appointments.CountByStatus(gctx)
		summary.AppointmentsByState = counts
		return err
	})
	g.Go(func() error {
		from := s.now()
		upcoming, err := s.appointments.ListUpcoming(gctx, from, from.Add(7*24*time.Hour))
		summary.Upcoming = upcoming
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/appointments"
)

// ReminderJob delivers owner reminders for upcoming visits.
type ReminderJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewReminderJob initialises the reminder handler.
func NewReminderJob(pool *pgxpool.Pool, logger *slog.Logger) *ReminderJob {
	return &ReminderJob{
		Pool:   pool,
		Logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// HandleReminder processes a single appointment reminder.
func (j *ReminderJob) HandleReminder(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reminder: handler not configured")
	}
	var payload AppointmentReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	repo := appointments.NewRepository(j.Pool)
	appt, err := repo.GetAppointment(ctx, payload.AppointmentID)
	if err != nil {
		// The visit may have been cancelled since the task was enqueued.
		j.Logger.Warn("reminder skipped",
			slog.Int64("appointment_id", payload.AppointmentID),
			slog.Any("error", err))
		return nil
	}
	if appt.Status == appointments.StatusCancelled || appt.Status == appointments.StatusCompleted {
		return nil
	}

	// Delivery channel integration (SMS, email) lands with the clinic
	// notification provider. Until then the reminder is logged.
	j.Logger.Info("appointment reminder",
		slog.Int64("appointment_id", appt.ID),
		slog.String("pet", appt.PetName),
		slog.String("staff", appt.StaffName),
		slog.Time("visit_at", appt.AppointmentDate),
		slog.String("service", appt.ServiceType))
	return nil
}

// HandleScan sweeps for visits due within 24 hours that still need a
// reminder and enqueues one for each.
func (j *ReminderJob) HandleScan(client *Client) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if j == nil || client == nil {
			return errors.New("reminder scan: handler not configured")
		}
		now := j.clock()
		repo := appointments.NewRepository(j.Pool)
		upcoming, err := repo.ListUpcoming(ctx, now, now.Add(24*time.Hour))
		if err != nil {
			j.Logger.Error("reminder scan failed", slog.Any("error", err))
			return err
		}
		for _, appt := range upcoming {
			if err := client.EnqueueAppointmentReminder(ctx, appt.ID, appt.AppointmentDate); err != nil {
				j.Logger.Warn("reminder scan enqueue failed",
					slog.Int64("appointment_id", appt.ID),
					slog.Any("error", err))
			}
		}
		j.Logger.Info("reminder scan complete", slog.Int("upcoming", len(upcoming)))
		return nil
	}
}

package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAppointmentReminder notifies owners ahead of a booked visit.
	TaskAppointmentReminder = "appointment:reminder"
	// TaskReminderScan sweeps for visits due within the next day.
	TaskReminderScan = "appointment:reminder_scan"
)

// AppointmentReminderPayload identifies the visit to remind about.
type AppointmentReminderPayload struct {
	AppointmentID int64     `json:"appointment_id"`
	VisitAt       time.Time `json:"visit_at"`
}

// NewAppointmentReminderTask constructs the reminder task.
func NewAppointmentReminderTask(payload AppointmentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

// NewReminderScanTask constructs the periodic sweep task.
func NewReminderScanTask() *asynq.Task {
	return asynq.NewTask(TaskReminderScan, nil)
}

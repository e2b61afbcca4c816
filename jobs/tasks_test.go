package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	_ "github.com/fureverhealth/fureverhealth/testing"
)

func TestAppointmentReminderTask(t *testing.T) {
	visitAt := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	task, err := NewAppointmentReminderTask(AppointmentReminderPayload{
		AppointmentID: 7,
		VisitAt:       visitAt,
	})
	require.NoError(t, err)
	require.Equal(t, TaskAppointmentReminder, task.Type())
	require.Contains(t, string(task.Payload()), `"appointment_id":7`)
}

func TestReminderScanTask(t *testing.T) {
	task := NewReminderScanTask()
	require.Equal(t, TaskReminderScan, task.Type())
	require.Empty(t, task.Payload())
}

func TestHandleReminderSkipsRetryOnMalformedPayload(t *testing.T) {
	job := NewReminderJob(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	task := asynq.NewTask(TaskAppointmentReminder, []byte("{not json"))

	err := job.HandleReminder(context.Background(), task)
	require.True(t, errors.Is(err, asynq.SkipRetry),
		"a payload that can never parse must not be retried")
}

func TestHandleReminderNilReceiver(t *testing.T) {
	var job *ReminderJob
	err := job.HandleReminder(context.Background(), NewReminderScanTask())
	require.Error(t, err)
}

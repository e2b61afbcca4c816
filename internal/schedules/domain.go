package schedules

import "time"

// Shift statuses accepted by the clinic calendar.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Shift represents a staff work slot on the clinic calendar.
type Shift struct {
	ID           int64
	StaffID      int64
	StaffName    string
	ScheduleDate time.Time
	StartTime    string
	EndTime      string
	Status       string
	Remarks      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

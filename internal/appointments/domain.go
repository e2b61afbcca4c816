package appointments

import "time"

// Appointment statuses accepted by the booking flow.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment represents a visit booked for a pet with a staff member.
type Appointment struct {
	ID              int64
	PetID           int64
	PetName         string
	StaffID         int64
	StaffName       string
	AppointmentDate time.Time
	ServiceType     string
	Status          string
	Remarks         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

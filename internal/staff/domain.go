package staff

import "time"

// Member represents a clinic staff member.
type Member struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Address          string
	Position         string
	DateHired        time.Time
	Salary           float64
	EmploymentStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins the first and last name for display.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

package users

import "time"

// User represents a user account for management. Identity fields are
// irrelevant to authorization; capabilities derive entirely from the
// assigned roles.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Roles []string
}

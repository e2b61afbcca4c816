package pets

import "time"

// Pet is an animal registered to an owner account.
type Pet struct {
	ID             int64
	OwnerID        int64
	OwnerName      string
	Name           string
	Species        string
	Breed          string
	Gender         string
	Age            int
	WeightKg       float64
	Color          string
	MedicalHistory string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

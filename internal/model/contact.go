package model

import "time"

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Contact is one entry of a tenant's address book (`contacts` table).
// UserID is the owning tenant; (UserID, Phone) is unique.
type Contact struct {
	ID        string
	UserID    string
	FirstName string
	LastName  string
	Age       int
	Gender    string
	Phone     string
	Favorite  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

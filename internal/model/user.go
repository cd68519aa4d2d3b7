package model

import "time"

// Roles a user can hold.  The first successful registrant becomes admin,
// everyone after that is a regular user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account record as stored in the `users` table.  It
// doubles as the tenant: every contact row references a user id.  The
// struct carries no json tags because handlers define their own response
// shapes and the password hash must never be serialized.
type User struct {
	ID           string    // users.id (UUID)
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Email        string    // users.email, lower-cased, unique
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role, RoleAdmin or RoleUser
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

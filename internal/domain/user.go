package domain

import "time"

// Role represents a user's role in the system.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RolePassenger || r == RoleDriver || r == RoleAdmin
}

// User represents a passenger, driver, or admin account.
type User struct {
	ID             string
	Email          string
	Name           string
	Phone          string
	Role           Role
	ProfilePicture string
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

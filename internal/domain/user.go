package domain

import "time"

// User is the domain model for registered accounts. The password hash never
// leaves the repository/service boundary in any response payload.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

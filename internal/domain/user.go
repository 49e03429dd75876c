package domain

import "time"

// User represents an authenticated user of the system.
// Users are created lazily on first successful magic-link verification.
type User struct {
	ID        int64
	Email     string
	Username  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

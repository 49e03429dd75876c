package domain

import "time"

// MagicLink is a single-use login credential delivered to a user by email.
// Links are retained after use as an audit trail.
type MagicLink struct {
	ID        int64
	Token     string
	Email     string
	UserID    *int64
	IsUsed    bool
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}

// Valid reports whether the link can still be exchanged at the given instant.
func (l MagicLink) Valid(now time.Time) bool {
	return !l.IsUsed && now.Before(l.ExpiresAt)
}

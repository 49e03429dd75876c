package domain

import "time"

type StatementStatus string

const (
	StatementStatusPending   StatementStatus = "pending"
	StatementStatusVerified  StatementStatus = "verified"
	StatementStatusDisputed  StatementStatus = "disputed"
	StatementStatusRetracted StatementStatus = "retracted"
)

// Known reports whether s is one of the recognized verification states.
func (s StatementStatus) Known() bool {
	switch s {
	case StatementStatusPending, StatementStatusVerified, StatementStatusDisputed, StatementStatusRetracted:
		return true
	}
	return false
}

// Statement represents a political statement tracked by the system.
type Statement struct {
	ID             int64
	PoliticianName string
	Party          string
	StatementText  string
	SourceURL      string
	StatementDate  time.Time
	Category       string
	Status         StatementStatus
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

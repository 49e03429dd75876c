package repository

import (
	"context"
	"errors"
	"time"

	"polito-log/internal/domain"
)

// ErrStatementNotFound is returned when no statement matches the lookup.
var ErrStatementNotFound = errors.New("statement not found")

// StatementFilter narrows List results.
type StatementFilter struct {
	PoliticianName string
	Party          string
	Status         domain.StatementStatus
	Search         string
	ActiveOnly     bool
	Offset         int
	Limit          int
}

// StatementRepository exposes persistence operations for Statement records.
type StatementRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, st *domain.Statement) (int64, error)
	Update(ctx context.Context, st *domain.Statement) error
	Get(ctx context.Context, id int64) (*domain.Statement, error)
	List(ctx context.Context, filter StatementFilter) ([]domain.Statement, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, activeOnly bool) (int64, error)
}

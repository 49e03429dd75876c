package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"polito-log/internal/domain"
	"polito-log/internal/repository"
)

// ErrInvalidStatement indicates statement input that fails validation.
var ErrInvalidStatement = errors.New("invalid statement")

// StatementInput carries caller-supplied statement fields.
type StatementInput struct {
	PoliticianName string
	Party          string
	StatementText  string
	SourceURL      string
	StatementDate  time.Time
	Category       string
	Status         domain.StatementStatus
}

// StatementService coordinates statement level operations backed by the repository.
type StatementService interface {
	CreateStatement(ctx context.Context, in StatementInput) (*domain.Statement, error)
	GetStatement(ctx context.Context, id int64) (*domain.Statement, error)
	ListStatements(ctx context.Context, filter repository.StatementFilter) ([]domain.Statement, error)
	UpdateStatement(ctx context.Context, id int64, in StatementInput) (*domain.Statement, error)
	DeleteStatement(ctx context.Context, id int64, soft bool) error
	CountStatements(ctx context.Context, activeOnly bool) (int64, error)
}

type statementService struct {
	statements repository.StatementRepository
}

func NewStatementService(statements repository.StatementRepository) StatementService {
	return &statementService{statements: statements}
}

func (s *statementService) CreateStatement(ctx context.Context, in StatementInput) (*domain.Statement, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = domain.StatementStatusPending
	}

	st := &domain.Statement{
		PoliticianName: strings.TrimSpace(in.PoliticianName),
		Party:          strings.TrimSpace(in.Party),
		StatementText:  strings.TrimSpace(in.StatementText),
		SourceURL:      strings.TrimSpace(in.SourceURL),
		StatementDate:  in.StatementDate.UTC(),
		Category:       strings.TrimSpace(in.Category),
		Status:         in.Status,
		IsActive:       true,
	}
	if _, err := s.statements.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *statementService) GetStatement(ctx context.Context, id int64) (*domain.Statement, error) {
	return s.statements.Get(ctx, id)
}

func (s *statementService) ListStatements(ctx context.Context, filter repository.StatementFilter) ([]domain.Statement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.statements.List(ctx, filter)
}

func (s *statementService) UpdateStatement(ctx context.Context, id int64, in StatementInput) (*domain.Statement, error) {
	st, err := s.statements.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(in.PoliticianName); v != "" {
		st.PoliticianName = v
	}
	if v := strings.TrimSpace(in.Party); v != "" {
		st.Party = v
	}
	if v := strings.TrimSpace(in.StatementText); v != "" {
		st.StatementText = v
	}
	if v := strings.TrimSpace(in.SourceURL); v != "" {
		st.SourceURL = v
	}
	if !in.StatementDate.IsZero() {
		st.StatementDate = in.StatementDate.UTC()
	}
	if v := strings.TrimSpace(in.Category); v != "" {
		st.Category = v
	}
	if in.Status != "" {
		if !in.Status.Known() {
			return nil, ErrInvalidStatement
		}
		st.Status = in.Status
	}

	if err := s.statements.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *statementService) DeleteStatement(ctx context.Context, id int64, soft bool) error {
	if soft {
		return s.statements.SoftDelete(ctx, id, time.Now())
	}
	return s.statements.Delete(ctx, id)
}

func (s *statementService) CountStatements(ctx context.Context, activeOnly bool) (int64, error) {
	return s.statements.Count(ctx, activeOnly)
}

func validateInput(in StatementInput) error {
	if strings.TrimSpace(in.PoliticianName) == "" ||
		strings.TrimSpace(in.Party) == "" ||
		strings.TrimSpace(in.StatementText) == "" {
		return ErrInvalidStatement
	}
	if in.StatementDate.IsZero() {
		return ErrInvalidStatement
	}
	if in.Status != "" && !in.Status.Known() {
		return ErrInvalidStatement
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"polito-log/internal/domain"
	"polito-log/internal/repository"
)

const createStatementsTable = `
CREATE TABLE IF NOT EXISTS statements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	politician_name TEXT NOT NULL,
	party TEXT NOT NULL,
	statement_text TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	statement_date DATETIME NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_statements_politician ON statements(politician_name);
CREATE INDEX IF NOT EXISTS idx_statements_party ON statements(party);
CREATE INDEX IF NOT EXISTS idx_statements_status ON statements(status);
`

const statementColumns = `id, politician_name, party, statement_text, source_url, statement_date, category, status, is_active, created_at, updated_at`

type StatementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) repository.StatementRepository {
	return &StatementRepository{db: db}
}

func (r *StatementRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createStatementsTable); err != nil {
		return fmt.Errorf("create statements table: %w", err)
	}
	return nil
}

func (r *StatementRepository) Create(ctx context.Context, st *domain.Statement) (int64, error) {
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	if st.Status == "" {
		st.Status = domain.StatementStatusPending
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO statements (politician_name, party, statement_text, source_url, statement_date, category, status, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.PoliticianName,
		st.Party,
		st.StatementText,
		st.SourceURL,
		st.StatementDate,
		st.Category,
		string(st.Status),
		st.IsActive,
		st.CreatedAt,
		st.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("statement last insert id: %w", err)
	}
	st.ID = id
	return id, nil
}

func (r *StatementRepository) Update(ctx context.Context, st *domain.Statement) error {
	st.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE statements
SET politician_name = ?, party = ?, statement_text = ?, source_url = ?, statement_date = ?, category = ?, status = ?, is_active = ?, updated_at = ?
WHERE id = ?`,
		st.PoliticianName,
		st.Party,
		st.StatementText,
		st.SourceURL,
		st.StatementDate,
		st.Category,
		string(st.Status),
		st.IsActive,
		st.UpdatedAt,
		st.ID,
	)
	if err != nil {
		return fmt.Errorf("update statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update statement rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrStatementNotFound
	}
	return nil
}

func (r *StatementRepository) Get(ctx context.Context, id int64) (*domain.Statement, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+statementColumns+`
FROM statements
WHERE id = ?`,
		id,
	)
	return scanStatement(row)
}

func (r *StatementRepository) List(ctx context.Context, filter repository.StatementFilter) ([]domain.Statement, error) {
	var conds []string
	var args []any

	if filter.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}
	if filter.PoliticianName != "" {
		conds = append(conds, "politician_name = ?")
		args = append(args, filter.PoliticianName)
	}
	if filter.Party != "" {
		conds = append(conds, "party = ?")
		args = append(args, filter.Party)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		conds = append(conds, "(statement_text LIKE ? OR politician_name LIKE ? OR party LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query := `SELECT ` + statementColumns + ` FROM statements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY statement_date DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var statements []domain.Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return statements, nil
}

func (r *StatementRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE statements SET is_active = 0, updated_at = ? WHERE id = ?`,
		at.UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("soft delete statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrStatementNotFound
	}
	return nil
}

func (r *StatementRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM statements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete statement rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrStatementNotFound
	}
	return nil
}

func (r *StatementRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM statements`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count statements: %w", err)
	}
	return count, nil
}

func scanStatement(row interface {
	Scan(dest ...any) error
}) (*domain.Statement, error) {
	var st domain.Statement
	var status string
	if err := row.Scan(
		&st.ID,
		&st.PoliticianName,
		&st.Party,
		&st.StatementText,
		&st.SourceURL,
		&st.StatementDate,
		&st.Category,
		&status,
		&st.IsActive,
		&st.CreatedAt,
		&st.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrStatementNotFound
		}
		return nil, fmt.Errorf("scan statement: %w", err)
	}
	st.Status = domain.StatementStatus(status)
	return &st, nil
}

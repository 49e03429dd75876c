package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"polito-log/internal/domain"
	"polito-log/internal/repository"
)

const createMagicLinksTable = `
CREATE TABLE IF NOT EXISTS magic_links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	token TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	user_id INTEGER REFERENCES users(id),
	is_used INTEGER NOT NULL DEFAULT 0,
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	used_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_magic_links_email ON magic_links(email);
`

type MagicLinkRepository struct {
	db *sql.DB
}

func NewMagicLinkRepository(db *sql.DB) repository.MagicLinkRepository {
	return &MagicLinkRepository{db: db}
}

func (r *MagicLinkRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMagicLinksTable); err != nil {
		return fmt.Errorf("create magic_links table: %w", err)
	}
	return nil
}

func (r *MagicLinkRepository) Create(ctx context.Context, link *domain.MagicLink) (int64, error) {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO magic_links (token, email, user_id, is_used, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		link.Token,
		link.Email,
		link.UserID,
		link.IsUsed,
		link.ExpiresAt,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("magic link token collision: %w", err)
		}
		return 0, fmt.Errorf("insert magic link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("magic link last insert id: %w", err)
	}
	link.ID = id
	return id, nil
}

func (r *MagicLinkRepository) GetByToken(ctx context.Context, token string) (*domain.MagicLink, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, token, email, user_id, is_used, expires_at, created_at, used_at
FROM magic_links
WHERE token = ?`,
		token,
	)
	return scanMagicLink(row)
}

// Consume is the only redemption path. The conditional update is what keeps
// two concurrent verifications of the same token from both succeeding: the
// row transitions to used at most once, and the loser observes zero rows.
func (r *MagicLinkRepository) Consume(ctx context.Context, token string, now time.Time) (*domain.MagicLink, error) {
	now = now.UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE magic_links
SET is_used = 1, used_at = ?
WHERE token = ? AND is_used = 0 AND expires_at > ?`,
		now,
		token,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("consume magic link: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("consume magic link rows affected: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrLinkInvalid
	}

	link, err := r.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return link, nil
}

func scanMagicLink(row interface {
	Scan(dest ...any) error
}) (*domain.MagicLink, error) {
	var link domain.MagicLink
	var userID sql.NullInt64
	var usedAt sql.NullTime
	if err := row.Scan(
		&link.ID,
		&link.Token,
		&link.Email,
		&userID,
		&link.IsUsed,
		&link.ExpiresAt,
		&link.CreatedAt,
		&usedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrLinkInvalid
		}
		return nil, fmt.Errorf("scan magic link: %w", err)
	}
	if userID.Valid {
		link.UserID = &userID.Int64
	}
	if usedAt.Valid {
		t := usedAt.Time
		link.UsedAt = &t
	}
	return &link, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"polito-log/internal/domain"
)

// ErrLinkInvalid covers every way a token can fail exchange: unknown,
// expired, or already used. Callers must not distinguish the three.
var ErrLinkInvalid = errors.New("magic link invalid or expired")

// MagicLinkRepository persists single-use login tokens.
type MagicLinkRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, link *domain.MagicLink) (int64, error)
	GetByToken(ctx context.Context, token string) (*domain.MagicLink, error)
	// Consume marks the link used in a single conditional update. It succeeds
	// only if the link is still unused and unexpired at now; otherwise it
	// returns ErrLinkInvalid. At most one concurrent caller can win.
	Consume(ctx context.Context, token string, now time.Time) (*domain.MagicLink, error)
}

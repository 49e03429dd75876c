package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"polito-log/internal/auth"
	"polito-log/internal/domain"
	"polito-log/internal/email"
	"polito-log/internal/repository"
)

var (
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidLink is the single error surfaced for every link failure:
	// unknown token, expired, or already used. Callers must not learn which.
	ErrInvalidLink = errors.New("invalid or expired magic link")
	// ErrUnauthenticated indicates a missing, invalid or expired session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUsernameTaken is returned when a profile update collides on username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidUsername indicates a username that fails shape validation.
	ErrInvalidUsername = errors.New("username must be between 3 and 100 characters")
)

// sendTimeout bounds outbound email delivery so the acknowledgement to the
// caller is never held hostage by a slow provider.
const sendTimeout = 10 * time.Second

// AuthService orchestrates the magic-link login lifecycle.
type AuthService interface {
	RequestMagicLink(ctx context.Context, emailAddr string) error
	VerifyMagicLink(ctx context.Context, token string) (*domain.User, string, time.Time, error)
	GetCurrentUser(ctx context.Context, sessionToken string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, username string) (*domain.User, error)
}

// AuthConfig holds the knobs the auth service needs beyond its collaborators.
type AuthConfig struct {
	LinkTTL     time.Duration // magic link validity window, default 15 minutes
	FrontendURL string        // base URL the link points at
}

type authService struct {
	users  repository.UserRepository
	links  repository.MagicLinkRepository
	sender email.Sender
	jwt    *auth.JWTManager
	cfg    AuthConfig
	logger *logrus.Logger
}

func NewAuthService(
	users repository.UserRepository,
	links repository.MagicLinkRepository,
	sender email.Sender,
	jwtManager *auth.JWTManager,
	cfg AuthConfig,
	logger *logrus.Logger,
) AuthService {
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 15 * time.Minute
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &authService{
		users:  users,
		links:  links,
		sender: sender,
		jwt:    jwtManager,
		cfg:    cfg,
		logger: logger,
	}
}

// RequestMagicLink creates and delivers a login link. The response to the
// caller is identical whether or not the email belongs to a known user.
// Delivery failure after the link was persisted is logged and swallowed;
// only a failure to persist the link propagates.
func (s *authService) RequestMagicLink(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return ErrInvalidEmail
	}

	var userID *int64
	var username string
	user, err := s.users.GetByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		userID = &user.ID
		username = user.Username
	case errors.Is(err, repository.ErrUserNotFound):
		// unknown email still gets a link; the user is created on verify
	default:
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := auth.GenerateLinkToken()
	if err != nil {
		return fmt.Errorf("generate link token: %w", err)
	}

	link := &domain.MagicLink{
		Token:     token,
		Email:     emailAddr,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.cfg.LinkTTL),
	}
	if _, err := s.links.Create(ctx, link); err != nil {
		return fmt.Errorf("create magic link: %w", err)
	}

	linkURL := fmt.Sprintf("%s/auth/verify?token=%s", s.cfg.FrontendURL, token)

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := s.sender.SendMagicLink(sendCtx, emailAddr, linkURL, username); err != nil {
		s.logger.WithError(err).WithField("email", emailAddr).Warn("magic link delivery failed")
	}

	return nil
}

// VerifyMagicLink exchanges a token for a session. The link is consumed
// atomically before anything else happens, so two concurrent calls with the
// same token cannot both succeed.
func (s *authService) VerifyMagicLink(ctx context.Context, token string) (*domain.User, string, time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, "", time.Time{}, ErrInvalidLink
	}

	link, err := s.links.Consume(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrLinkInvalid) {
			return nil, "", time.Time{}, ErrInvalidLink
		}
		return nil, "", time.Time{}, fmt.Errorf("consume magic link: %w", err)
	}

	user, err := s.resolveUser(ctx, link.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	sessionToken, expiresAt, err := s.jwt.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("issue session token: %w", err)
	}
	return user, sessionToken, expiresAt, nil
}

// resolveUser loads the user for the email, creating one with a derived
// username on first login.
func (s *authService) resolveUser(ctx context.Context, emailAddr string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	username, err := s.deriveUsername(ctx, emailAddr)
	if err != nil {
		return nil, err
	}

	user = &domain.User{
		Email:    emailAddr,
		Username: username,
		IsActive: true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			// lost a creation race; the row is there now
			return s.users.GetByEmail(ctx, emailAddr)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// deriveUsername takes the email local part and appends a numeric suffix
// until it no longer collides.
func (s *authService) deriveUsername(ctx context.Context, emailAddr string) (string, error) {
	base := emailAddr
	if at := strings.Index(emailAddr, "@"); at > 0 {
		base = emailAddr[:at]
	}
	if base == "" {
		base = "user"
	}

	candidate := base
	for counter := 1; ; counter++ {
		_, err := s.users.GetByUsername(ctx, candidate)
		if errors.Is(err, repository.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		candidate = fmt.Sprintf("%s%d", base, counter)
	}
}

// GetCurrentUser resolves a session token to an active user.
func (s *authService) GetCurrentUser(ctx context.Context, sessionToken string) (*domain.User, error) {
	claims, err := s.jwt.Verify(sessionToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// UpdateProfile changes the user's username after a uniqueness re-check.
func (s *authService) UpdateProfile(ctx context.Context, userID int64, username string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	username = strings.TrimSpace(username)
	if username == "" || username == user.Username {
		return user, nil
	}
	if len(username) < 3 || len(username) > 100 {
		return nil, ErrInvalidUsername
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil && existing.ID != user.ID {
		return nil, ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	user.Username = username
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

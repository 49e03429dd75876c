package service

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polito-log/internal/auth"
	"polito-log/internal/domain"
	"polito-log/internal/repository"
	"polito-log/internal/repository/sqlite"
)

type sentMail struct {
	To       string
	LinkURL  string
	Username string
}

// captureSender records outgoing mail so tests can fish the token back out.
type captureSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *captureSender) SendMagicLink(_ context.Context, toEmail, linkURL, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{To: toEmail, LinkURL: linkURL, Username: username})
	return nil
}

func (s *captureSender) last(t *testing.T) sentMail {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

func tokenFromLink(t *testing.T, linkURL string) string {
	t.Helper()
	parsed, err := url.Parse(linkURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

type authFixture struct {
	svc    AuthService
	sender *captureSender
	users  repository.UserRepository
	links  repository.MagicLinkRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	links := sqlite.NewMagicLinkRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, links.Init(ctx))

	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{
		Secret:   "service-test-secret",
		TokenTTL: 7 * 24 * time.Hour,
		Issuer:   "polito-log-test",
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sender := &captureSender{}
	svc := NewAuthService(users, links, sender, jwtManager, AuthConfig{
		LinkTTL:     15 * time.Minute,
		FrontendURL: "http://localhost:5173",
	}, logger)

	return &authFixture{svc: svc, sender: sender, users: users, links: links}
}

func TestRequestMagicLinkAntiEnumeration(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.users.Create(ctx, &domain.User{Email: "known@example.com", Username: "known", IsActive: true})
	require.NoError(t, err)

	// registered and unregistered emails get the identical outcome
	require.NoError(t, f.svc.RequestMagicLink(ctx, "known@example.com"))
	require.NoError(t, f.svc.RequestMagicLink(ctx, "unknown@example.com"))

	require.Len(t, f.sender.sent, 2)
	assert.Contains(t, f.sender.sent[0].LinkURL, "http://localhost:5173/auth/verify?token=")
	assert.Contains(t, f.sender.sent[1].LinkURL, "http://localhost:5173/auth/verify?token=")
}

func TestRequestMagicLinkRejectsMalformedEmail(t *testing.T) {
	f := newAuthFixture(t)

	for _, email := range []string{"", "not-an-email", "user@@example.com"} {
		err := f.svc.RequestMagicLink(context.Background(), email)
		assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}
	assert.Empty(t, f.sender.sent)
}

func TestRequestMagicLinkSwallowsDeliveryFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.sender.err = context.DeadlineExceeded

	// the link was persisted, so the caller still gets a success
	err := f.svc.RequestMagicLink(context.Background(), "slow@example.com")
	assert.NoError(t, err)
}

func TestVerifyMagicLinkCreatesUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestMagicLink(ctx, "new@example.com"))
	token := tokenFromLink(t, f.sender.last(t).LinkURL)

	user, sessionToken, expiresAt, err := f.svc.VerifyMagicLink(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "new", user.Username, "username derives from the email local part")
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, sessionToken)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

	// the session token works
	current, err := f.svc.GetCurrentUser(ctx, sessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
}

func TestVerifyMagicLinkUsernameCollision(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.users.Create(ctx, &domain.User{Email: "new@other.org", Username: "new", IsActive: true})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestMagicLink(ctx, "new@example.com"))
	token := tokenFromLink(t, f.sender.last(t).LinkURL)

	user, _, _, err := f.svc.VerifyMagicLink(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "new1", user.Username, "collision appends a numeric suffix")
}

func TestVerifyMagicLinkSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestMagicLink(ctx, "once@example.com"))
	token := tokenFromLink(t, f.sender.last(t).LinkURL)

	_, _, _, err := f.svc.VerifyMagicLink(ctx, token)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, _, err = f.svc.VerifyMagicLink(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidLink)
	}
}

func TestVerifyMagicLinkExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	link := &domain.MagicLink{
		Token:     "expired-token",
		Email:     "late@example.com",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	_, err := f.links.Create(ctx, link)
	require.NoError(t, err)

	_, _, _, err = f.svc.VerifyMagicLink(ctx, "expired-token")
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestVerifyMagicLinkUnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	for _, token := range []string{"", "   ", "never-issued"} {
		_, _, _, err := f.svc.VerifyMagicLink(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidLink)
	}
}

func TestVerifyMagicLinkConcurrent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestMagicLink(ctx, "race@example.com"))
	token := tokenFromLink(t, f.sender.last(t).LinkURL)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, err := f.svc.VerifyMagicLink(ctx, token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrInvalidLink)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent verification may succeed")
}

func TestGetCurrentUserRejectsBadTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetCurrentUser(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// valid signature, but the user is deactivated
	require.NoError(t, f.svc.RequestMagicLink(ctx, "gone@example.com"))
	token := tokenFromLink(t, f.sender.last(t).LinkURL)
	user, sessionToken, _, err := f.svc.VerifyMagicLink(ctx, token)
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, f.users.Update(ctx, user))

	_, err = f.svc.GetCurrentUser(ctx, sessionToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.users.Create(ctx, &domain.User{Email: "a@example.com", Username: "usera", IsActive: true})
	require.NoError(t, err)
	userA, err := f.users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	_, err = f.users.Create(ctx, &domain.User{Email: "b@example.com", Username: "userb", IsActive: true})
	require.NoError(t, err)

	// rename
	updated, err := f.svc.UpdateProfile(ctx, userA.ID, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", updated.Username)

	// collision
	_, err = f.svc.UpdateProfile(ctx, userA.ID, "userb")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// same name is a no-op
	same, err := f.svc.UpdateProfile(ctx, userA.ID, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", same.Username)

	// shape validation
	_, err = f.svc.UpdateProfile(ctx, userA.ID, "ab")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = f.svc.UpdateProfile(ctx, userA.ID, strings.Repeat("x", 101))
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

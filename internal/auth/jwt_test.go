package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polito-log/internal/domain"
)

const testSecret = "test-secret"

func newTestManager(t *testing.T, ttl time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(JWTConfig{
		Secret:    testSecret,
		Algorithm: "HS256",
		TokenTTL:  ttl,
		Issuer:    "polito-log-test",
	})
	require.NoError(t, err)
	return m
}

func TestJWTManagerIssueAndVerify(t *testing.T) {
	m := newTestManager(t, time.Hour)

	user := &domain.User{ID: 42, Email: "voter@example.com", Username: "voter"}
	token, expiresAt, err := m.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "voter@example.com", claims.Email)
	assert.Equal(t, "voter", claims.Username)
	assert.Equal(t, "polito-log-test", claims.Issuer)
}

func TestJWTManagerRejectsExpired(t *testing.T) {
	m := newTestManager(t, time.Hour)

	// sign a token whose exp is already in the past, with the same secret
	claims := Claims{
		Email:    "late@example.com",
		Username: "late",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t, time.Hour)
	other := newTestManager(t, time.Hour)
	other.cfg.Secret = "another-secret"

	token, _, err := other.Issue(&domain.User{ID: 1, Email: "a@example.com", Username: "a"})
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManagerRejectsMalformed(t *testing.T) {
	m := newTestManager(t, time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := m.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestNewJWTManagerValidation(t *testing.T) {
	_, err := NewJWTManager(JWTConfig{})
	assert.Error(t, err, "empty secret must be rejected")

	_, err = NewJWTManager(JWTConfig{Secret: "s", Algorithm: "RS256"})
	assert.Error(t, err, "asymmetric algorithms are not supported")

	m, err := NewJWTManager(JWTConfig{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, m.TokenTTL(), "default session lifetime is 7 days")
}

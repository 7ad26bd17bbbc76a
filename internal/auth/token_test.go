package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/testimonial-service/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	session, err := tm.GenerateToken(domain.Principal{UserID: "user-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.NotEmpty(t, session.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	parsed, err := tm.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.Principal.UserID)
	assert.Equal(t, domain.RoleAdmin, parsed.Principal.Role)
	assert.Equal(t, session.ID, parsed.ID)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	session, err := tm.GenerateToken(domain.Principal{UserID: "user-1", Role: domain.RoleUser})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(session.Token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	session, err := NewTokenManager("right", time.Hour).GenerateToken(domain.Principal{UserID: "u", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = NewTokenManager("wrong", time.Hour).ParseToken(session.Token)
	require.Error(t, err)
}

func TestTokenManager_Malformed(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).ParseToken("not.a.jwt")
	require.Error(t, err)
}

func TestTokenManager_RejectsUnsignedToken(t *testing.T) {
	claims := &Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "id",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).ParseToken(unsigned)
	require.Error(t, err)
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	session, err := tm.GenerateToken(domain.Principal{UserID: "user-1", Role: domain.Role("admin")})
	require.NoError(t, err)

	_, err = tm.ParseToken(session.Token)
	require.Error(t, err)
}

package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursework-sync/internal/models"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "dashboard"})

	token, err := svc.IssueToken("user-1", "a@b.test", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.test", claims.Email)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "dashboard"})

	expired, err := svc.IssueToken("user-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "dashboard"})
	forged, err := other.IssueToken("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongIssuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "elsewhere"})
	token, err := wrongIssuer.IssueToken("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceFallsBackToSubject(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	claims := &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	parsed, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-9", parsed.UserID)

	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(anonymous)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

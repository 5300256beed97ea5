package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/model"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(&config.Config{
		JWTSecret:         "test-secret",
		JWTExpiry:         time.Hour,
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
		BcryptCost:        bcrypt.MinCost,
	})
}

func TestAuthService_Login(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Login(model.AdminLoginRequest{Username: "admin", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Equal(t, "admin", resp.Admin.Username)
	require.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, TokenTypeAdmin, claims.TokenType)
	require.Equal(t, "admin", claims.Subject)
}

func TestAuthService_LoginRejects(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(model.AdminLoginRequest{Username: "admin", Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(model.AdminLoginRequest{Username: "root", Password: "s3cret-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	svc.cfg.AdminPasswordHash = ""
	_, err = svc.Login(model.AdminLoginRequest{Username: "admin", Password: "s3cret-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)

	other := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour})
	token, _, err := other.GenerateAdminToken("admin")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := svc.GenerateAdminToken("admin")
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthService_HashPassword(t *testing.T) {
	svc := newAuthService(t)

	hash, err := svc.HashPassword("another-pass")
	require.NoError(t, err)
	require.NoError(t, svc.CheckPassword(hash, "another-pass"))
	require.ErrorIs(t, svc.CheckPassword(hash, "nope"), ErrInvalidCredentials)
}

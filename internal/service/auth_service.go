package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/model"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenTypeAdmin marks tokens issued to the configured admin.
const TokenTypeAdmin = "admin"

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// AuthService checks the admin credentials and issues JWTs.
type AuthService struct {
	cfg *config.Config
	now func() time.Time
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg, now: time.Now}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies the admin credentials and returns a signed token.
func (s *AuthService) Login(req model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	if s.cfg.AdminPasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.AdminUsername)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if err := s.CheckPassword(s.cfg.AdminPasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.GenerateAdminToken(req.Username)
	if err != nil {
		return nil, err
	}
	return &model.AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Admin:     model.Admin{Username: req.Username},
	}, nil
}

// GenerateAdminToken creates a JWT for the admin.
func (s *AuthService) GenerateAdminToken(username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: TokenTypeAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

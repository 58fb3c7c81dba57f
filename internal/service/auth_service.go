package service

import (
	"time"

	"dictee/internal/config"
	"dictee/internal/security"
)

// AuthService guards authoring behind a single teacher password
type AuthService struct {
	passwordHash string
	tokens       *security.TokenIssuer
	csrf         *security.CSRFGenerator
}

// NewAuthService creates a new auth service. With an empty password hash
// authoring is open to everyone.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		passwordHash: cfg.PasswordHash,
		tokens:       security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		csrf:         security.NewCSRFGenerator(cfg.JWTSecret),
	}
}

// Enabled reports whether a teacher password is required
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// Login checks the teacher password and issues a token
func (s *AuthService) Login(password string) (token string, expires time.Time, err error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}
	if !security.CheckPassword(password, s.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.tokens.Issue()
}

// Authenticate validates a teacher token and returns its ID
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// CSRFToken returns the CSRF token bound to a teacher token ID
func (s *AuthService) CSRFToken(tokenID string) (string, error) {
	return s.csrf.GenerateToken(tokenID)
}

// ValidCSRF checks a CSRF token for cookie-authenticated writes
func (s *AuthService) ValidCSRF(tokenID, token string) bool {
	return s.csrf.ValidateToken(tokenID, token)
}

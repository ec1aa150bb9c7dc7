package services

import (
	"fmt"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/security"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

// TokenPair is an issued admin session.
type TokenPair struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthService issues and validates admin session tokens per tenant. The
// admin password is always compared as a bcrypt hash: either the stored
// ADMIN_PASSWORD_HASH, or a hash derived once at startup from the plaintext
// ADMIN_PASSWORD when only that is set.
type AuthService struct {
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
	passwordHash string
}

// NewAuthService creates the auth service.
func NewAuthService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	s := &AuthService{
		logger:      logger,
		perfTracker: perfTracker,
	}

	switch {
	case config.AdminPasswordHash != "":
		s.passwordHash = config.AdminPasswordHash
	case config.AdminPassword != "":
		hash, err := security.HashPassword(config.AdminPassword)
		if err != nil {
			logger.Auth().Error("Failed to hash admin password, login disabled", "error", err.Error())
		} else {
			s.passwordHash = hash
			logger.Auth().Warn("ADMIN_PASSWORD is set in plaintext; prefer ADMIN_PASSWORD_HASH")
		}
	}
	return s
}

// Login validates the admin password and issues a token pair.
func (s *AuthService) Login(tenantID, password string) (*TokenPair, error) {
	marker := s.perfTracker.StartOperation("auth_login", tenantID)
	defer marker.Complete()

	if s.passwordHash == "" {
		marker.SetSuccess(false)
		return nil, fmt.Errorf("admin password is not configured")
	}
	if !security.CheckPassword(s.passwordHash, password) {
		marker.SetSuccess(false)
		s.logger.Auth().Warn("Login rejected", "tenantId", tenantID)
		return nil, fmt.Errorf("invalid credentials")
	}

	pair, err := s.issuePair(tenantID)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	s.logger.Auth().Info("Admin session issued", "tenantId", tenantID, "expiresAt", pair.ExpiresAt)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := security.ValidateJWT(refreshToken, config.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	if kind, _ := claims["kind"].(string); kind != "refresh" {
		return nil, fmt.Errorf("token is not a refresh token")
	}
	tenantID, _ := claims["tenantId"].(string)
	if tenantID == "" {
		return nil, fmt.Errorf("refresh token missing tenant")
	}

	pair, err := s.issuePair(tenantID)
	if err != nil {
		return nil, err
	}
	s.logger.Auth().Info("Admin session refreshed", "tenantId", tenantID)
	return pair, nil
}

// Validate checks an access token and returns the tenant it belongs to.
func (s *AuthService) Validate(token string) (string, error) {
	claims, err := security.ValidateJWT(token, config.JWTSecret)
	if err != nil {
		return "", err
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return "", fmt.Errorf("token lacks admin role")
	}
	tenantID, _ := claims["tenantId"].(string)
	if tenantID == "" {
		return "", fmt.Errorf("token missing tenant")
	}
	return tenantID, nil
}

func (s *AuthService) issuePair(tenantID string) (*TokenPair, error) {
	token, err := security.GenerateAdminToken(tenantID, config.JWTSecret, config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := security.GenerateRefreshToken(tenantID, config.JWTSecret, config.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().UTC().Add(config.TokenTTL),
	}, nil
}

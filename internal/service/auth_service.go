package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// TokenRevoker marks refresh token IDs as revoked. Backed by Redis in
// production; nil disables revocation (tokens then live out their TTL).
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService handles signup, login and session lifecycle
type AuthService struct {
	profileRepo domain.ProfileRepository
	tokens      *auth.TokenManager
	revoker     TokenRevoker
	emailDomain string
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	profileRepo domain.ProfileRepository,
	tokens *auth.TokenManager,
	revoker TokenRevoker,
	emailDomain string,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if emailDomain == "" {
		emailDomain = "upkeep.local"
	}

	return &AuthService{
		profileRepo: profileRepo,
		tokens:      tokens,
		revoker:     revoker,
		emailDomain: emailDomain,
		logger:      logger,
	}
}

// AuthResult represents a signed-in session
type AuthResult struct {
	UserID       string      `json:"user_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	Name         string      `json:"name"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"` // seconds
	TokenType    string      `json:"token_type"`
}

// Register creates a new profile. Users pick a username, not an email; the
// email is synthesized as username@<domain> and never shown as an input.
func (s *AuthService) Register(username, password string, role domain.Role, name, phone string) (*AuthResult, error) {
	if username == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: username, password, and name are required", domain.ErrValidation)
	}

	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be tenant, agent, or landlord", domain.ErrValidation)
	}

	// Check if username already taken
	existing, err := s.profileRepo.GetByUsername(username)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("%w: username already taken", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	profile := &domain.Profile{
		Username:     username,
		Email:        fmt.Sprintf("%s@%s", username, s.emailDomain),
		PasswordHash: string(hash),
		Role:         role,
		Name:         name,
		Phone:        phone,
		IsActive:     true,
	}

	if err := s.profileRepo.Create(profile); err != nil {
		s.logger.Error("failed to create profile", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	return s.issueSession(profile)
}

// Login authenticates a profile and returns a token pair
func (s *AuthService) Login(username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	profile, err := s.profileRepo.GetByUsername(username)
	if err != nil {
		s.logger.Info("login attempt with unknown username", slog.String("username", username))
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("username", username))
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	result, err := s.issueSession(profile)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.String("user_id", profile.ID),
		slog.String("username", profile.Username),
		slog.String("role", string(profile.Role)),
	)

	return result, nil
}

// Refresh rotates a refresh token into a fresh token pair. The presented
// token is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(claims.UserID)
	if err != nil || !profile.IsActive {
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
	}

	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Error("failed to revoke rotated refresh token", slog.String("error", err.Error()))
			return nil, errors.New("failed to refresh session")
		}
	}

	return s.issueSession(profile)
}

// Logout revokes a refresh token. The caller is expected to clear its local
// session keys regardless of the outcome.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return err
	}

	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Error("failed to revoke refresh token", slog.String("error", err.Error()))
			return errors.New("failed to sign out")
		}
	}

	s.logger.Info("user signed out", slog.String("user_id", claims.UserID))
	return nil
}

// ChangePassword changes a profile's password
func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	if newPassword == "" || len(newPassword) < 8 {
		return fmt.Errorf("%w: new password must be at least 8 characters", domain.ErrValidation)
	}

	profile, err := s.profileRepo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	profile.PasswordHash = string(hash)
	if err := s.profileRepo.Update(profile); err != nil {
		s.logger.Error("failed to update password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	s.logger.Info("user changed password", slog.String("user_id", userID))
	return nil
}

func (s *AuthService) validRefreshClaims(ctx context.Context, refreshToken string) (*auth.Claims, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token required", domain.ErrValidation)
	}

	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil || claims.TokenType != auth.TokenTypeRefresh {
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Error("failed to check token revocation", slog.String("error", err.Error()))
			return nil, errors.New("failed to verify session")
		}
		if revoked {
			return nil, fmt.Errorf("%w: refresh token revoked", domain.ErrUnauthorized)
		}
	}

	return claims, nil
}

func (s *AuthService) issueSession(profile *domain.Profile) (*AuthResult, error) {
	accessToken, err := s.tokens.GenerateAccessToken(profile)
	if err != nil {
		s.logger.Error("failed to sign access token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(profile)
	if err != nil {
		s.logger.Error("failed to sign refresh token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	return &AuthResult{
		UserID:       profile.ID,
		Username:     profile.Username,
		Email:        profile.Email,
		Role:         profile.Role,
		Name:         profile.Name,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
		TokenType:    "Bearer",
	}, nil
}

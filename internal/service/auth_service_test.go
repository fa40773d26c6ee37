package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/security/auth"
)

func newTestAuthService(profiles *fakeProfileRepo) *AuthService {
	tokens := auth.NewTokenManager("test-secret-key", "upkeep-test")
	return NewAuthService(profiles, tokens, nil, "upkeep.local", nil)
}

func TestRegisterSynthesizesEmail(t *testing.T) {
	profiles := newFakeProfileRepo()
	svc := newTestAuthService(profiles)

	result, err := svc.Register("alice", "supersecret", domain.RoleTenant, "Alice", "07000000000")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if result.Email != "alice@upkeep.local" {
		t.Errorf("expected synthesized email alice@upkeep.local, got %s", result.Email)
	}
	if result.Role != domain.RoleTenant {
		t.Errorf("expected role tenant, got %s", result.Role)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected a token pair on registration")
	}

	stored, err := profiles.GetByUsername("alice")
	if err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	if stored.PasswordHash == "supersecret" {
		t.Error("password stored in plain text")
	}
	if !strings.HasSuffix(stored.Email, "@upkeep.local") {
		t.Errorf("stored email %s does not use the configured domain", stored.Email)
	}
}

func TestRegisterRejectsInvalidRole(t *testing.T) {
	svc := newTestAuthService(newFakeProfileRepo())

	_, err := svc.Register("bob", "supersecret", domain.Role("admin"), "Bob", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for unknown role, got %v", err)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	profiles := newFakeProfileRepo()
	svc := newTestAuthService(profiles)

	if _, err := svc.Register("carol", "supersecret", domain.RoleAgent, "Carol", ""); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	_, err := svc.Register("carol", "differentpw", domain.RoleTenant, "Other Carol", "")
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict for duplicate username, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestAuthService(newFakeProfileRepo())

	_, err := svc.Register("dave", "short", domain.RoleTenant, "Dave", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for short password, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	profiles := newFakeProfileRepo()
	svc := newTestAuthService(profiles)

	if _, err := svc.Register("erin", "supersecret", domain.RoleLandlord, "Erin", ""); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	result, err := svc.Login("erin", "supersecret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Role != domain.RoleLandlord {
		t.Errorf("expected landlord role, got %s", result.Role)
	}

	if _, err := svc.Login("erin", "wrongpassword"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login("nobody", "supersecret"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized for unknown username, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	profiles := newFakeProfileRepo()
	svc := newTestAuthService(profiles)

	result, err := svc.Register("frank", "supersecret", domain.RoleTenant, "Frank", "")
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	// An access token must not pass as a refresh token
	if _, err := svc.Refresh(context.Background(), result.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized for access token on refresh, got %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh with a valid refresh token failed: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("expected a fresh access token")
	}
}

func TestChangePassword(t *testing.T) {
	profiles := newFakeProfileRepo()
	svc := newTestAuthService(profiles)

	result, err := svc.Register("grace", "supersecret", domain.RoleTenant, "Grace", "")
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	if err := svc.ChangePassword(result.UserID, "wrongpassword", "newpassword1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized for wrong current password, got %v", err)
	}

	if err := svc.ChangePassword(result.UserID, "supersecret", "newpassword1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.Login("grace", "supersecret"); err == nil {
		t.Error("old password still accepted after change")
	}
	if _, err := svc.Login("grace", "newpassword1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

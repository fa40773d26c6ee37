package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/security/audit"
	"github.com/upkeephq/upkeep/internal/security/auth"
	"github.com/upkeephq/upkeep/internal/security/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func accessTokenFor(t *testing.T, tm *auth.TokenManager, id, username string, role domain.Role) string {
	t.Helper()
	token, err := tm.GenerateAccessToken(&domain.Profile{ID: id, Username: username, Role: role})
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	return token
}

// The rate limiter sits inside the JWT middleware so it keys buckets by the
// verified user, not by an empty ID.
func TestPerUserRateLimitAppliesToAuthenticatedRequests(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key", "upkeep-test")
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := JWTMiddleware(tm, discardLogger())(
		RateLimitMiddleware(limiter, discardLogger())(okHandler),
	)

	token := accessTokenFor(t, tm, "tenant-1", "alice", domain.RoleTenant)

	do := func(bearer string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do(token); code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", code)
	}
	if code := do(token); code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", code)
	}
	if code := do(token); code != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want 429", code)
	}

	// A different user gets a fresh bucket
	other := accessTokenFor(t, tm, "tenant-2", "bob", domain.RoleTenant)
	if code := do(other); code != http.StatusOK {
		t.Errorf("other user's first request: got %d, want 200", code)
	}
}

func TestRateLimitSkipsPublicPaths(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key", "upkeep-test")
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()

	chain := JWTMiddleware(tm, discardLogger())(
		RateLimitMiddleware(limiter, discardLogger())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		),
	)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("health request %d: got %d, want 200", i+1, rec.Code)
		}
	}
}

func TestStrictLimitAppliesBeforeAuth(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key", "upkeep-test")
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()

	chain := JWTMiddleware(tm, discardLogger())(
		RateLimitMiddleware(limiter, discardLogger())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		),
	)

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:55555"
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("11th login attempt from one address: got %d, want 429", last)
	}
}

// Audit entries for lifecycle actions must carry the authenticated user and
// role, which requires the audit middleware to run inside the JWT middleware.
func TestAuditRecordsAuthenticatedUser(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key", "upkeep-test")
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()

	var buf bytes.Buffer
	auditLogger := audit.NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	chain := JWTMiddleware(tm, discardLogger())(
		RateLimitMiddleware(limiter, discardLogger())(
			AuditMiddleware(auditLogger)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}),
			),
		),
	)

	token := accessTokenFor(t, tm, "agent-7", "carol", domain.RoleAgent)
	req := httptest.NewRequest(http.MethodPost, "/api/requests/req-123/assign", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("assign request: got %d, want 200", rec.Code)
	}

	entry := buf.String()
	if !strings.Contains(entry, `"user_id":"agent-7"`) {
		t.Errorf("audit entry missing user id: %s", entry)
	}
	if !strings.Contains(entry, `"role":"agent"`) {
		t.Errorf("audit entry missing role: %s", entry)
	}
	if !strings.Contains(entry, `"action":"assign_worker"`) {
		t.Errorf("audit entry missing action: %s", entry)
	}
}

func TestRefreshTokenRejectedOnAPIEndpoints(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key", "upkeep-test")

	refresh, err := tm.GenerateRefreshToken(&domain.Profile{ID: "tenant-1", Username: "alice", Role: domain.RoleTenant})
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	chain := JWTMiddleware(tm, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token on API endpoint: got %d, want 401", rec.Code)
	}
}

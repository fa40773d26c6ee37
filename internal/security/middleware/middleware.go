package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/upkeephq/upkeep/internal/security/audit"
	"github.com/upkeephq/upkeep/internal/security/auth"
	"github.com/upkeephq/upkeep/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// publicPath reports whether a path is reachable without a session.
func publicPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics",
		"/api/auth/register", "/api/auth/login", "/api/auth/refresh":
		return true
	}
	return false
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			if claims.TokenType != auth.TokenTypeAccess {
				log.Warn("non-access token presented on API endpoint",
					slog.String("token_type", claims.TokenType),
					slog.String("user_id", claims.UserID),
				)
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Pre-auth endpoints get a strict per-address limit
			if strings.HasPrefix(r.URL.Path, "/api/auth/") {
				host, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					host = r.RemoteAddr
				}
				if !limiter.AllowStrict(host, 10, time.Minute) {
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			userID := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				userID = claims.UserID
			}

			if !limiter.Allow(userID) {
				log.Warn("rate limit exceeded", slog.String("user_id", userID))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// transitionActions maps lifecycle endpoints to audit action names
var transitionActions = map[string]string{
	"assign":   "assign_worker",
	"approve":  "approve_request",
	"deny":     "deny_request",
	"complete": "complete_request",
}

func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			role := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				userID = claims.UserID
				role = string(claims.Role)
			}

			if r.Method == http.MethodPost && r.URL.Path == "/api/requests" {
				auditLog.LogAction(r.Context(), userID, role, "create_request", "maintenance_request", "", "initiated", "")
			}
			if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/requests/") {
				parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
				if len(parts) == 4 {
					if action, ok := transitionActions[parts[3]]; ok {
						auditLog.LogAction(r.Context(), userID, role, action, "maintenance_request", parts[2], "initiated", "")
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}

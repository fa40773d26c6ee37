package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upkeephq/upkeep/internal/domain"
)

// Token types carried in the claims so a refresh token can never be presented
// as an access token and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	UserID    string      `json:"user_id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret     string
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "upkeep"
	}
	return &TokenManager{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
	}
}

// GenerateAccessToken issues a short-lived access token for a profile
func (tm *TokenManager) GenerateAccessToken(p *domain.Profile) (string, error) {
	return tm.generate(p, TokenTypeAccess, tm.accessTTL)
}

// GenerateRefreshToken issues a long-lived refresh token for a profile
func (tm *TokenManager) GenerateRefreshToken(p *domain.Profile) (string, error) {
	return tm.generate(p, TokenTypeRefresh, tm.refreshTTL)
}

// AccessTTL returns the configured access token lifetime
func (tm *TokenManager) AccessTTL() time.Duration {
	return tm.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

func (tm *TokenManager) generate(p *domain.Profile, tokenType string, ttl time.Duration) (string, error) {
	if p == nil || p.ID == "" {
		return "", fmt.Errorf("profile required")
	}
	now := time.Now()
	claims := Claims{
		UserID:    p.ID,
		Username:  p.Username,
		Role:      p.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secret))
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}

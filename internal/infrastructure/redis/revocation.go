package redis

import (
	"context"
	"fmt"
	"time"
)

// RevocationStore marks refresh token IDs as revoked until they would have
// expired anyway. Signing out is a revocation, not a deletion: access tokens
// are short-lived and simply age out.
type RevocationStore struct {
	client *Client
}

// NewRevocationStore creates a revocation store over a Redis client
func NewRevocationStore(client *Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func revocationKey(jti string) string {
	return "revoked:" + jti
}

// Revoke marks a token ID as revoked for the given remaining lifetime
func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return fmt.Errorf("token id required")
	}
	if ttl <= 0 {
		// Already expired; nothing to persist
		return nil
	}
	return s.client.Set(ctx, revocationKey(jti), "1", ttl)
}

// IsRevoked reports whether a token ID has been revoked
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.client.Exists(ctx, revocationKey(jti))
}

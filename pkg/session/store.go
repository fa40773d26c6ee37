package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
)

// The four well-known storage keys a signed-in session occupies. Clearing a
// session must remove exactly these.
const (
	KeyAccessToken  = "upkeep.access_token"
	KeyRefreshToken = "upkeep.refresh_token"
	KeyProfile      = "upkeep.profile"
	KeyTokenExpiry  = "upkeep.token_expiry"
)

// WellKnownKeys lists every key a session writes.
var WellKnownKeys = []string{KeyAccessToken, KeyRefreshToken, KeyProfile, KeyTokenExpiry}

// Profile is the locally cached slice of the signed-in profile
type Profile struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	Name     string      `json:"name"`
}

// Store is a file-backed key-value session store. It exists to recover from
// invalid-refresh-token states: Clear wipes every session key in one call.
type Store struct {
	mu      sync.Mutex
	path    string
	values  map[string]string
	profile *Profile
}

// Open loads a session store from path, creating an empty one when the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session store: %w", err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse session store: %w", err)
	}

	if raw, ok := s.values[KeyProfile]; ok {
		p := &Profile{}
		if err := json.Unmarshal([]byte(raw), p); err == nil {
			s.profile = p
		}
	}

	return s, nil
}

// SaveSession persists a signed-in session under the four well-known keys
func (s *Store) SaveSession(accessToken, refreshToken string, profile Profile, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawProfile, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	s.values[KeyAccessToken] = accessToken
	s.values[KeyRefreshToken] = refreshToken
	s.values[KeyProfile] = string(rawProfile)
	s.values[KeyTokenExpiry] = expiry.Format(time.RFC3339)
	s.profile = &profile

	return s.persist()
}

// Get returns the value stored under key
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Profile returns the cached profile, or nil when signed out
func (s *Store) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// AccessToken returns the stored access token, empty when signed out
func (s *Store) AccessToken() string {
	v, _ := s.Get(KeyAccessToken)
	return v
}

// RefreshToken returns the stored refresh token, empty when signed out
func (s *Store) RefreshToken() string {
	v, _ := s.Get(KeyRefreshToken)
	return v
}

// Clear removes all well-known session keys and resets the cached profile.
// Used both on sign-out and to recover from invalid-refresh-token errors.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range WellKnownKeys {
		delete(s.values, key)
	}
	s.profile = nil

	return s.persist()
}

func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session store: %w", err)
	}
	return nil
}

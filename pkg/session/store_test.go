package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/upkeephq/upkeep/internal/domain"
)

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := Open(path)
	require.NoError(t, err)

	profile := Profile{ID: "p-1", Username: "alice", Role: domain.RoleTenant, Name: "Alice"}
	err = s.SaveSession("access-tok", "refresh-tok", profile, time.Now().Add(15*time.Minute))
	require.NoError(t, err)

	reloaded, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, "access-tok", reloaded.AccessToken())
	require.Equal(t, "refresh-tok", reloaded.RefreshToken())
	require.NotNil(t, reloaded.Profile())
	require.Equal(t, "alice", reloaded.Profile().Username)
}

func TestClearRemovesAllWellKnownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := Open(path)
	require.NoError(t, err)

	profile := Profile{ID: "p-1", Username: "alice", Role: domain.RoleTenant, Name: "Alice"}
	require.NoError(t, s.SaveSession("access-tok", "refresh-tok", profile, time.Now().Add(time.Hour)))

	require.NoError(t, s.Clear())

	for _, key := range WellKnownKeys {
		_, ok := s.Get(key)
		require.Falsef(t, ok, "key %s should be removed", key)
	}
	require.Nil(t, s.Profile())

	// Cleared state survives reload
	reloaded, err := Open(path)
	require.NoError(t, err)
	require.Empty(t, reloaded.AccessToken())
	require.Nil(t, reloaded.Profile())
}

package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestCredentialsExpired(t *testing.T) {
	fresh := &Credentials{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, fresh.Expired())

	stale := &Credentials{ExpiresAt: time.Now().Add(-time.Hour)}
	assert.True(t, stale.Expired())

	// Tokens inside the refresh buffer count as expired.
	closeCall := &Credentials{ExpiresAt: time.Now().Add(time.Minute)}
	assert.True(t, closeCall.Expired())
}

func TestFileFallbackRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	creds := &Credentials{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, saveToFile(mustJSON(t, creds)))

	loaded, err := loadFromFile()
	require.NoError(t, err)
	assert.Equal(t, creds.AccessToken, loaded.AccessToken)
	assert.Equal(t, creds.RefreshToken, loaded.RefreshToken)
	assert.True(t, creds.ExpiresAt.Equal(loaded.ExpiresAt))

	require.NoError(t, deleteFile())
	_, err = loadFromFile()
	assert.Error(t, err)
}

func TestLoadFromFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := loadFromFile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored credentials")
}

func TestRandomTokenIsURLSafeAndUnique(t *testing.T) {
	a, err := randomToken(32)
	require.NoError(t, err)
	b, err := randomToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "=")
}

func TestNewFlowGeneratesDistinctState(t *testing.T) {
	f1, err := NewFlow()
	require.NoError(t, err)
	f2, err := NewFlow()
	require.NoError(t, err)

	assert.NotEqual(t, f1.state, f2.state)
	assert.NotEqual(t, f1.verifier, f2.verifier)
}

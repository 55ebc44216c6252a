package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xsweep/internal/config"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xsweep", "tokens.json")
	store := NewTokenStore(path)
	assert.False(t, store.IsValid())

	require.NoError(t, store.Save(StoredToken{AccessToken: "tok", AccessSecret: "sec"}))
	assert.True(t, store.IsValid())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", loaded.AccessToken)
	assert.False(t, loaded.CapturedAt.IsZero())

	require.NoError(t, store.Clear())
	assert.False(t, store.IsValid())
	assert.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestTokenStoreRejectsIncompleteToken(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, store.Save(StoredToken{AccessToken: "tok"}))

	assert.False(t, store.IsValid())
}

func TestAccessTokenPrefersEnvironment(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, store.Save(StoredToken{AccessToken: "stored", AccessSecret: "stored-secret"}))
	m := NewManager(store, "ck", "cs")

	t.Setenv(config.EnvAccessToken, "")
	t.Setenv(config.EnvAccessSecret, "")
	token, secret, err := m.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "stored", token)
	assert.Equal(t, "stored-secret", secret)

	t.Setenv(config.EnvAccessToken, "env")
	t.Setenv(config.EnvAccessSecret, "env-secret")
	token, secret, err = m.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "env", token)
	assert.Equal(t, "env-secret", secret)
}

func TestAccessTokenNotLoggedIn(t *testing.T) {
	t.Setenv(config.EnvAccessToken, "")
	t.Setenv(config.EnvAccessSecret, "")
	m := NewManager(NewTokenStore(filepath.Join(t.TempDir(), "tokens.json")), "ck", "cs")

	_, _, err := m.AccessToken()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.False(t, m.IsAuthenticated())
}

func TestRememberRecordsAccount(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, store.Save(StoredToken{AccessToken: "tok", AccessSecret: "sec"}))
	m := NewManager(store, "ck", "cs")

	require.NoError(t, m.Remember("42", "me"))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "42", loaded.UserID)
	assert.Equal(t, "me", loaded.Username)
	assert.Equal(t, "tok", loaded.AccessToken)
}

func TestLoginRequiresConsumerKey(t *testing.T) {
	m := NewManager(NewTokenStore(filepath.Join(t.TempDir(), "tokens.json")), "", "")

	_, err := m.LoginManual(nil, nil)
	assert.ErrorContains(t, err, "missing consumer key")
}

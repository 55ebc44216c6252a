package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/xsweep/internal/config"
)

// TokenStore persists the OAuth1 access token obtained by Login
type TokenStore struct {
	path string
}

// StoredToken is the persisted access token
type StoredToken struct {
	AccessToken  string    `json:"access_token"`
	AccessSecret string    `json:"access_secret"`
	UserID       string    `json:"user_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	CapturedAt   time.Time `json:"captured_at"`
}

// NewTokenStore creates a token store at the given path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// DefaultTokenStorePath returns the default path for token storage
func DefaultTokenStorePath() (string, error) {
	configDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tokens.json"), nil
}

// Path returns where the token is stored
func (ts *TokenStore) Path() string {
	return ts.path
}

// Save persists the token to disk, readable only by the current user
func (ts *TokenStore) Save(token StoredToken) error {
	if err := os.MkdirAll(filepath.Dir(ts.path), 0700); err != nil {
		return err
	}
	if token.CapturedAt.IsZero() {
		token.CapturedAt = time.Now()
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ts.path, data, 0600)
}

// Load retrieves the token from disk
func (ts *TokenStore) Load() (*StoredToken, error) {
	data, err := os.ReadFile(ts.path)
	if err != nil {
		return nil, err
	}

	var stored StoredToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

// IsValid reports whether a complete token is stored. X user tokens do not
// expire, so there is no expiry check.
func (ts *TokenStore) IsValid() bool {
	stored, err := ts.Load()
	if err != nil {
		return false
	}
	return stored.AccessToken != "" && stored.AccessSecret != ""
}

// Clear removes the stored token
func (ts *TokenStore) Clear() error {
	err := os.Remove(ts.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

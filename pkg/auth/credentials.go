// Package auth handles Deskbox Cloud authentication: a browser-based OAuth
// flow with PKCE, plus secure storage of the resulting tokens in the OS
// keychain with a file fallback.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	KeyringService = "deskbox-cli"
	KeyringUser    = "oauth-tokens"

	credentialsFile = "credentials"
)

// Credentials are the stored OAuth tokens for Deskbox Cloud.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is expired or about to expire.
// A five minute buffer avoids handing out tokens that die mid-request.
func (c *Credentials) Expired() bool {
	return time.Now().Add(5 * time.Minute).After(c.ExpiresAt)
}

// Save stores credentials in the OS keychain, falling back to a
// mode-0600 file under the config directory when no keychain is available.
func Save(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := keyring.Set(KeyringService, KeyringUser, string(data)); err != nil {
		return saveToFile(data)
	}
	return nil
}

// Load retrieves stored credentials, preferring the OS keychain.
func Load() (*Credentials, error) {
	data, err := keyring.Get(KeyringService, KeyringUser)
	if err != nil {
		return loadFromFile()
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials from keychain: %w", err)
	}
	return &creds, nil
}

// Delete removes stored credentials from both the keychain and the file
// fallback. A missing keychain entry is not an error.
func Delete() error {
	err := keyring.Delete(KeyringService, KeyringUser)
	_ = deleteFile()
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete credentials from keychain: %w", err)
	}
	return nil
}

// ConfigDir returns (and creates) the CLI configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "deskbox")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

func saveToFile(data []byte) error {
	dir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to resolve config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, credentialsFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func loadFromFile() (*Credentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, credentialsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no stored credentials found")
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials file: %w", err)
	}
	return &creds, nil
}

func deleteFile() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(dir, credentialsFile))
}

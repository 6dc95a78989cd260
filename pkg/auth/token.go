package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

// APIKeyEnv is checked before stored OAuth credentials.
const APIKeyEnv = "DESKBOX_API_KEY"

// AccessToken resolves a bearer token for Deskbox Cloud: the API key from
// the environment when set, otherwise stored OAuth credentials, refreshed
// if expired.
func AccessToken(ctx context.Context) (string, error) {
	if key := os.Getenv(APIKeyEnv); key != "" {
		pterm.Debug.Println("Using API key authentication")
		return key, nil
	}

	creds, err := Load()
	if err != nil {
		return "", fmt.Errorf("not authenticated: run 'deskbox login' or set %s", APIKeyEnv)
	}
	if creds.Expired() && creds.RefreshToken != "" {
		pterm.Debug.Println("Access token expired, refreshing")
		refreshed, err := Refresh(ctx, creds)
		if err != nil {
			return "", fmt.Errorf("expired credentials, please run 'deskbox login': %w", err)
		}
		if err := Save(refreshed); err != nil {
			pterm.Warning.Printf("Failed to save refreshed credentials: %v\n", err)
		}
		creds = refreshed
	}
	return creds.AccessToken, nil
}

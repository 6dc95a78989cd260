package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://auth.deskbox.sh/authorize"
	tokenURL = "https://auth.deskbox.sh/token"

	clientID = "deskbox-cli"

	flowTimeout = 5 * time.Minute
)

// successHTML is served to the browser once the callback carries a valid
// authorization code.
const successHTML = `<!DOCTYPE html>
<html>
<head><title>Deskbox</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>Signed in</h1>
<p>You can close this tab and return to the terminal.</p>
</body>
</html>`

// Flow is one browser-based OAuth authorization with PKCE. Create it with
// NewFlow and run it once.
type Flow struct {
	cfg      *oauth2.Config
	verifier string
	state    string
}

// NewFlow prepares an OAuth flow: PKCE verifier plus a random state token.
// The redirect URL is filled in by Run once a callback port is bound.
func NewFlow() (*Flow, error) {
	verifier, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	state, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}
	return &Flow{
		cfg: &oauth2.Config{
			ClientID: clientID,
			Scopes:   []string{"openid", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		verifier: verifier,
		state:    state,
	}, nil
}

// Run opens the browser to the authorization URL, waits for the local
// callback, and exchanges the code for tokens. It blocks until the flow
// completes, the context is cancelled, or flowTimeout elapses.
func (f *Flow) Run(ctx context.Context) (*Credentials, error) {
	listener, port, err := callbackListener()
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback port: %w", err)
	}
	f.cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	challenge := sha256.Sum256([]byte(f.verifier))
	loginURL := f.cfg.AuthCodeURL(f.state,
		oauth2.SetAuthURLParam("code_challenge", base64.RawURLEncoding.EncodeToString(challenge[:])),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	// Print the URL first so headless environments can complete the flow
	// manually.
	pterm.Info.Println("Authentication URL:")
	pterm.Printf("  %s\n\n", loginURL)
	if err := browser.OpenURL(loginURL); err != nil {
		pterm.Warning.Println("Could not open browser automatically")
		pterm.Info.Println("Please open the URL above manually")
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != f.state {
			http.Error(w, "invalid state parameter", http.StatusBadRequest)
			errChan <- fmt.Errorf("invalid state parameter")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			errChan <- fmt.Errorf("missing authorization code")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(successHTML))
		codeChan <- code
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server error: %w", err)
		}
	}()
	defer server.Shutdown(context.Background())

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-time.After(flowTimeout):
		return nil, fmt.Errorf("authentication timed out after %s", flowTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := f.cfg.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", f.verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return &Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Refresh trades a refresh token for a new access token.
func Refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}
	cfg := &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	token, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = creds.RefreshToken
	}
	return &Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// callbackListener binds one of a small set of uncommon loopback ports; these
// are the redirect URIs registered with the auth server. Any free port is the
// last resort.
func callbackListener() (net.Listener, int, error) {
	preferred := []int{58612, 58613, 58614, 58615, 58616, 58617}
	for _, port := range preferred {
		l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return l, port, nil
		}
	}
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return nil, 0, fmt.Errorf("no available callback port")
	}
	return l, l.Addr().(*net.TCPAddr).Port, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

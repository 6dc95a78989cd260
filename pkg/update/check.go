// Package update implements the background new-release check: it queries
// GitHub Releases at most once per frequency window and prints an upgrade
// banner when a newer stable version exists.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pterm/pterm"
)

const (
	defaultReleasesAPI = "https://api.github.com/repos/deskbox-sh/deskbox/releases"
	userAgent          = "deskbox-cli/update-check"
	cacheRelPath       = "deskbox/update-check.json"
	requestTimeout     = 3 * time.Second
)

// cache throttles the network check and remembers the last version the
// banner advertised.
type cache struct {
	LastChecked      time.Time `json:"last_checked"`
	LastShownVersion string    `json:"last_shown_version"`
}

// MaybeShowMessage checks for a newer release and prints an upgrade banner.
// It is best-effort: every failure path is silent, and the network request
// is bounded by a short timeout.
func MaybeShowMessage(ctx context.Context, currentVersion string, frequency time.Duration) {
	defer func() { _ = recover() }()

	if os.Getenv("DESKBOX_NO_UPDATE_CHECK") == "1" {
		return
	}
	current, err := parseVersion(currentVersion)
	if err != nil {
		// Dev builds carry non-semver versions; nothing to compare against.
		return
	}
	if trivialInvocation() {
		return
	}

	cachePath := filepath.Join(cacheDir(), cacheRelPath)
	c, _ := loadCache(cachePath)

	if envFreq := os.Getenv("DESKBOX_UPDATE_CHECK_FREQUENCY"); envFreq != "" {
		if d, err := time.ParseDuration(envFreq); err == nil && d > 0 {
			frequency = d
		}
	}
	if !c.LastChecked.IsZero() && time.Now().UTC().Sub(c.LastChecked) < frequency {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	tag, releaseURL, err := fetchLatest(ctx)
	c.LastChecked = time.Now().UTC()
	if err == nil {
		if latest, perr := parseVersion(tag); perr == nil && latest.GreaterThan(current) {
			printBanner(current.String(), latest.String(), releaseURL)
			c.LastShownVersion = tag
		}
	}
	_ = saveCache(cachePath, c)
}

func parseVersion(v string) (*semver.Version, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	if v == "" {
		return nil, errors.New("empty version")
	}
	return semver.NewVersion(v)
}

// fetchLatest queries GitHub Releases and returns the newest stable tag.
// Releases arrive newest first, so the first non-draft non-prerelease wins.
func fetchLatest(ctx context.Context) (tag string, url string, err error) {
	apiURL := os.Getenv("DESKBOX_RELEASES_URL")
	if apiURL == "" {
		apiURL = defaultReleasesAPI
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var releases []struct {
		TagName    string `json:"tag_name"`
		HTMLURL    string `json:"html_url"`
		Draft      bool   `json:"draft"`
		Prerelease bool   `json:"prerelease"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return "", "", err
	}
	for _, r := range releases {
		if r.Draft || r.Prerelease || r.TagName == "" {
			continue
		}
		return r.TagName, r.HTMLURL, nil
	}
	return "", "", errors.New("no stable releases found")
}

func printBanner(current, latest, url string) {
	pterm.Println()
	pterm.Info.Printf("A new release of deskbox is available: %s → %s\n", current, latest)
	if url != "" {
		pterm.Info.Printf("Release notes: %s\n", url)
	}
	pterm.Info.Printf("To upgrade, run: %s\n", upgradeCommand())
}

// upgradeCommand infers the install method from the binary's path.
func upgradeCommand() string {
	exe, err := os.Executable()
	if err == nil {
		if real, rerr := filepath.EvalSymlinks(exe); rerr == nil {
			exe = real
		}
	}
	which, _ := exec.LookPath("deskbox")
	for _, p := range []string{exe, which} {
		p = strings.ToLower(filepath.ToSlash(p))
		switch {
		case strings.Contains(p, "homebrew") || strings.Contains(p, "/cellar/"):
			return "brew upgrade deskbox-sh/tap/deskbox"
		case strings.Contains(p, "/go/bin/"):
			return "go install github.com/deskbox-sh/deskbox/cmd/deskbox@latest"
		}
	}
	return "brew upgrade deskbox-sh/tap/deskbox"
}

func cacheDir() string {
	if d := os.Getenv("XDG_CACHE_HOME"); d != "" {
		return d
	}
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".cache")
	}
	return "."
}

func loadCache(path string) (cache, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache{}, nil
		}
		return cache{}, err
	}
	var c cache
	if err := json.Unmarshal(b, &c); err != nil {
		return cache{}, err
	}
	return c, nil
}

func saveCache(path string, c cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// trivialInvocation reports argv patterns (help, completion, version) where
// an update banner would be noise.
func trivialInvocation() bool {
	for _, a := range os.Args[1:] {
		if a == "--version" || a == "-v" || a == "help" || a == "completion" {
			return true
		}
	}
	return false
}

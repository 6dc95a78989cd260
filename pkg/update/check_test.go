package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.String())

	v, err = parseVersion("0.4.0")
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", v.String())

	_, err = parseVersion("dev")
	assert.Error(t, err)
	_, err = parseVersion("")
	assert.Error(t, err)
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "update-check.json")

	c, err := loadCache(path)
	require.NoError(t, err, "missing cache file should not be an error")
	assert.True(t, c.LastChecked.IsZero())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, saveCache(path, cache{LastChecked: now, LastShownVersion: "v0.2.0"}))

	c, err = loadCache(path)
	require.NoError(t, err)
	assert.True(t, c.LastChecked.Equal(now))
	assert.Equal(t, "v0.2.0", c.LastShownVersion)
}

func TestFetchLatestSkipsDraftsAndPrereleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"tag_name": "v1.3.0-rc.1", "html_url": "u1", "prerelease": true},
			{"tag_name": "v1.2.9", "html_url": "u2", "draft": true},
			{"tag_name": "v1.2.8", "html_url": "https://example.com/v1.2.8"}
		]`))
	}))
	defer srv.Close()
	t.Setenv("DESKBOX_RELEASES_URL", srv.URL)

	tag, url, err := fetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.8", tag)
	assert.Equal(t, "https://example.com/v1.2.8", url)
}

func TestFetchLatestNoStableRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"tag_name": "v2.0.0-beta", "prerelease": true}]`))
	}))
	defer srv.Close()
	t.Setenv("DESKBOX_RELEASES_URL", srv.URL)

	_, _, err := fetchLatest(context.Background())
	assert.Error(t, err)
}

package docker

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/boyter/gocodewalker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarBuildContext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.sh"), []byte("echo hi\n"), 0o755))

	r, err := tarBuildContext(dir)
	require.NoError(t, err)

	entries := map[string]string{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}
	assert.Equal(t, "FROM scratch\n", entries["Dockerfile"])
	assert.Equal(t, "echo hi\n", entries["app.sh"])
}

func TestWriteTarEntriesErrorStopsWalker(t *testing.T) {
	queue := make(chan *gocodewalker.File, 1)
	go func() {
		queue <- &gocodewalker.File{Location: "/does/not/exist"}
		queue <- &gocodewalker.File{Location: "/does/not/exist/either"}
		close(queue)
	}()

	terminated := false
	err := writeTarEntries(tar.NewWriter(&bytes.Buffer{}), "/", queue, func() { terminated = true })

	require.Error(t, err)
	assert.True(t, terminated, "walker must be terminated on error")
	// The queue was drained, so a blocked walker send cannot leak.
	_, open := <-queue
	assert.False(t, open)
}

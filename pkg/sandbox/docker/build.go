package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/boyter/gocodewalker"
	buildtypes "github.com/docker/docker/api/types/build"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

// BuildTemplate builds the image tag name from the directory dir, which must
// contain a Dockerfile. The build context honors .gitignore and .ignore
// files so local junk (node_modules, .git) never reaches the daemon.
// Resource sizing is recorded as labels on the image for providers that
// schedule from templates; the Docker backend itself applies sizing at
// container create time.
func (p *Provider) BuildTemplate(ctx context.Context, dir, name string, res sandbox.Resources) error {
	if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err != nil {
		return fmt.Errorf("no Dockerfile in %s: %w", dir, err)
	}

	buildCtx, err := tarBuildContext(dir)
	if err != nil {
		return fmt.Errorf("failed to assemble build context: %w", err)
	}

	labels := map[string]string{labelManaged: "true"}
	if res.CPUCores > 0 {
		labels[labelName+".cpu"] = fmt.Sprintf("%g", res.CPUCores)
	}
	if res.MemoryMB > 0 {
		labels[labelName+".memory_mb"] = fmt.Sprintf("%d", res.MemoryMB)
	}

	resp, err := p.cli.ImageBuild(ctx, buildCtx, buildtypes.ImageBuildOptions{
		Tags:       []string{name},
		Dockerfile: "Dockerfile",
		Remove:     true,
		Labels:     labels,
	})
	if err != nil {
		return fmt.Errorf("failed to build template %s: %w", name, err)
	}
	defer resp.Body.Close()
	return drainBuildOutput(resp.Body)
}

// tarBuildContext walks dir with gocodewalker (which applies .gitignore
// semantics) and produces an in-memory tar of the surviving files.
func tarBuildContext(dir string) (io.Reader, error) {
	queue := make(chan *gocodewalker.File, 128)
	walker := gocodewalker.NewFileWalker(dir, queue)

	walkErr := make(chan error, 1)
	go func() {
		walkErr <- walker.Start()
	}()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := writeTarEntries(tw, dir, queue, walker.Terminate); err != nil {
		return nil, err
	}
	if err := <-walkErr; err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// writeTarEntries copies every queued file into the tar stream. On failure
// it terminates the walker and drains the queue so the walker goroutine
// never stays blocked sending into a full channel.
func writeTarEntries(tw *tar.Writer, dir string, queue chan *gocodewalker.File, terminate func()) error {
	for f := range queue {
		if err := writeTarEntry(tw, dir, f.Location); err != nil {
			terminate()
			for range queue {
			}
			return err
		}
	}
	return nil
}

func writeTarEntry(tw *tar.Writer, dir, location string) error {
	rel, err := filepath.Rel(dir, location)
	if err != nil {
		return err
	}
	info, err := os.Stat(location)
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Name: filepath.ToSlash(rel),
		Mode: int64(info.Mode().Perm()),
		Size: info.Size(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	file, err := os.Open(location)
	if err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// drainBuildOutput consumes the daemon's JSON progress stream and surfaces
// the first build error, if any.
func drainBuildOutput(r io.Reader) error {
	dec := json.NewDecoder(r)
	for {
		var msg struct {
			Error string `json:"error"`
		}
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read build output: %w", err)
		}
		if msg.Error != "" {
			return fmt.Errorf("template build failed: %s", strings.TrimSpace(msg.Error))
		}
	}
}

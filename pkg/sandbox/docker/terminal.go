package docker

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

// terminal adapts a hijacked exec stream to the sandbox.Terminal interface.
type terminal struct {
	cli     client.APIClient
	execID  string
	reader  io.Reader
	conn    net.Conn
	closeFn func()
}

var _ sandbox.Terminal = (*terminal)(nil)

func (t *terminal) Read(p []byte) (int, error)  { return t.reader.Read(p) }
func (t *terminal) Write(p []byte) (int, error) { return t.conn.Write(p) }

func (t *terminal) Close() error {
	t.closeFn()
	return nil
}

func (t *terminal) Resize(ctx context.Context, rows, cols int) error {
	err := t.cli.ContainerExecResize(ctx, t.execID, containertypes.ResizeOptions{
		Height: uint(rows),
		Width:  uint(cols),
	})
	if err != nil {
		return fmt.Errorf("failed to resize terminal: %w", err)
	}
	return nil
}

// Wait polls the exec until the command exits. Docker has no blocking wait
// for execs, so this is the same poll the docker CLI does.
func (t *terminal) Wait(ctx context.Context) (int, error) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		inspect, err := t.cli.ContainerExecInspect(ctx, t.execID)
		if err != nil {
			return 0, fmt.Errorf("failed to inspect exec: %w", err)
		}
		if !inspect.Running {
			return inspect.ExitCode, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

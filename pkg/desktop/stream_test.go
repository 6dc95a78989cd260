package desktop

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/sandboxtest"
)

// streamFake wires a Fake whose process table starts empty: the pgrep check
// fails until a VNC server is "started", and the proxy port is listening as
// soon as the proxy launches.
func streamFake() *sandboxtest.Fake {
	fake := &sandboxtest.Fake{SandboxID: "sb-1"}
	vncStarted := false
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		switch {
		case strings.HasPrefix(cmd, "pgrep"):
			if vncStarted {
				return &sandbox.CommandResult{ExitCode: 0, Output: "4242"}, nil
			}
			return &sandbox.CommandResult{ExitCode: 1}, nil
		case strings.Contains(cmd, "netstat"):
			return &sandbox.CommandResult{ExitCode: 0}, nil
		default:
			return &sandbox.CommandResult{ExitCode: 0}, nil
		}
	}
	fake.RunBackgroundFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.Process, error) {
		if strings.HasPrefix(cmd, "x11vnc") {
			vncStarted = true
		}
		return &sandbox.Process{PID: 5151}, nil
	}
	return fake
}

func TestStreamStartThenDoubleStartFails(t *testing.T) {
	d := newTestDesktop(streamFake())
	s := d.Stream()
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, StartOptions{}))
	assert.ErrorIs(t, s.Start(ctx, StartOptions{}), ErrStreamAlreadyRunning)
}

func TestStreamURLBeforeStartFails(t *testing.T) {
	d := newTestDesktop(streamFake())

	_, err := d.Stream().URL(URLOptions{})
	assert.ErrorIs(t, err, ErrStreamNotStarted)
}

func TestStreamAuthKeyBeforeStartFails(t *testing.T) {
	d := newTestDesktop(streamFake())

	_, err := d.Stream().AuthKey()
	assert.ErrorIs(t, err, ErrNoAuthKey)
}

func TestStreamAuthKeyWithoutAuthFails(t *testing.T) {
	d := newTestDesktop(streamFake())
	s := d.Stream()

	require.NoError(t, s.Start(context.Background(), StartOptions{}))
	_, err := s.AuthKey()
	assert.ErrorIs(t, err, ErrNoAuthKey)
}

func TestStreamStartWithAuth(t *testing.T) {
	fake := streamFake()
	d := newTestDesktop(fake)
	s := d.Stream()

	require.NoError(t, s.Start(context.Background(), StartOptions{RequireAuth: true}))

	key, err := s.AuthKey()
	require.NoError(t, err)
	assert.Len(t, key, 16)

	u, err := s.URL(URLOptions{AuthKey: key})
	require.NoError(t, err)
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, key, parsed.Query().Get("password"))

	// The password file must be provisioned before the server starts.
	joined := strings.Join(fake.Commands(), "\n")
	assert.Contains(t, joined, "x11vnc -storepasswd")
	background := strings.Join(fake.BackgroundCommands(), "\n")
	assert.Contains(t, background, "-rfbauth")
	assert.NotContains(t, background, "-nopw")
}

func TestStreamStartWithoutAuthUsesNopw(t *testing.T) {
	fake := streamFake()
	d := newTestDesktop(fake)

	require.NoError(t, d.Stream().Start(context.Background(), StartOptions{}))
	background := strings.Join(fake.BackgroundCommands(), "\n")
	assert.Contains(t, background, "-nopw")
}

func TestStreamURLDefaults(t *testing.T) {
	d := newTestDesktop(streamFake())
	s := d.Stream()
	require.NoError(t, s.Start(context.Background(), StartOptions{}))

	u, err := s.URL(URLOptions{})
	require.NoError(t, err)
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "/vnc.html", parsed.Path)
	q := parsed.Query()
	assert.Equal(t, "true", q.Get("autoconnect"))
	assert.Equal(t, "scale", q.Get("resize"))
	assert.Empty(t, q.Get("view_only"))
	assert.Empty(t, q.Get("password"))
}

func TestStreamURLOptions(t *testing.T) {
	d := newTestDesktop(streamFake())
	s := d.Stream()
	require.NoError(t, s.Start(context.Background(), StartOptions{}))

	off := false
	u, err := s.URL(URLOptions{AutoConnect: &off, ViewOnly: true, Resize: "remote"})
	require.NoError(t, err)
	parsed, _ := url.Parse(u)
	q := parsed.Query()
	assert.Empty(t, q.Get("autoconnect"))
	assert.Equal(t, "true", q.Get("view_only"))
	assert.Equal(t, "remote", q.Get("resize"))

	_, err = s.URL(URLOptions{Resize: "stretch"})
	assert.Error(t, err)
}

func TestStreamStopIsIdempotent(t *testing.T) {
	fake := streamFake()
	d := newTestDesktop(fake)
	s := d.Stream()
	ctx := context.Background()

	// Stopping before anything ran is a no-op.
	require.NoError(t, s.Stop(ctx))

	require.NoError(t, s.Start(ctx, StartOptions{}))
	require.NoError(t, s.Stop(ctx))

	joined := strings.Join(fake.Commands(), "\n")
	assert.Contains(t, joined, "pkill -x x11vnc")
	assert.Contains(t, joined, "kill 5151")
}

func TestStreamAttachResolvesViewerURL(t *testing.T) {
	d := newTestDesktop(&sandboxtest.Fake{SandboxID: "sb-1"})
	s := d.Stream()
	ctx := context.Background()

	require.NoError(t, s.Attach(ctx, 7070))

	u, err := s.URL(URLOptions{})
	require.NoError(t, err)
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "7070-sb-1.preview.test", parsed.Host)
	assert.Equal(t, "/vnc.html", parsed.Path)
}

func TestStreamAttachDefaultsWebPort(t *testing.T) {
	d := newTestDesktop(&sandboxtest.Fake{SandboxID: "sb-1"})
	s := d.Stream()

	require.NoError(t, s.Attach(context.Background(), 0))

	u, err := s.URL(URLOptions{})
	require.NoError(t, err)
	assert.Contains(t, u, "6080-sb-1")
}

func TestStreamStopWithoutRecordedPIDKillsProxyByName(t *testing.T) {
	// Everything is running but this controller started none of it, so the
	// proxy has no recorded pid and must be killed by name.
	fake := &sandboxtest.Fake{}
	d := newTestDesktop(fake)

	require.NoError(t, d.Stream().Stop(context.Background()))

	joined := strings.Join(fake.Commands(), "\n")
	assert.Contains(t, joined, "pkill -x x11vnc")
	assert.Contains(t, joined, "pkill -f novnc_proxy")
}

func TestStreamRunning(t *testing.T) {
	fake := streamFake()
	d := newTestDesktop(fake)
	s := d.Stream()
	ctx := context.Background()

	assert.False(t, s.Running(ctx))
	require.NoError(t, s.Start(ctx, StartOptions{}))
	assert.True(t, s.Running(ctx))
}

func TestStreamDoubleStartAgainstForeignProcess(t *testing.T) {
	// A VNC server started outside this controller is still detected via
	// the process table.
	fake := &sandboxtest.Fake{}
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		if strings.HasPrefix(cmd, "pgrep") {
			return &sandbox.CommandResult{ExitCode: 0, Output: "999"}, nil
		}
		return &sandbox.CommandResult{ExitCode: 0}, nil
	}
	d := newTestDesktop(fake)

	err := d.Stream().Start(context.Background(), StartOptions{})
	assert.ErrorIs(t, err, ErrStreamAlreadyRunning)
}

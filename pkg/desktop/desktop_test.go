package desktop

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/sandboxtest"
)

// fakeProvider hands out a pre-built sandbox and records the create options.
type fakeProvider struct {
	sb      *sandboxtest.Fake
	created sandbox.CreateOptions
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Create(ctx context.Context, opts sandbox.CreateOptions) (sandbox.Sandbox, error) {
	p.created = opts
	return p.sb, nil
}

func (p *fakeProvider) Connect(ctx context.Context, id string) (sandbox.Sandbox, error) {
	return p.sb, nil
}

func (p *fakeProvider) BuildTemplate(ctx context.Context, dir, name string, res sandbox.Resources) error {
	return sandbox.ErrTemplateUnsupported
}

func TestNewProvisionsDisplayAndSession(t *testing.T) {
	p := &fakeProvider{sb: &sandboxtest.Fake{}}

	d, err := New(context.Background(), p, Options{Width: 1920, Height: 1080})
	require.NoError(t, err)
	assert.Equal(t, ":0", d.Display())

	assert.Equal(t, DefaultTemplate, p.created.Template)
	assert.Equal(t, ":0", p.created.Env["DISPLAY"])

	background := p.sb.BackgroundCommands()
	require.Len(t, background, 2)
	assert.Equal(t, "Xvfb :0 -ac -screen 0 1920x1080x24 -dpi 96 -nolisten tcp", background[0])
	assert.Equal(t, "startxfce4", background[1])

	// Display readiness was polled before the session started.
	commands := p.sb.Commands()
	require.NotEmpty(t, commands)
	assert.Contains(t, commands[0], "xdpyinfo -display :0")
}

func TestNewFailsWhenDisplayNeverComesUp(t *testing.T) {
	fake := &sandboxtest.Fake{}
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		return &sandbox.CommandResult{ExitCode: 1}, nil
	}
	p := &fakeProvider{sb: fake}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ctx, p, Options{})
	require.Error(t, err)
}

func TestStartDesktopSessionSkipsLiveSession(t *testing.T) {
	fake := &sandboxtest.Fake{}
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		return &sandbox.CommandResult{ExitCode: 0, Output: "S\n"}, nil
	}
	d := newTestDesktop(fake)
	ctx := context.Background()

	require.NoError(t, d.StartDesktopSession(ctx))
	require.NoError(t, d.StartDesktopSession(ctx))
	assert.Len(t, fake.BackgroundCommands(), 1)
}

func TestStartDesktopSessionRestartsDefunctSession(t *testing.T) {
	fake := &sandboxtest.Fake{}
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		// The recorded pid shows up as a zombie.
		return &sandbox.CommandResult{ExitCode: 0, Output: "Zs\n"}, nil
	}
	d := newTestDesktop(fake)
	ctx := context.Background()

	require.NoError(t, d.StartDesktopSession(ctx))
	require.NoError(t, d.StartDesktopSession(ctx))
	assert.Len(t, fake.BackgroundCommands(), 2)
}

func TestScreenshotReadsAndDeletesCapture(t *testing.T) {
	fake := &sandboxtest.Fake{}
	var capturePath string
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		if strings.HasPrefix(cmd, "scrot") {
			capturePath = strings.Fields(cmd)[2]
			fake.PutFile(capturePath, []byte("png-bytes"))
		}
		return &sandbox.CommandResult{ExitCode: 0}, nil
	}
	d := newTestDesktop(fake)

	data, err := d.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	require.NotEmpty(t, capturePath)
	assert.True(t, strings.HasPrefix(capturePath, "/tmp/screenshot-"))
	assert.True(t, strings.HasSuffix(capturePath, ".png"))
	assert.False(t, fake.HasFile(capturePath), "capture file should be cleaned up")
}

func TestScreenshotCaptureFailure(t *testing.T) {
	fake := &sandboxtest.Fake{}
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		return &sandbox.CommandResult{ExitCode: 1, Output: "giblib error"}, nil
	}
	d := newTestDesktop(fake)

	_, err := d.Screenshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to capture screenshot")
}

func TestLaunchQuotesArguments(t *testing.T) {
	fake := &sandboxtest.Fake{}
	d := newTestDesktop(fake)
	ctx := context.Background()

	require.NoError(t, d.Launch(ctx, "firefox", "https://example.com"))
	require.NoError(t, d.Launch(ctx, "text editor", ""))

	background := fake.BackgroundCommands()
	require.Len(t, background, 2)
	assert.Equal(t, "gtk-launch firefox https://example.com", background[0])
	assert.Equal(t, "gtk-launch 'text editor'", background[1])
}

func TestOpen(t *testing.T) {
	fake := &sandboxtest.Fake{}
	d := newTestDesktop(fake)

	require.NoError(t, d.Open(context.Background(), "/root/report 2025.pdf"))
	background := fake.BackgroundCommands()
	require.Len(t, background, 1)
	assert.Equal(t, "xdg-open '/root/report 2025.pdf'", background[0])
}

func TestWaitForSatisfiedImmediately(t *testing.T) {
	fake := &sandboxtest.Fake{}
	d := newTestDesktop(fake)

	ok, err := d.WaitFor(context.Background(), "true",
		func(exitCode int, _ string) bool { return exitCode == 0 }, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWaitForTimesOut(t *testing.T) {
	fake := &sandboxtest.Fake{}
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		return &sandbox.CommandResult{ExitCode: 1}, nil
	}
	d := newTestDesktop(fake)

	ok, err := d.WaitFor(context.Background(), "false",
		func(exitCode int, _ string) bool { return exitCode == 0 }, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Package desktop turns a sandbox into a remotely controllable virtual
// desktop: it boots an X virtual framebuffer and a desktop session inside
// the sandbox and exposes mouse, keyboard, window, screenshot, and VNC
// streaming operations. Every operation translates to a shell command
// dispatched through the sandbox.
package desktop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/util"
)

const (
	// DefaultTemplate is the desktop-capable sandbox template provisioned
	// when Options.Template is empty.
	DefaultTemplate = "deskbox/desktop:latest"

	defaultWidth  = 1024
	defaultHeight = 768
	defaultDPI    = 96

	// readyTimeout bounds how long provisioning waits for the display
	// server (and the stream controller for its proxy port).
	readyTimeout = 10 * time.Second
	pollInterval = 500 * time.Millisecond
)

// Options configures desktop provisioning. The zero value provisions a
// 1024x768 display at 96 DPI on :0 from the default template.
type Options struct {
	Width    int
	Height   int
	DPI      int
	Display  string
	Template string
	// Env is passed through to the sandbox so GUI programs inherit it.
	Env map[string]string
	// Resources requests sandbox sizing from the provider.
	Resources sandbox.Resources
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.DPI <= 0 {
		o.DPI = defaultDPI
	}
	if o.Display == "" {
		o.Display = ":0"
	}
	if o.Template == "" {
		o.Template = DefaultTemplate
	}
}

// Desktop controls one sandbox configured for graphical use. Methods are
// not safe for concurrent use; callers that interleave operations from
// multiple goroutines must serialize them.
type Desktop struct {
	sb      sandbox.Sandbox
	display string
	width   int
	height  int
	dpi     int

	// last-known desktop session pid; zero until the session starts.
	sessionPID int

	stream *Stream
}

// New provisions a sandbox from the provider and boots the display server
// and desktop session inside it. On failure the sandbox is left as-is;
// callers that want cleanup must Destroy it themselves.
func New(ctx context.Context, p sandbox.Provider, opts Options) (*Desktop, error) {
	opts.applyDefaults()

	env := map[string]string{"DISPLAY": opts.Display}
	for k, v := range opts.Env {
		env[k] = v
	}
	sb, err := p.Create(ctx, sandbox.CreateOptions{
		Template:  opts.Template,
		Env:       env,
		Resources: opts.Resources,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}

	d := Attach(sb, opts)
	if err := d.startDisplay(ctx); err != nil {
		return nil, err
	}
	if err := d.StartDesktopSession(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Attach wraps an existing sandbox without provisioning anything. Used to
// address a desktop sandbox created earlier.
func Attach(sb sandbox.Sandbox, opts Options) *Desktop {
	opts.applyDefaults()
	return &Desktop{
		sb:      sb,
		display: opts.Display,
		width:   opts.Width,
		height:  opts.Height,
		dpi:     opts.DPI,
	}
}

// Sandbox returns the underlying sandbox for file, terminal, and lifecycle
// operations not wrapped here.
func (d *Desktop) Sandbox() sandbox.Sandbox { return d.sb }

// ID returns the sandbox identifier.
func (d *Desktop) ID() string { return d.sb.ID() }

// Display returns the X display this desktop renders to.
func (d *Desktop) Display() string { return d.display }

// Size returns the configured framebuffer geometry.
func (d *Desktop) Size() (width, height int) { return d.width, d.height }

// Suspend pauses the underlying sandbox.
func (d *Desktop) Suspend(ctx context.Context) error { return d.sb.Suspend(ctx) }

// Resume unpauses the underlying sandbox.
func (d *Desktop) Resume(ctx context.Context) error { return d.sb.Resume(ctx) }

// Destroy tears down the underlying sandbox.
func (d *Desktop) Destroy(ctx context.Context) error { return d.sb.Destroy(ctx) }

// startDisplay launches Xvfb bound to the configured display and waits for
// it to accept connections.
func (d *Desktop) startDisplay(ctx context.Context) error {
	cmd := fmt.Sprintf("Xvfb %s -ac -screen 0 %dx%dx24 -dpi %d -nolisten tcp",
		d.display, d.width, d.height, d.dpi)
	if _, err := d.sb.RunBackground(ctx, cmd, sandbox.CommandOptions{}); err != nil {
		return fmt.Errorf("failed to start display server: %w", err)
	}

	ready, err := d.WaitFor(ctx, fmt.Sprintf("xdpyinfo -display %s >/dev/null 2>&1", d.display),
		func(exitCode int, _ string) bool { return exitCode == 0 }, readyTimeout)
	if err != nil {
		return fmt.Errorf("failed waiting for display server: %w", err)
	}
	if !ready {
		return fmt.Errorf("%w: %s", ErrDisplayNotReady, d.display)
	}
	return nil
}

// StartDesktopSession starts the desktop environment, unless the last
// session this controller started is still alive. A defunct recorded
// process triggers a restart.
func (d *Desktop) StartDesktopSession(ctx context.Context) error {
	if d.sessionPID > 0 && d.sessionAlive(ctx, d.sessionPID) {
		return nil
	}
	proc, err := d.sb.RunBackground(ctx, "startxfce4", d.commandOptions(nil))
	if err != nil {
		return fmt.Errorf("failed to start desktop session: %w", err)
	}
	d.sessionPID = proc.PID
	return nil
}

// sessionAlive reports whether pid is running and not a zombie. Any check
// failure counts as not alive.
func (d *Desktop) sessionAlive(ctx context.Context, pid int) bool {
	res, err := d.sb.RunCommand(ctx, fmt.Sprintf("ps -o stat= -p %d", pid), sandbox.CommandOptions{})
	if err != nil || res.ExitCode != 0 {
		return false
	}
	stat := strings.TrimSpace(res.Output)
	return stat != "" && !strings.Contains(stat, "Z")
}

// commandOptions builds the options every interaction command runs with:
// the DISPLAY this desktop owns, merged over extra.
func (d *Desktop) commandOptions(extra map[string]string) sandbox.CommandOptions {
	env := map[string]string{"DISPLAY": d.display}
	for k, v := range extra {
		env[k] = v
	}
	return sandbox.CommandOptions{Env: env}
}

// run dispatches an interaction command and fails on a nonzero exit.
func (d *Desktop) run(ctx context.Context, cmd string) (*sandbox.CommandResult, error) {
	res, err := d.sb.RunCommand(ctx, cmd, d.commandOptions(nil))
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return res, fmt.Errorf("%s: exit %d: %s", cmd, res.ExitCode, strings.TrimSpace(res.Output))
	}
	return res, nil
}

// Screenshot captures the full display and returns the PNG bytes. The
// intermediate file in the sandbox is deleted best-effort.
func (d *Desktop) Screenshot(ctx context.Context) ([]byte, error) {
	path := fmt.Sprintf("/tmp/screenshot-%s.png", util.RandomString(8))
	if _, err := d.run(ctx, fmt.Sprintf("scrot --pointer %s", path)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	data, err := d.sb.ReadFile(ctx, path)
	// The capture is already on disk; a failed delete must not fail the
	// screenshot.
	_ = d.sb.DeleteFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	return data, nil
}

// Launch starts an application by its desktop entry name, optionally with a
// URI argument. The command runs unbounded in the background.
func (d *Desktop) Launch(ctx context.Context, app string, uri string) error {
	cmd := "gtk-launch " + quoteString(app)
	if uri != "" {
		cmd += " " + quoteString(uri)
	}
	if _, err := d.sb.RunBackground(ctx, cmd, d.commandOptions(nil)); err != nil {
		return fmt.Errorf("failed to launch %s: %w", app, err)
	}
	return nil
}

// Open hands a file path or URL to the desktop's default handler.
func (d *Desktop) Open(ctx context.Context, target string) error {
	if _, err := d.sb.RunBackground(ctx, "xdg-open "+quoteString(target), d.commandOptions(nil)); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}

// WaitFor runs cmd every 500ms until pred accepts its (exit code, output)
// or timeout elapses, and reports whether pred was ever satisfied.
func (d *Desktop) WaitFor(ctx context.Context, cmd string, pred func(exitCode int, output string) bool, timeout time.Duration) (bool, error) {
	elapsed := time.Duration(0)
	for {
		res, err := d.sb.RunCommand(ctx, cmd, d.commandOptions(nil))
		if err != nil {
			return false, err
		}
		if pred(res.ExitCode, res.Output) {
			return true, nil
		}
		if elapsed >= timeout {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(pollInterval):
		}
		elapsed += pollInterval
	}
}

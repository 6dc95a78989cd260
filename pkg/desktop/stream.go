package desktop

import (
	"context"
	"fmt"
	"net/url"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/util"
)

const (
	defaultVNCPort   = 5900
	defaultNoVNCPort = 6080

	// vncPasswdFile is where the VNC server password is persisted inside
	// the sandbox when authentication is required.
	vncPasswdFile = "/root/.vnc/passwd"

	// viewerPath is the noVNC browser client entry point.
	viewerPath = "/vnc.html"

	authKeyLength = 16
)

// Stream broadcasts the desktop's display over VNC plus a browser-viewable
// noVNC proxy. At most one stream may run per desktop at a time.
type Stream struct {
	d *Desktop

	vncPort     int
	novncPort   int
	requireAuth bool
	authKey     string
	baseURL     string
	novncPID    int
}

// Stream returns the VNC stream controller for this desktop. The same
// controller is returned on every call.
func (d *Desktop) Stream() *Stream {
	if d.stream == nil {
		d.stream = &Stream{d: d}
	}
	return d.stream
}

// StartOptions configures Stream.Start. Zero values mean VNC on 5900, the
// web proxy on 6080, no authentication, whole-display capture.
type StartOptions struct {
	VNCPort     int
	NoVNCPort   int
	RequireAuth bool
	// WindowID restricts capture to one window instead of the whole
	// display.
	WindowID string
}

// Start launches the VNC server and the noVNC web proxy, then waits for
// the proxy port to come up. Starting while a VNC server is already
// running for this sandbox fails with ErrStreamAlreadyRunning. The check
// consults the process table, so it also catches servers started outside
// this controller.
func (s *Stream) Start(ctx context.Context, opts StartOptions) error {
	if opts.VNCPort <= 0 {
		opts.VNCPort = defaultVNCPort
	}
	if opts.NoVNCPort <= 0 {
		opts.NoVNCPort = defaultNoVNCPort
	}

	if s.vncRunning(ctx) {
		return ErrStreamAlreadyRunning
	}

	vncCmd := fmt.Sprintf("x11vnc -display %s -forever -wait 50 -shared -rfbport %d",
		s.d.display, opts.VNCPort)
	if opts.WindowID != "" {
		vncCmd += " -id " + quoteString(opts.WindowID)
	}
	if opts.RequireAuth {
		s.authKey = util.RandomString(authKeyLength)
		setup := fmt.Sprintf("mkdir -p $(dirname %s) && x11vnc -storepasswd %s %s",
			vncPasswdFile, quoteString(s.authKey), vncPasswdFile)
		if res, err := s.d.sb.RunCommand(ctx, setup, s.d.commandOptions(nil)); err != nil {
			return fmt.Errorf("failed to store vnc password: %w", err)
		} else if res.ExitCode != 0 {
			return fmt.Errorf("failed to store vnc password: %s", res.Output)
		}
		vncCmd += " -rfbauth " + vncPasswdFile
	} else {
		vncCmd += " -nopw"
	}

	if _, err := s.d.sb.RunBackground(ctx, vncCmd, s.d.commandOptions(nil)); err != nil {
		return fmt.Errorf("failed to start vnc server: %w", err)
	}

	previewURL, err := s.d.sb.PreviewURL(ctx, opts.NoVNCPort)
	if err != nil {
		return fmt.Errorf("failed to resolve preview url: %w", err)
	}
	s.baseURL = previewURL + viewerPath

	proxyCmd := fmt.Sprintf("novnc_proxy --listen %d --vnc localhost:%d", opts.NoVNCPort, opts.VNCPort)
	proc, err := s.d.sb.RunBackground(ctx, proxyCmd, s.d.commandOptions(nil))
	if err != nil {
		return fmt.Errorf("failed to start web proxy: %w", err)
	}
	s.novncPID = proc.PID
	s.vncPort = opts.VNCPort
	s.novncPort = opts.NoVNCPort
	s.requireAuth = opts.RequireAuth

	// The VNC server itself is not polled; if it died silently this check
	// is the one that surfaces it, as a proxy-port failure.
	listenCheck := fmt.Sprintf("netstat -tln | grep -q ':%d '", opts.NoVNCPort)
	ready, err := s.d.WaitFor(ctx, listenCheck,
		func(exitCode int, _ string) bool { return exitCode == 0 }, readyTimeout)
	if err != nil {
		return fmt.Errorf("failed waiting for web proxy: %w", err)
	}
	if !ready {
		return fmt.Errorf("%w: port %d", ErrProxyNotReady, opts.NoVNCPort)
	}
	return nil
}

// Attach points the controller at a stream started earlier, typically by a
// previous process. It resolves the viewer base URL from the sandbox preview
// address without starting anything; the auth key of the original start is
// not recoverable this way.
func (s *Stream) Attach(ctx context.Context, novncPort int) error {
	if novncPort <= 0 {
		novncPort = defaultNoVNCPort
	}
	previewURL, err := s.d.sb.PreviewURL(ctx, novncPort)
	if err != nil {
		return fmt.Errorf("failed to resolve preview url: %w", err)
	}
	s.baseURL = previewURL + viewerPath
	s.novncPort = novncPort
	return nil
}

// Stop terminates the VNC server (by name, if one is detected) and the web
// proxy: by recorded pid when this controller started it, otherwise by name
// if one is found running. Stopping an idle stream is a no-op.
func (s *Stream) Stop(ctx context.Context) error {
	if s.vncRunning(ctx) {
		if _, err := s.d.sb.RunCommand(ctx, "pkill -x x11vnc", s.d.commandOptions(nil)); err != nil {
			return fmt.Errorf("failed to stop vnc server: %w", err)
		}
	}
	if s.novncPID > 0 {
		if _, err := s.d.sb.RunCommand(ctx, fmt.Sprintf("kill %d", s.novncPID), s.d.commandOptions(nil)); err != nil {
			return fmt.Errorf("failed to stop web proxy: %w", err)
		}
		s.novncPID = 0
	} else if s.proxyRunning(ctx) {
		// The proxy was started by an earlier process; no pid on record.
		if _, err := s.d.sb.RunCommand(ctx, "pkill -f novnc_proxy", s.d.commandOptions(nil)); err != nil {
			return fmt.Errorf("failed to stop web proxy: %w", err)
		}
	}
	return nil
}

// URLOptions shapes the viewer URL returned by URL.
type URLOptions struct {
	// AutoConnect controls the autoconnect query parameter; on unless
	// explicitly disabled.
	AutoConnect *bool
	// ViewOnly disables input forwarding in the viewer.
	ViewOnly bool
	// Resize is the viewer scaling mode: "off", "scale" (default), or
	// "remote".
	Resize string
	// AuthKey, when set, is embedded as the password parameter. It is
	// independent of the key generated at start; callers may pass a
	// different one.
	AuthKey string
}

// URL returns the browser viewer URL for a started stream.
func (s *Stream) URL(opts URLOptions) (string, error) {
	if s.baseURL == "" {
		return "", ErrStreamNotStarted
	}
	q := url.Values{}
	autoConnect := true
	if opts.AutoConnect != nil {
		autoConnect = *opts.AutoConnect
	}
	if autoConnect {
		q.Set("autoconnect", "true")
	}
	if opts.ViewOnly {
		q.Set("view_only", "true")
	}
	resize := opts.Resize
	if resize == "" {
		resize = "scale"
	}
	switch resize {
	case "off", "scale", "remote":
	default:
		return "", fmt.Errorf("invalid resize mode %q (want off, scale, or remote)", resize)
	}
	q.Set("resize", resize)
	if opts.AuthKey != "" {
		q.Set("password", opts.AuthKey)
	}
	return s.baseURL + "?" + q.Encode(), nil
}

// AuthKey returns the token generated when the stream was started with
// authentication required.
func (s *Stream) AuthKey() (string, error) {
	if s.authKey == "" {
		return "", ErrNoAuthKey
	}
	return s.authKey, nil
}

// Ports returns the VNC and web proxy ports of the running stream; zeros
// before any start.
func (s *Stream) Ports() (vnc, novnc int) {
	return s.vncPort, s.novncPort
}

// Running reports whether a VNC server is live in the sandbox, regardless
// of which process started it.
func (s *Stream) Running(ctx context.Context) bool {
	return s.vncRunning(ctx)
}

// vncRunning consults the sandbox process table. Check failures count as
// not running so a broken ps never wedges stream startup.
func (s *Stream) vncRunning(ctx context.Context) bool {
	res, err := s.d.sb.RunCommand(ctx, "pgrep -x x11vnc", sandbox.CommandOptions{})
	if err != nil {
		return false
	}
	return res.ExitCode == 0
}

func (s *Stream) proxyRunning(ctx context.Context) bool {
	res, err := s.d.sb.RunCommand(ctx, "pgrep -f novnc_proxy", sandbox.CommandOptions{})
	if err != nil {
		return false
	}
	return res.ExitCode == 0
}

package desktop

import (
	"errors"
	"fmt"
)

// Usage and lifecycle errors surfaced by the desktop and stream controllers.
var (
	// ErrDisplayNotReady indicates the virtual framebuffer never became
	// ready within the provisioning timeout.
	ErrDisplayNotReady = errors.New("display server did not become ready")

	// ErrStreamAlreadyRunning indicates a VNC server is already running
	// for this session.
	ErrStreamAlreadyRunning = errors.New("stream is already running")

	// ErrStreamNotStarted indicates a stream operation that requires a
	// started stream.
	ErrStreamNotStarted = errors.New("stream has not been started")

	// ErrProxyNotReady indicates the noVNC web proxy never started
	// listening within the timeout.
	ErrProxyNotReady = errors.New("web proxy did not start listening")

	// ErrNoAuthKey indicates the stream was started without
	// authentication, or never started, so no auth key exists.
	ErrNoAuthKey = errors.New("no auth key was generated for this stream")
)

// ParseError reports that expected structured content was missing from a
// command's output. Raw carries the offending output verbatim.
type ParseError struct {
	What string
	Raw  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from output: %q", e.What, e.Raw)
}

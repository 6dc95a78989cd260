package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/sandboxtest"
)

// streamReadyFake scripts a sandbox where no VNC server runs yet and the
// proxy port is listening as soon as it is checked.
func streamReadyFake() *sandboxtest.Fake {
	return &sandboxtest.Fake{
		RunCommandFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
			if strings.HasPrefix(cmd, "pgrep") {
				return &sandbox.CommandResult{ExitCode: 1}, nil
			}
			return &sandbox.CommandResult{ExitCode: 0}, nil
		},
	}
}

func TestStreamStart_PrintsViewerURL(t *testing.T) {
	setupStdoutCapture(t)

	s := StreamCmd{d: fakeDesktop(streamReadyFake())}
	_ = s.Start(context.Background(), StreamStartInput{})

	out := outBuf.String()
	if !strings.Contains(out, "Stream started") {
		t.Fatalf("expected start confirmation, got: %s", out)
	}
	if !strings.Contains(out, "/vnc.html?") {
		t.Fatalf("expected viewer URL, got: %s", out)
	}
}

func TestStreamStart_WithAuthShowsKey(t *testing.T) {
	setupStdoutCapture(t)

	s := StreamCmd{d: fakeDesktop(streamReadyFake())}
	_ = s.Start(context.Background(), StreamStartInput{Auth: true})

	if !strings.Contains(outBuf.String(), "Auth key:") {
		t.Fatalf("expected auth key in output, got: %s", outBuf.String())
	}
}

func TestStreamURL_BeforeStartPrintsError(t *testing.T) {
	setupStdoutCapture(t)

	// pgrep finds no VNC server, so there is no stream to point at.
	s := StreamCmd{d: fakeDesktop(streamReadyFake())}
	url, _ := s.URL(context.Background(), StreamURLInput{})

	if url != "" {
		t.Fatalf("expected empty URL, got: %s", url)
	}
	if !strings.Contains(outBuf.String(), "No stream is running") {
		t.Fatalf("expected error message, got: %s", outBuf.String())
	}
}

func TestStreamURL_RecoversStreamStartedByEarlierProcess(t *testing.T) {
	setupStdoutCapture(t)

	// The default fake answers every command with exit 0, so the process
	// table shows a live VNC server that this invocation never started.
	s := StreamCmd{d: fakeDesktop(&sandboxtest.Fake{})}
	url, _ := s.URL(context.Background(), StreamURLInput{WebPort: 7070})

	if !strings.Contains(url, "/vnc.html?") {
		t.Fatalf("expected viewer URL, got: %s", url)
	}
	if !strings.Contains(url, "7070-fake-sandbox") {
		t.Fatalf("expected URL resolved from the given web port, got: %s", url)
	}
}

func TestStreamURL_FlagsShapeQuery(t *testing.T) {
	setupStdoutCapture(t)

	d := fakeDesktop(streamReadyFake())
	s := StreamCmd{d: d}
	_ = s.Start(context.Background(), StreamStartInput{})

	url, _ := s.URL(context.Background(), StreamURLInput{
		ViewOnly:    true,
		Resize:      "remote",
		AutoConnect: BoolFlag{Set: true, Value: false},
	})

	if !strings.Contains(url, "view_only=true") || !strings.Contains(url, "resize=remote") {
		t.Fatalf("expected view_only and resize params, got: %s", url)
	}
	if strings.Contains(url, "autoconnect") {
		t.Fatalf("autoconnect should be absent when disabled, got: %s", url)
	}
}

func TestStreamStop_Confirms(t *testing.T) {
	setupStdoutCapture(t)

	fake := streamReadyFake()
	d := fakeDesktop(fake)
	s := StreamCmd{d: d}
	_ = s.Start(context.Background(), StreamStartInput{})

	// After start, the process table shows a VNC server.
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		return &sandbox.CommandResult{ExitCode: 0}, nil
	}
	_ = s.Stop(context.Background())

	if !strings.Contains(outBuf.String(), "Stream stopped") {
		t.Fatalf("expected stop confirmation, got: %s", outBuf.String())
	}
	var sawKill bool
	for _, c := range fake.Commands() {
		if c == "pkill -x x11vnc" {
			sawKill = true
		}
	}
	if !sawKill {
		t.Fatalf("expected pkill command, got: %v", fake.Commands())
	}
}

func TestStreamStop_FromFreshProcessKillsProxyByName(t *testing.T) {
	setupStdoutCapture(t)

	// A fresh invocation has no recorded proxy pid; both servers show up in
	// the process table and must be stopped by name.
	fake := &sandboxtest.Fake{}
	s := StreamCmd{d: fakeDesktop(fake)}
	_ = s.Stop(context.Background())

	if !strings.Contains(outBuf.String(), "Stream stopped") {
		t.Fatalf("expected stop confirmation, got: %s", outBuf.String())
	}
	joined := strings.Join(fake.Commands(), "\n")
	if !strings.Contains(joined, "pkill -x x11vnc") {
		t.Fatalf("expected VNC server kill, got: %v", fake.Commands())
	}
	if !strings.Contains(joined, "pkill -f novnc_proxy") {
		t.Fatalf("expected proxy kill by name, got: %v", fake.Commands())
	}
}

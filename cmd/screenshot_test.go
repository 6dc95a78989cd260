package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/sandboxtest"
)

// screenshotFake seeds the capture file as soon as scrot runs, the way the
// real tool would.
func screenshotFake(png []byte) *sandboxtest.Fake {
	fake := &sandboxtest.Fake{}
	fake.RunCommandFunc = func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
		if strings.HasPrefix(cmd, "scrot") {
			fields := strings.Fields(cmd)
			fake.PutFile(fields[len(fields)-1], png)
		}
		return &sandbox.CommandResult{ExitCode: 0}, nil
	}
	return fake
}

func TestScreenshotCapture_WritesFile(t *testing.T) {
	setupStdoutCapture(t)

	png := []byte("\x89PNG fake image data")
	out := filepath.Join(t.TempDir(), "shot.png")

	s := ScreenshotCmd{d: fakeDesktop(screenshotFake(png))}
	_ = s.Capture(context.Background(), ScreenshotInput{Out: out})

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("screenshot file not written: %v", err)
	}
	if string(got) != string(png) {
		t.Fatalf("file content mismatch")
	}
	if !strings.Contains(outBuf.String(), "Saved screenshot to") {
		t.Fatalf("expected success message, got: %s", outBuf.String())
	}
}

func TestScreenshotCapture_FailurePrintsError(t *testing.T) {
	setupStdoutCapture(t)

	fake := &sandboxtest.Fake{
		RunCommandFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
			return &sandbox.CommandResult{ExitCode: 1, Output: "giblib error"}, nil
		},
	}
	s := ScreenshotCmd{d: fakeDesktop(fake)}
	_ = s.Capture(context.Background(), ScreenshotInput{Out: filepath.Join(t.TempDir(), "x.png")})

	if !strings.Contains(outBuf.String(), "Failed to capture screenshot") {
		t.Fatalf("expected error message, got: %s", outBuf.String())
	}
}

package desktop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/sandboxtest"
)

func fakeWithOutput(output string) *sandboxtest.Fake {
	return &sandboxtest.Fake{
		RunCommandFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
			return &sandbox.CommandResult{ExitCode: 0, Output: output}, nil
		},
	}
}

func TestCursorPosition(t *testing.T) {
	d := newTestDesktop(fakeWithOutput("x:120 y:340 screen:0 window:56623121"))

	x, y, err := d.CursorPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, x)
	assert.Equal(t, 340, y)
}

func TestCursorPositionParseError(t *testing.T) {
	d := newTestDesktop(fakeWithOutput("no location here"))

	_, _, err := d.CursorPosition(context.Background())
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "cursor position", parseErr.What)
	assert.Contains(t, parseErr.Raw, "no location here")
}

func TestScreenSize(t *testing.T) {
	out := "Screen 0: minimum 320 x 200, current 1920 x 1080, maximum 8192 x 8192\n" +
		"screen 1920x1080+0+0"
	d := newTestDesktop(fakeWithOutput(out))

	w, h, err := d.ScreenSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestScreenSizeParseError(t *testing.T) {
	d := newTestDesktop(fakeWithOutput("no dimensions"))

	_, _, err := d.ScreenSize(context.Background())
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "screen size", parseErr.What)
}

func TestFocusedWindowID(t *testing.T) {
	d := newTestDesktop(fakeWithOutput("56623121\n"))

	id, err := d.FocusedWindowID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "56623121", id)
}

func TestWindowsForApplication(t *testing.T) {
	fake := fakeWithOutput("100\n101\n102\n")
	d := newTestDesktop(fake)

	ids, err := d.WindowsForApplication(context.Background(), "firefox")
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101", "102"}, ids)
	assert.Equal(t, []string{"xdotool search --onlyvisible --class firefox"}, fake.Commands())
}

func TestWindowsForApplicationNoMatches(t *testing.T) {
	fake := &sandboxtest.Fake{
		RunCommandFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
			return &sandbox.CommandResult{ExitCode: 1, Output: ""}, nil
		},
	}
	d := newTestDesktop(fake)

	ids, err := d.WindowsForApplication(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestWindowTitle(t *testing.T) {
	fake := fakeWithOutput("Mozilla Firefox\n")
	d := newTestDesktop(fake)

	title, err := d.WindowTitle(context.Background(), "56623121")
	require.NoError(t, err)
	assert.Equal(t, "Mozilla Firefox", title)
	assert.Equal(t, []string{"xdotool getwindowname 56623121"}, fake.Commands())
}

package desktop

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var (
	cursorPattern = regexp.MustCompile(`x:(\d+) y:(\d+)`)
	sizePattern   = regexp.MustCompile(`(\d+)x(\d+)`)
)

// CursorPosition queries the display server for the current pointer
// coordinates.
func (d *Desktop) CursorPosition(ctx context.Context) (x, y int, err error) {
	res, err := d.run(ctx, "xdotool getmouselocation")
	if err != nil {
		return 0, 0, err
	}
	m := cursorPattern.FindStringSubmatch(res.Output)
	if m == nil {
		return 0, 0, &ParseError{What: "cursor position", Raw: res.Output}
	}
	x, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, &ParseError{What: "cursor position", Raw: res.Output}
	}
	y, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, &ParseError{What: "cursor position", Raw: res.Output}
	}
	return x, y, nil
}

// ScreenSize reports the dimensions of the current display mode.
func (d *Desktop) ScreenSize(ctx context.Context) (width, height int, err error) {
	res, err := d.run(ctx, "xrandr --current")
	if err != nil {
		return 0, 0, err
	}
	m := sizePattern.FindStringSubmatch(res.Output)
	if m == nil {
		return 0, 0, &ParseError{What: "screen size", Raw: res.Output}
	}
	width, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, &ParseError{What: "screen size", Raw: res.Output}
	}
	height, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, &ParseError{What: "screen size", Raw: res.Output}
	}
	return width, height, nil
}

// FocusedWindowID returns the id of the window holding input focus.
func (d *Desktop) FocusedWindowID(ctx context.Context) (string, error) {
	res, err := d.run(ctx, "xdotool getactivewindow")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Output), nil
}

// WindowsForApplication returns the ids of all visible windows whose class
// matches the application name.
func (d *Desktop) WindowsForApplication(ctx context.Context, app string) ([]string, error) {
	res, err := d.sb.RunCommand(ctx,
		fmt.Sprintf("xdotool search --onlyvisible --class %s", quoteString(app)),
		d.commandOptions(nil))
	if err != nil {
		return nil, err
	}
	// xdotool search exits nonzero when nothing matches.
	if res.ExitCode != 0 {
		return nil, nil
	}
	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	return lo.Filter(lines, func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	}), nil
}

// WindowTitle returns the title of the window with the given id.
func (d *Desktop) WindowTitle(ctx context.Context, windowID string) (string, error) {
	res, err := d.run(ctx, "xdotool getwindowname "+quoteString(windowID))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Output), nil
}

package desktop

import (
	"context"
	"fmt"
	"strings"
)

// ScrollDirection selects which way Scroll turns the wheel.
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)

// MoveMouse moves the cursor to absolute coordinates.
func (d *Desktop) MoveMouse(ctx context.Context, x, y int) error {
	_, err := d.run(ctx, fmt.Sprintf("xdotool mousemove --sync %d %d", x, y))
	return err
}

// LeftClick clicks the left button at the current cursor position.
func (d *Desktop) LeftClick(ctx context.Context) error { return d.click(ctx, ButtonLeft, 1) }

// LeftClickAt moves to (x, y) and left-clicks.
func (d *Desktop) LeftClickAt(ctx context.Context, x, y int) error {
	return d.clickAt(ctx, x, y, ButtonLeft, 1)
}

// RightClick clicks the right button at the current cursor position.
func (d *Desktop) RightClick(ctx context.Context) error { return d.click(ctx, ButtonRight, 1) }

// RightClickAt moves to (x, y) and right-clicks.
func (d *Desktop) RightClickAt(ctx context.Context, x, y int) error {
	return d.clickAt(ctx, x, y, ButtonRight, 1)
}

// MiddleClick clicks the middle button at the current cursor position.
func (d *Desktop) MiddleClick(ctx context.Context) error { return d.click(ctx, ButtonMiddle, 1) }

// MiddleClickAt moves to (x, y) and middle-clicks.
func (d *Desktop) MiddleClickAt(ctx context.Context, x, y int) error {
	return d.clickAt(ctx, x, y, ButtonMiddle, 1)
}

// DoubleClick double-clicks the left button at the current cursor position.
func (d *Desktop) DoubleClick(ctx context.Context) error { return d.click(ctx, ButtonLeft, 2) }

// DoubleClickAt moves to (x, y) and double-clicks.
func (d *Desktop) DoubleClickAt(ctx context.Context, x, y int) error {
	return d.clickAt(ctx, x, y, ButtonLeft, 2)
}

func (d *Desktop) clickAt(ctx context.Context, x, y int, button MouseButton, repeat int) error {
	if err := d.MoveMouse(ctx, x, y); err != nil {
		return err
	}
	return d.click(ctx, button, repeat)
}

func (d *Desktop) click(ctx context.Context, button MouseButton, repeat int) error {
	cmd := fmt.Sprintf("xdotool click %d", button)
	if repeat > 1 {
		cmd = fmt.Sprintf("xdotool click --repeat %d %d", repeat, button)
	}
	_, err := d.run(ctx, cmd)
	return err
}

// MousePress presses and holds the named button ("left", "right",
// "middle"; unknown names are treated as left).
func (d *Desktop) MousePress(ctx context.Context, button string) error {
	_, err := d.run(ctx, fmt.Sprintf("xdotool mousedown %d", mapMouseButton(button)))
	return err
}

// MouseRelease releases the named button.
func (d *Desktop) MouseRelease(ctx context.Context, button string) error {
	_, err := d.run(ctx, fmt.Sprintf("xdotool mouseup %d", mapMouseButton(button)))
	return err
}

// Scroll turns the wheel amount notches in the given direction.
func (d *Desktop) Scroll(ctx context.Context, direction ScrollDirection, amount int) error {
	button := buttonWheelUp
	if direction == ScrollDown {
		button = buttonWheelDown
	}
	if amount <= 0 {
		amount = 1
	}
	_, err := d.run(ctx, fmt.Sprintf("xdotool click --repeat %d %d", amount, button))
	return err
}

// Drag presses the left button at (fromX, fromY), moves to (toX, toY), and
// releases.
func (d *Desktop) Drag(ctx context.Context, fromX, fromY, toX, toY int) error {
	if err := d.MoveMouse(ctx, fromX, fromY); err != nil {
		return err
	}
	if _, err := d.run(ctx, fmt.Sprintf("xdotool mousedown %d", ButtonLeft)); err != nil {
		return err
	}
	if err := d.MoveMouse(ctx, toX, toY); err != nil {
		return err
	}
	_, err := d.run(ctx, fmt.Sprintf("xdotool mouseup %d", ButtonLeft))
	return err
}

// WriteOptions tunes text typing. Zero values mean the defaults: 25
// characters per chunk with 75ms of keystroke delay.
type WriteOptions struct {
	ChunkSize int
	DelayMS   int
}

// Write types text into whatever holds keyboard focus. Long text is split
// into chunks so the X input queue is never overwhelmed; each chunk is one
// xdotool invocation.
func (d *Desktop) Write(ctx context.Context, text string, opts WriteOptions) error {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 25
	}
	if opts.DelayMS <= 0 {
		opts.DelayMS = 75
	}
	for _, chunk := range chunkText(text, opts.ChunkSize) {
		cmd := fmt.Sprintf("xdotool type --delay %d -- %s", opts.DelayMS, quoteString(chunk))
		if _, err := d.run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// chunkText splits text into consecutive substrings of at most size runes.
// Cutting on rune boundaries keeps every chunk valid UTF-8.
func chunkText(text string, size int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// PressKey presses a single key or a chord. Each name goes through the key
// mapper; multiple names are pressed together (joined with "+").
func (d *Desktop) PressKey(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("no keys given")
	}
	mapped := make([]string, len(keys))
	for i, k := range keys {
		mapped[i] = mapKey(k)
	}
	_, err := d.run(ctx, "xdotool key "+strings.Join(mapped, "+"))
	return err
}

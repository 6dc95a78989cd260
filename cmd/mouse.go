package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
)

var mouseCmd = &cobra.Command{
	Use:   "mouse",
	Short: "Control the sandbox pointer",
}

var mouseMoveCmd = &cobra.Command{
	Use:   "move <x> <y>",
	Short: "Move the pointer to absolute coordinates",
	Args:  cobra.ExactArgs(2),
	RunE:  runMouseMove,
}

var mouseClickCmd = &cobra.Command{
	Use:   "click [x y]",
	Short: "Click at the current position, or at coordinates",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runMouseClick,
}

var mouseDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Press and hold a mouse button",
	RunE:  runMouseDown,
}

var mouseUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Release a held mouse button",
	RunE:  runMouseUp,
}

var mouseScrollCmd = &cobra.Command{
	Use:   "scroll <up|down>",
	Short: "Scroll the wheel",
	Args:  cobra.ExactArgs(1),
	RunE:  runMouseScroll,
}

var mouseDragCmd = &cobra.Command{
	Use:   "drag <x1> <y1> <x2> <y2>",
	Short: "Drag with the left button held",
	Args:  cobra.ExactArgs(4),
	RunE:  runMouseDrag,
}

var mousePositionCmd = &cobra.Command{
	Use:   "position",
	Short: "Print the current pointer coordinates",
	RunE:  runMousePosition,
}

func init() {
	subcommands := []*cobra.Command{
		mouseMoveCmd, mouseClickCmd, mouseDownCmd, mouseUpCmd,
		mouseScrollCmd, mouseDragCmd, mousePositionCmd,
	}
	for _, c := range subcommands {
		addTargetFlags(c)
		mouseCmd.AddCommand(c)
	}

	mouseClickCmd.Flags().String("button", "left", "Mouse button (left, middle, right)")
	mouseClickCmd.Flags().Bool("double", false, "Double-click instead of single click")
	mouseDownCmd.Flags().String("button", "left", "Mouse button (left, middle, right)")
	mouseUpCmd.Flags().String("button", "left", "Mouse button (left, middle, right)")
	mouseScrollCmd.Flags().Int("amount", 3, "Number of wheel notches")

	rootCmd.AddCommand(mouseCmd)
}

// MouseCmd wraps pointer operations for the CLI.
type MouseCmd struct {
	d *desktop.Desktop
}

func (m MouseCmd) Move(ctx context.Context, x, y int) error {
	if err := m.d.MoveMouse(ctx, x, y); err != nil {
		pterm.Error.Printf("Failed to move mouse: %v\n", err)
		return nil
	}
	pterm.Success.Printf("Moved to %d,%d\n", x, y)
	return nil
}

type MouseClickInput struct {
	Button string
	Double bool
	HasPos bool
	X, Y   int
}

func (m MouseCmd) Click(ctx context.Context, in MouseClickInput) error {
	var err error
	switch {
	case in.Double && in.HasPos:
		err = m.d.DoubleClickAt(ctx, in.X, in.Y)
	case in.Double:
		err = m.d.DoubleClick(ctx)
	case in.HasPos:
		switch in.Button {
		case "right":
			err = m.d.RightClickAt(ctx, in.X, in.Y)
		case "middle":
			err = m.d.MiddleClickAt(ctx, in.X, in.Y)
		default:
			err = m.d.LeftClickAt(ctx, in.X, in.Y)
		}
	default:
		switch in.Button {
		case "right":
			err = m.d.RightClick(ctx)
		case "middle":
			err = m.d.MiddleClick(ctx)
		default:
			err = m.d.LeftClick(ctx)
		}
	}
	if err != nil {
		pterm.Error.Printf("Failed to click: %v\n", err)
		return nil
	}
	pterm.Success.Println("Clicked")
	return nil
}

func (m MouseCmd) Press(ctx context.Context, button string) error {
	if err := m.d.MousePress(ctx, button); err != nil {
		pterm.Error.Printf("Failed to press button: %v\n", err)
		return nil
	}
	pterm.Success.Printf("Pressed %s button\n", button)
	return nil
}

func (m MouseCmd) Release(ctx context.Context, button string) error {
	if err := m.d.MouseRelease(ctx, button); err != nil {
		pterm.Error.Printf("Failed to release button: %v\n", err)
		return nil
	}
	pterm.Success.Printf("Released %s button\n", button)
	return nil
}

func (m MouseCmd) Scroll(ctx context.Context, direction string, amount int) error {
	dir := desktop.ScrollDown
	switch direction {
	case "up":
		dir = desktop.ScrollUp
	case "down":
	default:
		return fmt.Errorf("invalid scroll direction %q (want up or down)", direction)
	}
	if err := m.d.Scroll(ctx, dir, amount); err != nil {
		pterm.Error.Printf("Failed to scroll: %v\n", err)
		return nil
	}
	pterm.Success.Printf("Scrolled %s\n", direction)
	return nil
}

func (m MouseCmd) Drag(ctx context.Context, x1, y1, x2, y2 int) error {
	if err := m.d.Drag(ctx, x1, y1, x2, y2); err != nil {
		pterm.Error.Printf("Failed to drag: %v\n", err)
		return nil
	}
	pterm.Success.Printf("Dragged %d,%d -> %d,%d\n", x1, y1, x2, y2)
	return nil
}

func (m MouseCmd) Position(ctx context.Context) error {
	x, y, err := m.d.CursorPosition(ctx)
	if err != nil {
		pterm.Error.Printf("Failed to read cursor position: %v\n", err)
		return nil
	}
	pterm.Info.Printf("%d,%d\n", x, y)
	return nil
}

func parseCoords(args []string) (int, int, error) {
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x coordinate %q", args[0])
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y coordinate %q", args[1])
	}
	return x, y, nil
}

func runMouseMove(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	x, y, err := parseCoords(args)
	if err != nil {
		return err
	}
	return MouseCmd{d: d}.Move(cmd.Context(), x, y)
}

func runMouseClick(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return fmt.Errorf("click takes either no coordinates or both x and y")
	}
	in := MouseClickInput{}
	in.Button, _ = cmd.Flags().GetString("button")
	in.Double, _ = cmd.Flags().GetBool("double")
	if len(args) == 2 {
		x, y, err := parseCoords(args)
		if err != nil {
			return err
		}
		in.HasPos, in.X, in.Y = true, x, y
	}
	return MouseCmd{d: d}.Click(cmd.Context(), in)
}

func runMouseDown(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	button, _ := cmd.Flags().GetString("button")
	return MouseCmd{d: d}.Press(cmd.Context(), button)
}

func runMouseUp(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	button, _ := cmd.Flags().GetString("button")
	return MouseCmd{d: d}.Release(cmd.Context(), button)
}

func runMouseScroll(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetInt("amount")
	return MouseCmd{d: d}.Scroll(cmd.Context(), args[0], amount)
}

func runMouseDrag(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	x1, y1, err := parseCoords(args[0:2])
	if err != nil {
		return err
	}
	x2, y2, err := parseCoords(args[2:4])
	if err != nil {
		return err
	}
	return MouseCmd{d: d}.Drag(cmd.Context(), x1, y1, x2, y2)
}

func runMousePosition(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	return MouseCmd{d: d}.Position(cmd.Context())
}

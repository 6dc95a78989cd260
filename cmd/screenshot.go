package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
	"github.com/deskbox-sh/deskbox/pkg/termimg"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture the sandbox display",
	RunE:  runScreenshot,
}

func init() {
	addTargetFlags(screenshotCmd)
	screenshotCmd.Flags().StringP("out", "o", "", "Write the PNG to this path (default screenshot-<timestamp>.png)")
	screenshotCmd.Flags().Bool("show", false, "Display the screenshot inline (iTerm2, Kitty, Ghostty)")
	rootCmd.AddCommand(screenshotCmd)
}

// ScreenshotCmd captures the display to a file or the terminal.
type ScreenshotCmd struct {
	d *desktop.Desktop
}

type ScreenshotInput struct {
	Out  string
	Show bool
}

func (s ScreenshotCmd) Capture(ctx context.Context, in ScreenshotInput) error {
	data, err := s.d.Screenshot(ctx)
	if err != nil {
		pterm.Error.Printf("Failed to capture screenshot: %v\n", err)
		return nil
	}

	if in.Show {
		if err := termimg.Render(os.Stdout, data); err != nil {
			pterm.Warning.Printf("Could not display inline: %v\n", err)
		} else if in.Out == "" {
			return nil
		}
	}

	out := in.Out
	if out == "" {
		out = fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405"))
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		pterm.Error.Printf("Failed to write %s: %v\n", out, err)
		return nil
	}
	pterm.Success.Printf("Saved screenshot to %s (%d bytes)\n", out, len(data))
	return nil
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	show, _ := cmd.Flags().GetBool("show")
	return ScreenshotCmd{d: d}.Capture(cmd.Context(), ScreenshotInput{Out: out, Show: show})
}

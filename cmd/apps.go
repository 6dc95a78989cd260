package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
)

var launchCmd = &cobra.Command{
	Use:   "launch <application> [uri]",
	Short: "Start an application by its desktop entry name",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLaunch,
}

var openCmd = &cobra.Command{
	Use:   "open <path-or-url>",
	Short: "Open a file or URL with the desktop's default handler",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func init() {
	addTargetFlags(launchCmd)
	addTargetFlags(openCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(openCmd)
}

// AppsCmd launches and opens things on the sandbox desktop.
type AppsCmd struct {
	d *desktop.Desktop
}

func (a AppsCmd) Launch(ctx context.Context, app, uri string) error {
	if err := a.d.Launch(ctx, app, uri); err != nil {
		pterm.Error.Printf("Failed to launch %s: %v\n", app, err)
		return nil
	}
	pterm.Success.Printf("Launched %s\n", app)
	return nil
}

func (a AppsCmd) Open(ctx context.Context, target string) error {
	if err := a.d.Open(ctx, target); err != nil {
		pterm.Error.Printf("Failed to open %s: %v\n", target, err)
		return nil
	}
	pterm.Success.Printf("Opened %s\n", target)
	return nil
}

func runLaunch(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	uri := ""
	if len(args) > 1 {
		uri = args[1]
	}
	return AppsCmd{d: d}.Launch(cmd.Context(), args[0], uri)
}

func runOpen(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	return AppsCmd{d: d}.Open(cmd.Context(), args[0])
}

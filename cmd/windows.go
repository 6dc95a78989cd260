package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
	"github.com/deskbox-sh/deskbox/pkg/util"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Query windows on the sandbox desktop",
}

var windowsListCmd = &cobra.Command{
	Use:   "list <application>",
	Short: "List visible window IDs belonging to an application class",
	Args:  cobra.ExactArgs(1),
	RunE:  runWindowsList,
}

var windowsFocusedCmd = &cobra.Command{
	Use:   "focused",
	Short: "Print the ID and title of the focused window",
	RunE:  runWindowsFocused,
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Print the desktop resolution",
	RunE:  runScreen,
}

func init() {
	for _, c := range []*cobra.Command{windowsListCmd, windowsFocusedCmd} {
		addTargetFlags(c)
		windowsCmd.AddCommand(c)
	}
	addTargetFlags(screenCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(screenCmd)
}

// WindowsCmd wraps window and screen queries for the CLI.
type WindowsCmd struct {
	d *desktop.Desktop
}

func (w WindowsCmd) List(ctx context.Context, app string) error {
	ids, err := w.d.WindowsForApplication(ctx, app)
	if err != nil {
		pterm.Error.Printf("Failed to list windows: %v\n", err)
		return nil
	}
	if len(ids) == 0 {
		pterm.Info.Printf("No visible windows for '%s'\n", app)
		return nil
	}

	tableData := pterm.TableData{{"Window ID", "Title"}}
	for _, id := range ids {
		// Titles are best effort; a window can vanish between the two
		// queries.
		title, _ := w.d.WindowTitle(ctx, id)
		tableData = append(tableData, []string{id, util.OrDash(title)})
	}
	printTableNoPad(tableData, true)
	return nil
}

func (w WindowsCmd) Focused(ctx context.Context) error {
	id, err := w.d.FocusedWindowID(ctx)
	if err != nil {
		pterm.Error.Printf("Failed to get focused window: %v\n", err)
		return nil
	}
	title, _ := w.d.WindowTitle(ctx, id)
	pterm.Info.Printf("%s %s\n", id, util.OrDash(title))
	return nil
}

func (w WindowsCmd) Screen(ctx context.Context) error {
	width, height, err := w.d.ScreenSize(ctx)
	if err != nil {
		pterm.Error.Printf("Failed to get screen size: %v\n", err)
		return nil
	}
	pterm.Info.Printf("%dx%d\n", width, height)
	return nil
}

func runWindowsList(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	return WindowsCmd{d: d}.List(cmd.Context(), args[0])
}

func runWindowsFocused(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	return WindowsCmd{d: d}.Focused(cmd.Context())
}

func runScreen(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	return WindowsCmd{d: d}.Screen(cmd.Context())
}

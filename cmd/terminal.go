package cmd

import (
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

var terminalCmd = &cobra.Command{
	Use:   "terminal",
	Short: "Open an interactive shell inside a sandbox",
	RunE:  runTerminal,
}

func init() {
	addTargetFlags(terminalCmd)
	terminalCmd.Flags().String("cmd", "", "Command to run instead of the default shell")
	rootCmd.AddCommand(terminalCmd)
}

func runTerminal(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	shellCmd, _ := cmd.Flags().GetString("cmd")

	fd := int(os.Stdin.Fd())
	rows, cols := 24, 80
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			cols, rows = w, h
		}
	}

	termSession, err := sb.OpenTerminal(cmd.Context(), sandbox.TerminalOptions{
		Cmd:  shellCmd,
		Rows: rows,
		Cols: cols,
	})
	if err != nil {
		pterm.Error.Printf("Failed to open terminal: %v\n", err)
		return nil
	}
	defer termSession.Close()

	restore := func() {}
	if term.IsTerminal(fd) {
		if state, err := term.MakeRaw(fd); err == nil {
			restore = func() { _ = term.Restore(fd, state) }
		}
	}

	go func() {
		_, _ = io.Copy(termSession, os.Stdin)
	}()
	_, _ = io.Copy(os.Stdout, termSession)

	code, err := termSession.Wait(cmd.Context())
	restore()
	if err != nil {
		pterm.Error.Printf("Terminal session ended abnormally: %v\n", err)
		return nil
	}
	if code != 0 {
		pterm.Warning.Printf("Shell exited with code %d\n", code)
	}
	return nil
}

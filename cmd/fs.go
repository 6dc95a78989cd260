package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

var fsCmd = &cobra.Command{
	Use:   "fs",
	Short: "Work with files inside a sandbox",
}

var fsReadCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Print a sandbox file to stdout or save it locally",
	Args:  cobra.ExactArgs(1),
	RunE:  runFsRead,
}

var fsWriteCmd = &cobra.Command{
	Use:   "write <path>",
	Short: "Write a local file or stdin into the sandbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runFsWrite,
}

var fsLsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List a sandbox directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runFsLs,
}

var fsMvCmd = &cobra.Command{
	Use:   "mv <src> <dst>",
	Short: "Move or rename a sandbox file",
	Args:  cobra.ExactArgs(2),
	RunE:  runFsMv,
}

var fsRmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a sandbox file or directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runFsRm,
}

var fsMkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a sandbox directory, including parents",
	Args:  cobra.ExactArgs(1),
	RunE:  runFsMkdir,
}

func init() {
	for _, c := range []*cobra.Command{fsReadCmd, fsWriteCmd, fsLsCmd, fsMvCmd, fsRmCmd, fsMkdirCmd} {
		addTargetFlags(c)
		fsCmd.AddCommand(c)
	}
	fsReadCmd.Flags().StringP("out", "o", "", "Write the file contents to this local path instead of stdout")
	fsWriteCmd.Flags().StringP("from", "f", "", "Local file to upload (default: read stdin)")
	rootCmd.AddCommand(fsCmd)
}

// FsCmd runs file operations against a sandbox.
type FsCmd struct {
	sb sandbox.Sandbox
}

func (f FsCmd) Read(ctx context.Context, path, out string) error {
	data, err := f.sb.ReadFile(ctx, path)
	if err != nil {
		pterm.Error.Printf("Failed to read %s: %v\n", path, err)
		return nil
	}
	if out == "" {
		os.Stdout.Write(data)
		return nil
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		pterm.Error.Printf("Failed to write %s: %v\n", out, err)
		return nil
	}
	pterm.Success.Printf("Saved %s (%d bytes)\n", out, len(data))
	return nil
}

func (f FsCmd) Write(ctx context.Context, path string, data []byte) error {
	if err := f.sb.WriteFile(ctx, path, data); err != nil {
		pterm.Error.Printf("Failed to write %s: %v\n", path, err)
		return nil
	}
	pterm.Success.Printf("Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func (f FsCmd) List(ctx context.Context, path string) error {
	entries, err := f.sb.ListFiles(ctx, path)
	if err != nil {
		pterm.Error.Printf("Failed to list %s: %v\n", path, err)
		return nil
	}
	if len(entries) == 0 {
		pterm.Info.Printf("%s is empty\n", path)
		return nil
	}
	data := pterm.TableData{{"NAME", "SIZE", "MODE"}}
	for _, e := range entries {
		size := fmt.Sprintf("%d", e.Size)
		if e.IsDir {
			size = "-"
		}
		data = append(data, []string{e.Name, size, e.Mode})
	}
	printTableNoPad(data, true)
	return nil
}

func (f FsCmd) Move(ctx context.Context, src, dst string) error {
	if err := f.sb.MoveFile(ctx, src, dst); err != nil {
		pterm.Error.Printf("Failed to move %s: %v\n", src, err)
		return nil
	}
	pterm.Success.Printf("Moved %s to %s\n", src, dst)
	return nil
}

func (f FsCmd) Delete(ctx context.Context, path string) error {
	if err := f.sb.DeleteFile(ctx, path); err != nil {
		pterm.Error.Printf("Failed to delete %s: %v\n", path, err)
		return nil
	}
	pterm.Success.Printf("Deleted %s\n", path)
	return nil
}

func (f FsCmd) MakeDir(ctx context.Context, path string) error {
	if err := f.sb.MakeDir(ctx, path); err != nil {
		pterm.Error.Printf("Failed to create %s: %v\n", path, err)
		return nil
	}
	pterm.Success.Printf("Created %s\n", path)
	return nil
}

func runFsRead(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	return FsCmd{sb: sb}.Read(cmd.Context(), args[0], out)
}

func runFsWrite(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	from, _ := cmd.Flags().GetString("from")
	var data []byte
	if from != "" {
		data, err = os.ReadFile(from)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		pterm.Error.Printf("Failed to read input: %v\n", err)
		return nil
	}
	return FsCmd{sb: sb}.Write(cmd.Context(), args[0], data)
}

func runFsLs(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	return FsCmd{sb: sb}.List(cmd.Context(), args[0])
}

func runFsMv(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	return FsCmd{sb: sb}.Move(cmd.Context(), args[0], args[1])
}

func runFsRm(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	return FsCmd{sb: sb}.Delete(cmd.Context(), args[0])
}

func runFsMkdir(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	return FsCmd{sb: sb}.MakeDir(cmd.Context(), args[0])
}

package cmd

import (
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
)

var typeCmd = &cobra.Command{
	Use:   "type <text>",
	Short: "Type text into the focused window",
	Args:  cobra.ExactArgs(1),
	RunE:  runType,
}

var keyCmd = &cobra.Command{
	Use:   "key <combo>",
	Short: "Press a key or chord, e.g. Return or ctrl+shift+t",
	Args:  cobra.ExactArgs(1),
	RunE:  runKey,
}

func init() {
	addTargetFlags(typeCmd)
	typeCmd.Flags().Int("delay", 0, "Keystroke delay in milliseconds")
	typeCmd.Flags().Int("chunk-size", 0, "Characters typed per batch")
	addTargetFlags(keyCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(keyCmd)
}

// KeyboardCmd wraps typing and key presses for the CLI.
type KeyboardCmd struct {
	d *desktop.Desktop
}

func (k KeyboardCmd) Type(ctx context.Context, text string, opts desktop.WriteOptions) error {
	if err := k.d.Write(ctx, text, opts); err != nil {
		pterm.Error.Printf("Failed to type text: %v\n", err)
		return nil
	}
	pterm.Success.Printf("Typed %d characters\n", len(text))
	return nil
}

func (k KeyboardCmd) Press(ctx context.Context, combo string) error {
	keys := strings.Split(combo, "+")
	if err := k.d.PressKey(ctx, keys...); err != nil {
		pterm.Error.Printf("Failed to press keys: %v\n", err)
		return nil
	}
	pterm.Success.Printf("Pressed %s\n", combo)
	return nil
}

func runType(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	delay, _ := cmd.Flags().GetInt("delay")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	return KeyboardCmd{d: d}.Type(cmd.Context(), args[0], desktop.WriteOptions{
		ChunkSize: chunkSize,
		DelayMS:   delay,
	})
}

func runKey(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	return KeyboardCmd{d: d}.Press(cmd.Context(), args[0])
}

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

var suspendCmd = &cobra.Command{
	Use:   "suspend",
	Short: "Pause a running sandbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(cmd, "suspend")
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Unpause a suspended sandbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(cmd, "resume")
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Tear down a sandbox and its state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(cmd, "destroy")
	},
}

func init() {
	for _, c := range []*cobra.Command{suspendCmd, resumeCmd, destroyCmd} {
		addTargetFlags(c)
		rootCmd.AddCommand(c)
	}
	destroyCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
}

// Lifecycle applies suspend/resume/destroy to one sandbox.
func (c SandboxCmd) Lifecycle(ctx context.Context, sb sandbox.Sandbox, action string, skipConfirm bool) error {
	switch action {
	case "suspend":
		if err := sb.Suspend(ctx); err != nil {
			pterm.Error.Printf("Failed to suspend sandbox: %v\n", err)
			return nil
		}
		pterm.Success.Printf("Suspended sandbox %s\n", sb.ID())
	case "resume":
		if err := sb.Resume(ctx); err != nil {
			pterm.Error.Printf("Failed to resume sandbox: %v\n", err)
			return nil
		}
		pterm.Success.Printf("Resumed sandbox %s\n", sb.ID())
	case "destroy":
		if !skipConfirm {
			pterm.DefaultInteractiveConfirm.DefaultText = fmt.Sprintf("Destroy sandbox '%s'?", sb.ID())
			ok, _ := pterm.DefaultInteractiveConfirm.Show()
			if !ok {
				pterm.Info.Println("Destroy cancelled")
				return nil
			}
		}
		if err := sb.Destroy(ctx); err != nil {
			pterm.Error.Printf("Failed to destroy sandbox: %v\n", err)
			return nil
		}
		pterm.Success.Printf("Destroyed sandbox %s\n", sb.ID())
	default:
		return fmt.Errorf("unknown lifecycle action %q", action)
	}
	return nil
}

func runLifecycle(cmd *cobra.Command, action string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	skipConfirm := false
	if cmd.Flags().Lookup("yes") != nil {
		skipConfirm, _ = cmd.Flags().GetBool("yes")
	}
	return SandboxCmd{}.Lifecycle(cmd.Context(), sb, action, skipConfirm)
}

package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command>",
	Short: "Run a shell command inside a sandbox",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func init() {
	addTargetFlags(execCmd)
	execCmd.Flags().StringP("workdir", "w", "", "Working directory inside the sandbox")
	execCmd.Flags().StringArrayP("env", "e", nil, "Environment variables for the command (KEY=VALUE)")
	execCmd.Flags().DurationP("timeout", "t", 0, "Kill the command after this duration")
	execCmd.Flags().BoolP("background", "b", false, "Start the command and return its PID without waiting")
	rootCmd.AddCommand(execCmd)
}

// ExecCmd runs commands inside a sandbox.
type ExecCmd struct {
	sb sandbox.Sandbox
}

type ExecInput struct {
	Command    string
	WorkDir    string
	Env        map[string]string
	Timeout    time.Duration
	Background bool
}

func (e ExecCmd) Run(ctx context.Context, in ExecInput) error {
	opts := sandbox.CommandOptions{
		WorkDir: in.WorkDir,
		Env:     in.Env,
		Timeout: in.Timeout,
	}

	if in.Background {
		proc, err := e.sb.RunBackground(ctx, in.Command, opts)
		if err != nil {
			pterm.Error.Printf("Failed to start command: %v\n", err)
			return nil
		}
		pterm.Success.Printf("Started with PID %d\n", proc.PID)
		return nil
	}

	res, err := e.sb.RunCommand(ctx, in.Command, opts)
	if err != nil {
		pterm.Error.Printf("Command failed: %v\n", err)
		return nil
	}
	if res.Output != "" {
		pterm.Print(res.Output)
		if !strings.HasSuffix(res.Output, "\n") {
			pterm.Println()
		}
	}
	if res.ExitCode != 0 {
		pterm.Warning.Printf("Exited with code %d\n", res.ExitCode)
	}
	return nil
}

func runExec(cmd *cobra.Command, args []string) error {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return err
	}
	env, _ := cmd.Flags().GetStringArray("env")
	envMap, err := parseEnvPairs(env)
	if err != nil {
		return err
	}
	in := ExecInput{
		Command: strings.Join(args, " "),
		Env:     envMap,
	}
	in.WorkDir, _ = cmd.Flags().GetString("workdir")
	in.Timeout, _ = cmd.Flags().GetDuration("timeout")
	in.Background, _ = cmd.Flags().GetBool("background")
	return ExecCmd{sb: sb}.Run(cmd.Context(), in)
}

package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/sandboxtest"
)

func TestExecRun_PrintsOutput(t *testing.T) {
	setupStdoutCapture(t)

	fake := &sandboxtest.Fake{
		RunCommandFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
			return &sandbox.CommandResult{ExitCode: 0, Output: "total 0\n"}, nil
		},
	}
	e := ExecCmd{sb: fake}
	_ = e.Run(context.Background(), ExecInput{Command: "ls -la /tmp"})

	if !strings.Contains(outBuf.String(), "total 0") {
		t.Fatalf("expected command output, got: %s", outBuf.String())
	}
	cmds := fake.Commands()
	if len(cmds) != 1 || cmds[0] != "ls -la /tmp" {
		t.Fatalf("unexpected commands: %v", cmds)
	}
}

func TestExecRun_ReportsNonzeroExit(t *testing.T) {
	setupStdoutCapture(t)

	fake := &sandboxtest.Fake{
		RunCommandFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
			return &sandbox.CommandResult{ExitCode: 3, Output: "boom"}, nil
		},
	}
	e := ExecCmd{sb: fake}
	_ = e.Run(context.Background(), ExecInput{Command: "false"})

	out := outBuf.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "Exited with code 3") {
		t.Fatalf("expected output and exit code, got: %s", out)
	}
}

func TestExecRun_PassesOptionsThrough(t *testing.T) {
	setupStdoutCapture(t)

	var got sandbox.CommandOptions
	fake := &sandboxtest.Fake{
		RunCommandFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
			got = opts
			return &sandbox.CommandResult{ExitCode: 0}, nil
		},
	}
	e := ExecCmd{sb: fake}
	_ = e.Run(context.Background(), ExecInput{
		Command: "env",
		WorkDir: "/srv",
		Env:     map[string]string{"MODE": "test"},
		Timeout: 2 * time.Second,
	})

	if got.WorkDir != "/srv" || got.Env["MODE"] != "test" || got.Timeout != 2*time.Second {
		t.Fatalf("options not passed through: %+v", got)
	}
}

func TestExecRun_Background(t *testing.T) {
	setupStdoutCapture(t)

	fake := &sandboxtest.Fake{
		RunBackgroundFunc: func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.Process, error) {
			return &sandbox.Process{PID: 4321}, nil
		},
	}
	e := ExecCmd{sb: fake}
	_ = e.Run(context.Background(), ExecInput{Command: "sleep 600", Background: true})

	if !strings.Contains(outBuf.String(), "Started with PID 4321") {
		t.Fatalf("expected PID message, got: %s", outBuf.String())
	}
	bg := fake.BackgroundCommands()
	if len(bg) != 1 || bg[0] != "sleep 600" {
		t.Fatalf("unexpected background commands: %v", bg)
	}
}

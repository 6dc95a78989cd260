// Package sandbox defines the execution substrate that desktop controllers
// run on top of: remote ephemeral environments exposing shell command
// execution, file operations, and lifecycle control. Concrete backends
// (local processes, Docker containers, cloud providers) implement Provider
// and register themselves by name.
package sandbox

import (
	"context"
	"io"
	"time"
)

// Sandbox is a handle to one remote environment. Implementations are safe
// for sequential use by a single owner; callers that share a Sandbox across
// goroutines are responsible for serializing calls whose ordering matters.
type Sandbox interface {
	// ID returns the provider-assigned identifier for this sandbox.
	ID() string

	// RunCommand executes cmd through a shell inside the sandbox and waits
	// for it to finish.
	RunCommand(ctx context.Context, cmd string, opts CommandOptions) (*CommandResult, error)

	// RunBackground starts cmd through a shell inside the sandbox and
	// returns immediately with the process handle. The command is not
	// bounded by any timeout.
	RunBackground(ctx context.Context, cmd string, opts CommandOptions) (*Process, error)

	// ReadFile returns the contents of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to path, creating the file if needed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ListFiles returns the entries of the directory at path.
	ListFiles(ctx context.Context, path string) ([]FileInfo, error)

	// MoveFile renames src to dst.
	MoveFile(ctx context.Context, src, dst string) error

	// DeleteFile removes the file or directory at path.
	DeleteFile(ctx context.Context, path string) error

	// MakeDir creates the directory at path, including parents.
	MakeDir(ctx context.Context, path string) error

	// PreviewURL maps a port inside the sandbox to an externally reachable
	// URL.
	PreviewURL(ctx context.Context, port int) (string, error)

	// OpenTerminal creates an interactive PTY session.
	OpenTerminal(ctx context.Context, opts TerminalOptions) (Terminal, error)

	// Suspend pauses the sandbox without destroying it.
	Suspend(ctx context.Context) error

	// Resume unpauses a suspended sandbox.
	Resume(ctx context.Context) error

	// Destroy tears the sandbox down. The handle is unusable afterwards.
	Destroy(ctx context.Context) error
}

// Provider creates and reconnects to sandboxes of one backend.
type Provider interface {
	// Name returns the registry name of the provider, e.g. "docker".
	Name() string

	// Create provisions a new sandbox.
	Create(ctx context.Context, opts CreateOptions) (Sandbox, error)

	// Connect returns a handle to an existing sandbox by its ID.
	Connect(ctx context.Context, id string) (Sandbox, error)

	// BuildTemplate builds a reusable sandbox template named name from the
	// build context in dir. Called at setup time only; providers without a
	// build pipeline return ErrTemplateUnsupported.
	BuildTemplate(ctx context.Context, dir, name string, res Resources) error
}

// CreateOptions configures sandbox provisioning.
type CreateOptions struct {
	// Template names the image/snapshot to provision from.
	Template string

	// Env is set on every command run in the sandbox.
	Env map[string]string

	// Resources requests sizing for the sandbox. Zero fields mean
	// provider defaults.
	Resources Resources
}

// Resources describes sandbox sizing.
type Resources struct {
	CPUCores float64
	MemoryMB int
	DiskMB   int
}

// CommandOptions configures one command execution.
type CommandOptions struct {
	// WorkDir is the working directory for the command. Empty means the
	// sandbox default.
	WorkDir string

	// Env is merged over the sandbox-level environment.
	Env map[string]string

	// Timeout bounds synchronous execution. Zero means no limit. Ignored
	// by RunBackground.
	Timeout time.Duration
}

// CommandResult is the outcome of a synchronous command.
type CommandResult struct {
	ExitCode int
	// Output is the combined stdout and stderr of the command.
	Output string
}

// Process identifies a command started in the background.
type Process struct {
	// PID is the process id inside the sandbox.
	PID int
}

// FileInfo describes one directory entry.
type FileInfo struct {
	Name  string
	Size  int64
	IsDir bool
	Mode  string
}

// TerminalOptions configures an interactive terminal session.
type TerminalOptions struct {
	// Cmd is the command to run. Empty means the default shell.
	Cmd string
	// Rows and Cols are the initial terminal dimensions.
	Rows int
	Cols int
	Env  map[string]string
}

// Terminal is an interactive PTY attached to a sandbox. It implements
// io.ReadWriteCloser for terminal I/O.
type Terminal interface {
	io.ReadWriteCloser

	// Resize changes the terminal dimensions.
	Resize(ctx context.Context, rows, cols int) error

	// Wait blocks until the terminal command exits and returns its exit
	// code.
	Wait(ctx context.Context) (int, error)
}

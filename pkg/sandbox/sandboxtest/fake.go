// Package sandboxtest provides a configurable in-memory Sandbox
// implementation for tests.
package sandboxtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

// Fake is a scripted sandbox. Zero value is usable: commands succeed with
// empty output, files live in an in-memory map. Individual behaviors can be
// overridden via the Func fields; every executed command is recorded so
// tests can assert on the exact shell strings the code under test builds.
type Fake struct {
	SandboxID string

	RunCommandFunc    func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error)
	RunBackgroundFunc func(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.Process, error)
	PreviewURLFunc    func(ctx context.Context, port int) (string, error)

	mu         sync.Mutex
	commands   []string
	background []string
	files      map[string][]byte
	destroyed  bool
	suspended  bool
	nextPID    int
}

var _ sandbox.Sandbox = (*Fake)(nil)

// Commands returns every command dispatched via RunCommand, in order.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// BackgroundCommands returns every command dispatched via RunBackground.
func (f *Fake) BackgroundCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.background...)
}

// Destroyed reports whether Destroy was called.
func (f *Fake) Destroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

// Suspended reports whether the fake is currently suspended.
func (f *Fake) Suspended() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suspended
}

// PutFile seeds the in-memory filesystem.
func (f *Fake) PutFile(path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	f.files[path] = data
}

// HasFile reports whether path exists in the in-memory filesystem.
func (f *Fake) HasFile(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

func (f *Fake) ID() string {
	if f.SandboxID != "" {
		return f.SandboxID
	}
	return "fake-sandbox"
}

func (f *Fake) RunCommand(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	if f.RunCommandFunc != nil {
		return f.RunCommandFunc(ctx, cmd, opts)
	}
	return &sandbox.CommandResult{ExitCode: 0, Output: ""}, nil
}

func (f *Fake) RunBackground(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.Process, error) {
	f.mu.Lock()
	f.background = append(f.background, cmd)
	f.nextPID++
	pid := 1000 + f.nextPID
	f.mu.Unlock()
	if f.RunBackgroundFunc != nil {
		return f.RunBackgroundFunc(ctx, cmd, opts)
	}
	return &sandbox.Process{PID: pid}, nil
}

func (f *Fake) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: no such file", path)
	}
	return append([]byte(nil), data...), nil
}

func (f *Fake) WriteFile(ctx context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	f.files[path] = append([]byte(nil), data...)
	return nil
}

func (f *Fake) ListFiles(ctx context.Context, path string) ([]sandbox.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var infos []sandbox.FileInfo
	for name, data := range f.files {
		infos = append(infos, sandbox.FileInfo{Name: name, Size: int64(len(data))})
	}
	return infos, nil
}

func (f *Fake) MoveFile(ctx context.Context, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[src]
	if !ok {
		return fmt.Errorf("move %s: no such file", src)
	}
	f.files[dst] = data
	delete(f.files, src)
	return nil
}

func (f *Fake) DeleteFile(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}

func (f *Fake) MakeDir(ctx context.Context, path string) error { return nil }

func (f *Fake) PreviewURL(ctx context.Context, port int) (string, error) {
	if f.PreviewURLFunc != nil {
		return f.PreviewURLFunc(ctx, port)
	}
	return fmt.Sprintf("https://%d-%s.preview.test", port, f.ID()), nil
}

func (f *Fake) OpenTerminal(ctx context.Context, opts sandbox.TerminalOptions) (sandbox.Terminal, error) {
	return nil, fmt.Errorf("sandboxtest: terminals not supported")
}

func (f *Fake) Suspend(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspended = true
	return nil
}

func (f *Fake) Resume(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspended = false
	return nil
}

func (f *Fake) Destroy(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
	return nil
}

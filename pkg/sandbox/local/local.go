// Package local implements the sandbox provider that runs commands directly
// on the host. It exists for development and CI: no isolation is provided,
// the "sandbox" is a workspace directory plus an environment recorded at
// create time. Metadata is persisted under the user config directory so
// later CLI invocations can reconnect by ID.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

const providerName = "local"

// Provider creates host-local sandboxes.
type Provider struct {
	// StateDir overrides where sandbox metadata is stored. Empty means
	// ~/.config/deskbox/sandboxes.
	StateDir string
}

var _ sandbox.Provider = (*Provider)(nil)

func (p *Provider) Name() string { return providerName }

// meta is the on-disk record for one local sandbox.
type meta struct {
	ID        string            `json:"id"`
	Template  string            `json:"template"`
	Env       map[string]string `json:"env"`
	Workspace string            `json:"workspace"`
}

func (p *Provider) stateDir() (string, error) {
	if p.StateDir != "" {
		return p.StateDir, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "deskbox", "sandboxes"), nil
}

func (p *Provider) Create(ctx context.Context, opts sandbox.CreateOptions) (sandbox.Sandbox, error) {
	dir, err := p.stateDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	id := uuid.NewString()
	workspace := filepath.Join(dir, id)
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	m := meta{
		ID:        id,
		Template:  opts.Template,
		Env:       opts.Env,
		Workspace: workspace,
	}
	if err := p.saveMeta(m); err != nil {
		return nil, err
	}
	return &Sandbox{meta: m}, nil
}

func (p *Provider) Connect(ctx context.Context, id string) (sandbox.Sandbox, error) {
	dir, err := p.stateDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state dir: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", sandbox.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read sandbox metadata: %w", err)
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode sandbox metadata: %w", err)
	}
	return &Sandbox{meta: m, stateDir: dir}, nil
}

// BuildTemplate is not supported: local sandboxes have no image pipeline.
func (p *Provider) BuildTemplate(ctx context.Context, dir, name string, res sandbox.Resources) error {
	return sandbox.ErrTemplateUnsupported
}

func (p *Provider) saveMeta(m meta) error {
	dir, err := p.stateDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sandbox metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, m.ID+".json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write sandbox metadata: %w", err)
	}
	return nil
}

// Sandbox runs everything on the host via /bin/sh.
type Sandbox struct {
	meta     meta
	stateDir string
}

var _ sandbox.Sandbox = (*Sandbox)(nil)

func (s *Sandbox) ID() string { return s.meta.ID }

func (s *Sandbox) env(extra map[string]string) []string {
	merged := lo.Assign(s.meta.Env, extra)
	env := os.Environ()
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	return env
}

func (s *Sandbox) RunCommand(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.CommandResult, error) {
	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, "/bin/sh", "-c", cmd)
	c.Dir = s.workDir(opts.WorkDir)
	c.Env = s.env(opts.Env)

	out, err := c.CombinedOutput()
	if err != nil {
		// A deadline kill surfaces as an ExitError too, so check the
		// context first.
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", sandbox.ErrTimeout, cmd)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &sandbox.CommandResult{ExitCode: exitErr.ExitCode(), Output: string(out)}, nil
		}
		return nil, fmt.Errorf("%w: %v", sandbox.ErrCommandFailed, err)
	}
	return &sandbox.CommandResult{ExitCode: 0, Output: string(out)}, nil
}

func (s *Sandbox) RunBackground(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.Process, error) {
	c := exec.Command("/bin/sh", "-c", cmd)
	c.Dir = s.workDir(opts.WorkDir)
	c.Env = s.env(opts.Env)
	// Detach so the process outlives the CLI invocation.
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", sandbox.ErrCommandFailed, err)
	}
	pid := c.Process.Pid
	// Reap the child when it exits so it does not linger as a zombie for
	// long-lived callers.
	go func() { _ = c.Wait() }()
	return &sandbox.Process{PID: pid}, nil
}

func (s *Sandbox) workDir(override string) string {
	if override != "" {
		return override
	}
	return s.meta.Workspace
}

func (s *Sandbox) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(s.resolve(path))
}

func (s *Sandbox) WriteFile(ctx context.Context, path string, data []byte) error {
	return os.WriteFile(s.resolve(path), data, 0o644)
}

func (s *Sandbox) ListFiles(ctx context.Context, path string) ([]sandbox.FileInfo, error) {
	entries, err := os.ReadDir(s.resolve(path))
	if err != nil {
		return nil, err
	}
	infos := make([]sandbox.FileInfo, 0, len(entries))
	for _, e := range entries {
		fi := sandbox.FileInfo{Name: e.Name(), IsDir: e.IsDir()}
		if info, err := e.Info(); err == nil {
			fi.Size = info.Size()
			fi.Mode = info.Mode().String()
		}
		infos = append(infos, fi)
	}
	return infos, nil
}

func (s *Sandbox) MoveFile(ctx context.Context, src, dst string) error {
	return os.Rename(s.resolve(src), s.resolve(dst))
}

func (s *Sandbox) DeleteFile(ctx context.Context, path string) error {
	return os.RemoveAll(s.resolve(path))
}

func (s *Sandbox) MakeDir(ctx context.Context, path string) error {
	return os.MkdirAll(s.resolve(path), 0o755)
}

// resolve keeps absolute paths as-is and anchors relative paths at the
// workspace.
func (s *Sandbox) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.meta.Workspace, path)
}

// PreviewURL points at the loopback interface: local sandboxes share the
// host network.
func (s *Sandbox) PreviewURL(ctx context.Context, port int) (string, error) {
	u := url.URL{Scheme: "http", Host: "localhost:" + strconv.Itoa(port)}
	return u.String(), nil
}

func (s *Sandbox) OpenTerminal(ctx context.Context, opts sandbox.TerminalOptions) (sandbox.Terminal, error) {
	return nil, fmt.Errorf("local provider: terminals are not supported")
}

func (s *Sandbox) Suspend(ctx context.Context) error {
	return fmt.Errorf("local provider: suspend is not supported")
}

func (s *Sandbox) Resume(ctx context.Context) error {
	return fmt.Errorf("local provider: resume is not supported")
}

func (s *Sandbox) Destroy(ctx context.Context) error {
	if err := os.RemoveAll(s.meta.Workspace); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	dir := s.stateDir
	if dir == "" {
		dir = filepath.Dir(s.meta.Workspace)
	}
	if err := os.Remove(filepath.Join(dir, s.meta.ID+".json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove sandbox metadata: %w", err)
	}
	return nil
}

// Package docker implements the sandbox provider backed by Docker
// containers. Templates map to image tags; every sandbox is one container
// labeled deskbox.managed=true so stray containers can be found and cleaned
// up with the regular Docker tooling.
package docker

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	containertypes "github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

const (
	providerName = "docker"

	// DefaultImage is used when CreateOptions.Template is empty. It is
	// expected to carry Xvfb, a desktop session, and the X11 automation
	// tools.
	DefaultImage = "deskbox/desktop:latest"

	labelManaged = "deskbox.managed"
	labelName    = "deskbox"
)

// Provider creates Docker-backed sandboxes.
type Provider struct {
	cli client.APIClient
}

var _ sandbox.Provider = (*Provider)(nil)

// New connects to the Docker daemon using the standard environment
// configuration (DOCKER_HOST et al).
func New() (*Provider, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to docker daemon: %w", err)
	}
	return &Provider{cli: cli}, nil
}

// NewWithClient wires an existing API client; used by tests.
func NewWithClient(cli client.APIClient) *Provider {
	return &Provider{cli: cli}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Create(ctx context.Context, opts sandbox.CreateOptions) (sandbox.Sandbox, error) {
	image := opts.Template
	if image == "" {
		image = DefaultImage
	}

	env := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}

	config := &containertypes.Config{
		Image: image,
		Env:   env,
		Labels: map[string]string{
			labelManaged:         "true",
			labelName + ".image": image,
		},
	}
	hostConfig := &containertypes.HostConfig{
		PublishAllPorts: true,
		Resources: containertypes.Resources{
			Memory:   int64(opts.Resources.MemoryMB) * 1024 * 1024,
			NanoCPUs: int64(opts.Resources.CPUCores * 1e9),
		},
		// Xorg and friends want a bigger /dev/shm than the Docker
		// default 64M.
		ShmSize: 512 * 1024 * 1024,
	}

	resp, err := p.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		if strings.Contains(err.Error(), "No such image") {
			if pullErr := p.pullImage(ctx, image); pullErr != nil {
				return nil, pullErr
			}
			resp, err = p.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create container: %w", err)
		}
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, containertypes.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}
	return &Sandbox{cli: p.cli, id: resp.ID, env: opts.Env}, nil
}

func (p *Provider) Connect(ctx context.Context, id string) (sandbox.Sandbox, error) {
	info, err := p.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sandbox.ErrNotFound, id)
	}
	if info.State == nil || !info.State.Running {
		return nil, fmt.Errorf("%w: %s", sandbox.ErrNotRunning, id)
	}
	return &Sandbox{cli: p.cli, id: info.ID}, nil
}

func (p *Provider) pullImage(ctx context.Context, image string) error {
	rc, err := p.cli.ImagePull(ctx, image, imagetypes.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	defer rc.Close()
	// Drain the progress stream; the pull only completes once it is read.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	return nil
}

// Sandbox is one running container.
type Sandbox struct {
	cli client.APIClient
	id  string
	env map[string]string
}

var _ sandbox.Sandbox = (*Sandbox)(nil)

func (s *Sandbox) ID() string { return s.id }

func (s *Sandbox) execEnv(extra map[string]string) []string {
	var env []string
	for k, v := range s.env {
		env = append(env, k+"="+v)
	}
	for k, v := range extra {
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

	execResp, err := s.cli.ContainerExecCreate(runCtx, s.id, containertypes.ExecOptions{
		Cmd:          []string{"/bin/sh", "-c", cmd},
		Env:          s.execEnv(opts.Env),
		WorkingDir:   opts.WorkDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sandbox.ErrCommandFailed, err)
	}

	attach, err := s.cli.ContainerExecAttach(runCtx, execResp.ID, containertypes.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sandbox.ErrCommandFailed, err)
	}
	defer attach.Close()

	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, attach.Reader); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", sandbox.ErrTimeout, cmd)
		}
		return nil, fmt.Errorf("%w: %v", sandbox.ErrCommandFailed, err)
	}

	inspect, err := s.cli.ContainerExecInspect(runCtx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}
	return &sandbox.CommandResult{ExitCode: inspect.ExitCode, Output: out.String()}, nil
}

// RunBackground detaches via the shell and reports the in-container pid.
func (s *Sandbox) RunBackground(ctx context.Context, cmd string, opts sandbox.CommandOptions) (*sandbox.Process, error) {
	wrapped := fmt.Sprintf("nohup %s >/dev/null 2>&1 & echo $!", cmd)
	opts.Timeout = 0
	res, err := s.RunCommand(ctx, wrapped, opts)
	if err != nil {
		return nil, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(res.Output))
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable pid %q", sandbox.ErrCommandFailed, res.Output)
	}
	return &sandbox.Process{PID: pid}, nil
}

func (s *Sandbox) ReadFile(ctx context.Context, path string) ([]byte, error) {
	res, err := s.RunCommand(ctx, fmt.Sprintf("base64 < %s", shellQuote(path)), sandbox.CommandOptions{})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("failed to read %s: %s", path, strings.TrimSpace(res.Output))
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(res.Output, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return data, nil
}

func (s *Sandbox) WriteFile(ctx context.Context, path string, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	cmd := fmt.Sprintf("printf '%%s' %s | base64 -d > %s", shellQuote(encoded), shellQuote(path))
	res, err := s.RunCommand(ctx, cmd, sandbox.CommandOptions{})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("failed to write %s: %s", path, strings.TrimSpace(res.Output))
	}
	return nil
}

func (s *Sandbox) ListFiles(ctx context.Context, path string) ([]sandbox.FileInfo, error) {
	res, err := s.RunCommand(ctx, fmt.Sprintf("ls -A -p %s", shellQuote(path)), sandbox.CommandOptions{})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("failed to list %s: %s", path, strings.TrimSpace(res.Output))
	}
	var infos []sandbox.FileInfo
	for _, line := range strings.Split(strings.TrimSpace(res.Output), "\n") {
		if line == "" {
			continue
		}
		isDir := strings.HasSuffix(line, "/")
		infos = append(infos, sandbox.FileInfo{Name: strings.TrimSuffix(line, "/"), IsDir: isDir})
	}
	return infos, nil
}

func (s *Sandbox) MoveFile(ctx context.Context, src, dst string) error {
	return s.runOrError(ctx, fmt.Sprintf("mv %s %s", shellQuote(src), shellQuote(dst)))
}

func (s *Sandbox) DeleteFile(ctx context.Context, path string) error {
	return s.runOrError(ctx, fmt.Sprintf("rm -rf %s", shellQuote(path)))
}

func (s *Sandbox) MakeDir(ctx context.Context, path string) error {
	return s.runOrError(ctx, fmt.Sprintf("mkdir -p %s", shellQuote(path)))
}

func (s *Sandbox) runOrError(ctx context.Context, cmd string) error {
	res, err := s.RunCommand(ctx, cmd, sandbox.CommandOptions{})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s: %s", cmd, strings.TrimSpace(res.Output))
	}
	return nil
}

// PreviewURL prefers a published host port binding; without one it falls
// back to the container's bridge address, which is reachable from the host
// on Linux.
func (s *Sandbox) PreviewURL(ctx context.Context, port int) (string, error) {
	info, err := s.cli.ContainerInspect(ctx, s.id)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container: %w", err)
	}
	if info.NetworkSettings != nil {
		bindings := info.NetworkSettings.Ports[nat.Port(fmt.Sprintf("%d/tcp", port))]
		if len(bindings) > 0 {
			host := bindings[0].HostIP
			if host == "" || host == "0.0.0.0" {
				host = "127.0.0.1"
			}
			u := url.URL{Scheme: "http", Host: host + ":" + bindings[0].HostPort}
			return u.String(), nil
		}
		if info.NetworkSettings.IPAddress != "" {
			u := url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", info.NetworkSettings.IPAddress, port)}
			return u.String(), nil
		}
	}
	return "", fmt.Errorf("no reachable address for port %d on container %s", port, s.id)
}

func (s *Sandbox) OpenTerminal(ctx context.Context, opts sandbox.TerminalOptions) (sandbox.Terminal, error) {
	cmd := opts.Cmd
	if cmd == "" {
		cmd = "/bin/sh"
	}
	execResp, err := s.cli.ContainerExecCreate(ctx, s.id, containertypes.ExecOptions{
		Cmd:          []string{"/bin/sh", "-c", cmd},
		Env:          s.execEnv(opts.Env),
		Tty:          true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal: %w", err)
	}
	attach, err := s.cli.ContainerExecAttach(ctx, execResp.ID, containertypes.ExecStartOptions{Tty: true})
	if err != nil {
		return nil, fmt.Errorf("failed to attach terminal: %w", err)
	}
	term := &terminal{cli: s.cli, execID: execResp.ID, reader: attach.Reader, conn: attach.Conn, closeFn: attach.Close}
	if opts.Rows > 0 && opts.Cols > 0 {
		_ = term.Resize(ctx, opts.Rows, opts.Cols)
	}
	return term, nil
}

func (s *Sandbox) Suspend(ctx context.Context) error {
	if err := s.cli.ContainerPause(ctx, s.id); err != nil {
		return fmt.Errorf("failed to pause container: %w", err)
	}
	return nil
}

func (s *Sandbox) Resume(ctx context.Context) error {
	if err := s.cli.ContainerUnpause(ctx, s.id); err != nil {
		return fmt.Errorf("failed to unpause container: %w", err)
	}
	return nil
}

func (s *Sandbox) Destroy(ctx context.Context) error {
	if err := s.cli.ContainerRemove(ctx, s.id, containertypes.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// shellQuote wraps s in single quotes for safe interpolation into a shell
// command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

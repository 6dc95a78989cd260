package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
	"github.com/deskbox-sh/deskbox/pkg/sandbox"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/docker"
	"github.com/deskbox-sh/deskbox/pkg/sandbox/local"
)

// BoolFlag distinguishes "flag not given" from "flag given as false".
type BoolFlag struct {
	Set   bool
	Value bool
}

func getBoolFlag(cmd *cobra.Command, name string) BoolFlag {
	v, _ := cmd.Flags().GetBool(name)
	return BoolFlag{Set: cmd.Flags().Changed(name), Value: v}
}

// Env vars let scripts omit --sandbox and --provider on every call.
const (
	sandboxIDEnv = "DESKBOX_SANDBOX"
	providerEnv  = "DESKBOX_PROVIDER"
)

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Sandbox provider (docker, local; defaults to $"+providerEnv+" or docker)")
	cmd.Flags().StringP("sandbox", "s", "", "Sandbox ID (defaults to $"+sandboxIDEnv+")")
	cmd.Flags().String("display", ":0", "X display inside the sandbox")
}

// resolveProviderName applies the flag > env > default chain.
func resolveProviderName(name string) string {
	if name != "" {
		return name
	}
	if env := os.Getenv(providerEnv); env != "" {
		return env
	}
	return "docker"
}

// providerFor resolves the built-in providers directly; anything else goes
// through the registry so external builds can plug their own in.
func providerFor(name string) (sandbox.Provider, error) {
	name = resolveProviderName(name)
	switch name {
	case "docker":
		return docker.New()
	case "local":
		return &local.Provider{}, nil
	default:
		return sandbox.Get(name)
	}
}

// connectSandbox resolves the provider and sandbox ID flags into a handle on
// an existing sandbox.
func connectSandbox(cmd *cobra.Command) (sandbox.Sandbox, error) {
	providerName, _ := cmd.Flags().GetString("provider")
	id, _ := cmd.Flags().GetString("sandbox")
	if id == "" {
		id = os.Getenv(sandboxIDEnv)
	}
	if id == "" {
		return nil, fmt.Errorf("no sandbox given: pass --sandbox or set $%s", sandboxIDEnv)
	}
	p, err := providerFor(providerName)
	if err != nil {
		return nil, err
	}
	return p.Connect(cmd.Context(), id)
}

// attachDesktop wraps the target sandbox in a desktop controller.
func attachDesktop(cmd *cobra.Command) (*desktop.Desktop, error) {
	sb, err := connectSandbox(cmd)
	if err != nil {
		return nil, err
	}
	display, _ := cmd.Flags().GetString("display")
	return desktop.Attach(sb, desktop.Options{Display: display}), nil
}

// parseEnvPairs turns KEY=VALUE strings into a map.
func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid env pair %q (want KEY=VALUE)", pair)
		}
		env[k] = v
	}
	return env, nil
}

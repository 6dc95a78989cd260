package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a sandbox and boot a desktop inside it",
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().String("provider", "", "Sandbox provider (docker, local; defaults to $"+providerEnv+" or docker)")
	createCmd.Flags().String("template", "", "Sandbox template (image tag for the docker provider)")
	createCmd.Flags().Int("width", 0, "Display width in pixels")
	createCmd.Flags().Int("height", 0, "Display height in pixels")
	createCmd.Flags().Int("dpi", 0, "Display DPI")
	createCmd.Flags().String("display", "", "X display to allocate")
	createCmd.Flags().StringArray("env", nil, "Environment variable KEY=VALUE (repeatable)")
	createCmd.Flags().String("env-file", "", "Read environment variables from a dotenv file")
	createCmd.Flags().Int("memory", 0, "Memory limit in MB")
	createCmd.Flags().Float64("cpus", 0, "CPU core limit")
	rootCmd.AddCommand(createCmd)
}

// SandboxCmd implements sandbox provisioning and lifecycle against a
// provider.
type SandboxCmd struct {
	provider sandbox.Provider
}

type CreateInput struct {
	Template  string
	Width     int
	Height    int
	DPI       int
	Display   string
	Env       map[string]string
	Resources sandbox.Resources
}

func (c SandboxCmd) Create(ctx context.Context, in CreateInput) error {
	spinner, _ := pterm.DefaultSpinner.Start("Provisioning sandbox...")
	d, err := desktop.New(ctx, c.provider, desktop.Options{
		Template:  in.Template,
		Width:     in.Width,
		Height:    in.Height,
		DPI:       in.DPI,
		Display:   in.Display,
		Env:       in.Env,
		Resources: in.Resources,
	})
	if err != nil {
		spinner.Fail("Provisioning failed")
		pterm.Error.Printf("Failed to create sandbox: %v\n", err)
		return nil
	}
	spinner.Success("Sandbox ready")

	width, height := d.Size()

	tableData := pterm.TableData{
		{"Property", "Value"},
		{"Sandbox ID", d.ID()},
		{"Provider", c.provider.Name()},
		{"Display", d.Display()},
		{"Resolution", fmt.Sprintf("%dx%d", width, height)},
	}
	pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()

	pterm.Info.Printf("Target it with: export %s=%s\n", sandboxIDEnv, d.ID())
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	providerName, _ := cmd.Flags().GetString("provider")
	p, err := providerFor(providerName)
	if err != nil {
		return err
	}

	env := map[string]string{}
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil {
			return fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			env[k] = v
		}
	}
	pairs, _ := cmd.Flags().GetStringArray("env")
	flagVars, err := parseEnvPairs(pairs)
	if err != nil {
		return err
	}
	// Explicit --env wins over the env file.
	for k, v := range flagVars {
		env[k] = v
	}

	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	dpi, _ := cmd.Flags().GetInt("dpi")
	display, _ := cmd.Flags().GetString("display")
	template, _ := cmd.Flags().GetString("template")
	memory, _ := cmd.Flags().GetInt("memory")
	cpus, _ := cmd.Flags().GetFloat64("cpus")

	c := SandboxCmd{provider: p}
	return c.Create(cmd.Context(), CreateInput{
		Template: template,
		Width:    width,
		Height:   height,
		DPI:      dpi,
		Display:  display,
		Env:      env,
		Resources: sandbox.Resources{
			CPUCores: cpus,
			MemoryMB: memory,
		},
	})
}

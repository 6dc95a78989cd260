package cmd

import (
	"context"
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/sandbox"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage sandbox templates",
}

var templateBuildCmd = &cobra.Command{
	Use:   "build <dir>",
	Short: "Build a sandbox template image from a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateBuild,
}

func init() {
	templateBuildCmd.Flags().String("provider", "", "Sandbox provider to build for (defaults to $"+providerEnv+" or docker)")
	templateBuildCmd.Flags().String("tag", "", "Name for the built template (required)")
	templateBuildCmd.Flags().Int("memory", 0, "Default memory for sandboxes from this template, in MB")
	templateBuildCmd.Flags().Float64("cpus", 0, "Default CPU cores for sandboxes from this template")
	templateBuildCmd.Flags().Int("disk", 0, "Default disk for sandboxes from this template, in MB")
	_ = templateBuildCmd.MarkFlagRequired("tag")
	templateCmd.AddCommand(templateBuildCmd)
	rootCmd.AddCommand(templateCmd)
}

// TemplateCmd builds sandbox templates through a provider.
type TemplateCmd struct {
	provider sandbox.Provider
}

type TemplateBuildInput struct {
	Dir       string
	Tag       string
	Resources sandbox.Resources
}

func (t TemplateCmd) Build(ctx context.Context, in TemplateBuildInput) error {
	spinner, _ := pterm.DefaultSpinner.Start("Building template " + in.Tag + "...")
	err := t.provider.BuildTemplate(ctx, in.Dir, in.Tag, in.Resources)
	if err != nil {
		if errors.Is(err, sandbox.ErrTemplateUnsupported) {
			spinner.Fail("This provider does not support template builds")
			return nil
		}
		spinner.Fail("Failed to build template: " + err.Error())
		return nil
	}
	spinner.Success("Built template " + in.Tag)
	return nil
}

func runTemplateBuild(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("provider")
	provider, err := providerFor(name)
	if err != nil {
		return err
	}
	in := TemplateBuildInput{Dir: args[0]}
	in.Tag, _ = cmd.Flags().GetString("tag")
	in.Resources.MemoryMB, _ = cmd.Flags().GetInt("memory")
	in.Resources.CPUCores, _ = cmd.Flags().GetFloat64("cpus")
	in.Resources.DiskMB, _ = cmd.Flags().GetInt("disk")
	return TemplateCmd{provider: provider}.Build(cmd.Context(), in)
}

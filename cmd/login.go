package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the hosted sandbox service",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().Bool("force", false, "Re-authenticate even if already logged in")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if creds, err := auth.Load(); err == nil && creds != nil && !creds.Expired() {
			pterm.Info.Println("Already logged in. Use --force to re-authenticate.")
			return nil
		}
	}

	flow, err := auth.NewFlow()
	if err != nil {
		pterm.Error.Printf("Failed to start login: %v\n", err)
		return nil
	}

	creds, err := flow.Run(cmd.Context())
	if err != nil {
		pterm.Error.Printf("Login failed: %v\n", err)
		return nil
	}

	if err := auth.Save(creds); err != nil {
		pterm.Error.Printf("Failed to store credentials: %v\n", err)
		return nil
	}

	pterm.Success.Println("Logged in")
	return nil
}

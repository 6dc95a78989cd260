package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/auth"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	creds, err := auth.Load()
	if err != nil || creds == nil {
		pterm.Info.Println("Not logged in")
		return nil
	}
	if err := auth.Delete(); err != nil {
		pterm.Error.Printf("Failed to remove credentials: %v\n", err)
		return nil
	}
	pterm.Success.Println("Logged out")
	return nil
}

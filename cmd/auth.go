package cmd

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/auth"
	"github.com/deskbox-sh/deskbox/pkg/util"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect authentication state",
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how the CLI is currently authenticated",
	RunE:  runAuthStatus,
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the current bearer token, refreshing it if needed",
	RunE:  runAuthToken,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authTokenCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	if key := os.Getenv(auth.APIKeyEnv); key != "" {
		pterm.Info.Printf("Authenticated via %s\n", auth.APIKeyEnv)
		return nil
	}

	creds, err := auth.Load()
	if err != nil || creds == nil {
		pterm.Info.Println("Not logged in. Run 'deskbox login' to authenticate.")
		return nil
	}

	data := pterm.TableData{}
	if creds.Expired() {
		data = append(data, []string{"Status", "expired"})
	} else {
		data = append(data, []string{"Status", "logged in"})
	}
	if !creds.ExpiresAt.IsZero() {
		data = append(data, []string{"Expires", util.FormatLocal(creds.ExpiresAt)})
	}
	if sub := tokenSubject(creds.AccessToken); sub != "" {
		data = append(data, []string{"Subject", sub})
	}
	if creds.RefreshToken != "" {
		data = append(data, []string{"Refresh token", "present"})
	}
	printTableNoPad(data, false)
	return nil
}

func runAuthToken(cmd *cobra.Command, args []string) error {
	token, err := auth.AccessToken(cmd.Context())
	if err != nil {
		pterm.Error.Printf("%v\n", err)
		return nil
	}
	// Bare output so it can be piped into other tools.
	fmt.Println(token)
	return nil
}

// tokenSubject pulls the subject claim out of the access token without
// verifying the signature; this is display only.
func tokenSubject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

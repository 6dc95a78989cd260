package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/update"
)

// Metadata carries build information set via ldflags in main.
type Metadata struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

var meta = Metadata{Version: "dev"}

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "deskbox",
	Short: "CLI for remote-controlled desktop sandboxes",
	Run: func(cmd *cobra.Command, args []string) {
		// If called without any subcommands, just show help.
		_ = cmd.Help()
	},
}

var logger *pterm.Logger

func logLevelToPterm(level string) pterm.LogLevel {
	switch level {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "info":
		return pterm.LogLevelInfo
	case "warn":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "fatal":
		return pterm.LogLevelFatal
	case "print":
		return pterm.LogLevelPrint
	default:
		return pterm.LogLevelInfo
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Print the CLI version")
	rootCmd.PersistentFlags().BoolP("no-color", "", false, "Disable color output")
	rootCmd.PersistentFlags().String("log-level", "warn", "Set the log level (trace, debug, info, warn, error, fatal, print)")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	cobra.OnInitialize(initConfig)

	// Version flag handling: we use our own persistent pre-run to handle it globally.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logLevel, _ := cmd.Flags().GetString("log-level")
		logger = pterm.DefaultLogger.WithLevel(logLevelToPterm(logLevel))
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("deskbox %s", meta.Version)
			if meta.Commit != "" {
				fmt.Printf(" (%s)", meta.Commit)
			}
			if meta.GoVersion != "" {
				fmt.Printf(" %s", meta.GoVersion)
			}
			if meta.Date != "" {
				fmt.Printf(" %s", meta.Date)
			}
			fmt.Println()
			os.Exit(0)
		}
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			pterm.DisableStyling()
		}
	}
}

func initConfig() {
	pterm.EnableStyling() // ensure pterm is initialised in case env disables it
	// Best-effort .env autoload; existing environment wins.
	_ = godotenv.Load()
}

// Execute runs the root command with build metadata from main.
func Execute(m Metadata) {
	meta = m
	update.MaybeShowMessage(context.Background(), m.Version, 24*time.Hour)
	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion(m.Version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khabaroff/portfolio-site/src/config"
	"github.com/khabaroff/portfolio-site/src/handlers"
	"github.com/khabaroff/portfolio-site/src/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	handlers.Version = version

	rootCmd := &cobra.Command{
		Use:   "portfolio-site",
		Short: "Portfolio site server with single-session admin access",
		Long: `portfolio-site serves the public portfolio API and the admin area.

An admin account has exactly one live session at a time: a new login
replaces the previous one, and open dashboards notice within one poll
interval. Running without a subcommand starts the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logging.Setup(logging.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		adminCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errSessionTerminated) {
			os.Exit(3)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

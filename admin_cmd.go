package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khabaroff/portfolio-site/src/config"
	"github.com/khabaroff/portfolio-site/src/services"
)

// cliActor identifies changes made from the command line in logs and event records
const cliActor = "cli"

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts and sessions",
		Long: `Manage admin accounts directly in the configured credential store.

Examples:
  portfolio-site admin create alice --password-env ALICE_PASSWORD
  portfolio-site admin deactivate alice
  portfolio-site admin logout-all`,
	}

	cmd.AddCommand(
		adminCreateCmd(),
		adminSetActiveCmd("activate", true),
		adminSetActiveCmd("deactivate", false),
		adminLogoutAllCmd(),
		adminSweepCmd(),
	)
	return cmd
}

// withServices opens the stores and hands the session services to fn
func withServices(ctx context.Context, fn func(cfg *config.Config, admins *services.AdminService, registry *services.SessionRegistry) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.StoreDriver == config.StoreMemory {
		return errors.New("admin commands need a persistent store; STORE_DRIVER is memory")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := services.NewSessionRegistry(st.admins, st.events, nil)
	return fn(cfg, services.NewAdminService(st.admins, registry), registry)
}

func adminCreateCmd() *cobra.Command {
	var passwordEnv string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(passwordEnv)
			if password == "" {
				return fmt.Errorf("environment variable %s is empty", passwordEnv)
			}

			return withServices(cmd.Context(), func(_ *config.Config, admins *services.AdminService, _ *services.SessionRegistry) error {
				admin, err := admins.CreateAdminUser(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Username, admin.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&passwordEnv, "password-env", "ADMIN_PASSWORD", "Environment variable holding the password")
	return cmd
}

func adminSetActiveCmd(use string, active bool) *cobra.Command {
	short := "Reactivate an admin account"
	if !active {
		short = "Deactivate an admin account and end its session"
	}

	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(_ *config.Config, admins *services.AdminService, _ *services.SessionRegistry) error {
				if err := admins.SetActive(cmd.Context(), args[0], active, cliActor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", use, args[0])
				return nil
			})
		},
	}
}

func adminLogoutAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout-all",
		Short: "End every admin session",
		Long: `End every admin session in a single bulk update.

Open dashboards notice within one poll interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(_ *config.Config, _ *services.AdminService, registry *services.SessionRegistry) error {
				n, err := registry.InvalidateEveryUser(cmd.Context(), cliActor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "terminated %d session(s)\n", n)
				return nil
			})
		},
	}
}

func adminSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Clear session ids older than SESSION_TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(cfg *config.Config, _ *services.AdminService, registry *services.SessionRegistry) error {
				n, err := services.NewCleanupService(registry, cfg.SessionTTL, 0).SweepNow(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "swept %d expired session(s)\n", n)
				return nil
			})
		},
	}
}

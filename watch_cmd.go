package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khabaroff/portfolio-site/src/middleware"
	"github.com/khabaroff/portfolio-site/src/monitor"
)

func watchCmd() *cobra.Command {
	var (
		server     string
		cookieName string
		tokenEnv   string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch an admin session from the terminal",
		Long: `Poll the session status endpoint the way the dashboard does and exit
as soon as the session is replaced by a newer login or becomes invalid.

Exit status is 0 when interrupted, 3 when the session was terminated.

Examples:
  SESSION_TOKEN=... portfolio-site watch --server https://example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := os.Getenv(tokenEnv)
			if token == "" {
				return fmt.Errorf("environment variable %s is empty", tokenEnv)
			}
			return runWatch(cmd, monitor.NewHTTPStatusChecker(server, cookieName, token, 10*time.Second), interval)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "Base URL of the server")
	cmd.Flags().StringVar(&cookieName, "cookie", middleware.DefaultSessionCookie, "Session cookie name")
	cmd.Flags().StringVar(&tokenEnv, "token-env", "SESSION_TOKEN", "Environment variable holding the session token")
	cmd.Flags().DurationVar(&interval, "interval", monitor.DefaultInterval, "Poll interval")

	return cmd
}

// errSessionTerminated makes the process exit with status 3
var errSessionTerminated = errors.New("session terminated")

func runWatch(cmd *cobra.Command, checker monitor.StatusChecker, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	out := cmd.OutOrStdout()
	m := monitor.New(monitor.Config{
		Checker:  checker,
		Interval: interval,
		OnTerminated: func(reason monitor.Reason, serverReason string) {
			fmt.Fprintf(out, "session %s: %s\n", reason, serverReason)
		},
		OnRedirect: func() {
			fmt.Fprintln(out, "please log in again")
		},
	})

	m.Start(ctx)
	fmt.Fprintf(out, "watching session every %s\n", interval)

	select {
	case <-m.Done():
	case <-ctx.Done():
		m.Stop()
	}

	if _, terminated := m.Terminated(); terminated {
		return errSessionTerminated
	}
	return nil
}

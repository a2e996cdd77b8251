package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seatwatch/seatwatch/internal/deploy"
	"github.com/seatwatch/seatwatch/internal/engine"
	"github.com/seatwatch/seatwatch/internal/server"
	"github.com/seatwatch/seatwatch/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Deployment string
	Listen     string
	Database   string
	Tick       time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the monitoring service",
		Long: `Start the seat occupancy monitoring service.

The service loads a deployment file (or falls back to the built-in
defaults), serves the HTTP API, and runs the policy evaluation loop on a
fixed interval. With --db, seat state is restored from a SQLite snapshot
at startup and saved back at shutdown.

The listen address can also be set through SEATWATCH_LISTEN; the flag
wins when both are given.

Example:
  seatwatch run --config ./deployment.cue --listen :8080
  seatwatch run --db ./seatwatch.db --tick 5s --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Deployment, "config", "", "path to deployment file (optional)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "HTTP listen address (default :8080, or SEATWATCH_LISTEN)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database (optional)")
	cmd.Flags().DurationVar(&opts.Tick, "tick", 5*time.Second, "policy evaluation interval")

	return cmd
}

func runService(opts *RunOptions, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if opts.Tick <= 0 {
		return NewExitError(ExitCommandError, "tick interval must be positive")
	}

	listen := opts.Listen
	if listen == "" {
		listen = os.Getenv("SEATWATCH_LISTEN")
	}
	if listen == "" {
		listen = ":8080"
	}

	logger.Info("loading deployment", "path", opts.Deployment)
	dep, err := deploy.LoadOrDefault(opts.Deployment)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load deployment", err)
	}
	logger.Info("deployment ready", "seats", len(dep.Seats))

	reg, mon, err := dep.Build(engine.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build monitor", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	var st *store.Store
	if opts.Database != "" {
		logger.Info("opening snapshot database", "path", opts.Database)
		st, err = store.Open(opts.Database, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		if err := st.Restore(parentCtx, reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to restore snapshot", err)
		}
		logger.Info("snapshot restored")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := server.New(mon, logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(listen)
	}()
	logger.Info("service started", "listen", listen, "tick", opts.Tick)
	fmt.Fprintf(cmd.OutOrStdout(), "seatwatch listening on %s\n", listen)

	ticker := time.NewTicker(opts.Tick)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serverErr:
			if err != nil {
				return WrapExitError(ExitFailure, "server error", err)
			}
			break loop
		case <-ticker.C:
			now := mon.Clock().Now()
			for _, alert := range mon.TickPolicies(now) {
				logger.Warn("policy alert",
					"id", alert.ID,
					"seat", alert.SeatID,
					"kind", alert.Kind,
					"message", alert.Message,
				)
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if st != nil {
		if err := st.Save(shutdownCtx, reg); err != nil {
			return WrapExitError(ExitFailure, "failed to save snapshot", err)
		}
		logger.Info("snapshot saved")
	}

	logger.Info("service stopped gracefully")
	return nil
}

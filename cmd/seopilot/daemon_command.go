package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"seopilot/internal/daemon"
	"seopilot/internal/logging"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var startRunning bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run periodic batch ticks until interrupted",
		Long: "Run the periodic tick loop in the foreground. Ticks only apply batches\n" +
			"while the scheduler is running; use `seopilot start` or --start.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonProcess(cmd.Context(), ctx, interval, startRunning)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Tick interval (defaults to batch.interval_seconds)")
	cmd.Flags().BoolVar(&startRunning, "start", false, "Mark the scheduler running before the first tick")
	return cmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext, interval time.Duration, startRunning bool) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return ctx.withSession(func(s *session) error {
		if startRunning {
			if err := s.scheduler.Start(signalCtx); err != nil {
				return err
			}
		}
		d, err := daemon.New(s.cfg, s.scheduler, s.store, s.logger, interval)
		if err != nil {
			return err
		}
		s.logger.Info("daemon starting",
			logging.String("database", s.cfg.DatabasePath()),
			logging.String("lock", s.cfg.LockPath()),
		)
		if err := d.Run(signalCtx); err != nil {
			return fmt.Errorf("daemon: %w", err)
		}
		s.logger.Info("daemon stopped")
		return nil
	})
}

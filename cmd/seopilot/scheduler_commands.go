package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"seopilot/internal/scheduler"
)

func newSchedulerCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newTickCommand(ctx),
		newStartCommand(ctx),
		newStopCommand(ctx),
		newResetCommand(ctx),
	}
}

func newTickCommand(ctx *commandContext) *cobra.Command {
	var scheduled bool
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one batch tick now",
		Long: "Run one batch tick across the titles, video H2, and model H2 passes.\n" +
			"A manual tick runs even when the scheduler is stopped and never changes\n" +
			"the running flag; --scheduled behaves like a periodic tick instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				report, err := s.scheduler.Tick(cmd.Context(), !scheduled)
				if err != nil {
					return err
				}
				printTickReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&scheduled, "scheduled", false, "Skip when stopped and stop when idle, like a periodic tick")
	return cmd
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Mark the scheduler running so periodic ticks apply batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				if err := s.scheduler.Start(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Scheduler running")
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop periodic batches; cursors are kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				if err := s.scheduler.Stop(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Scheduler stopped")
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Zero every pass cursor and stop the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				if err := s.scheduler.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Progress reset; scheduler stopped")
				return nil
			})
		},
	}
}

func printTickReport(out io.Writer, report scheduler.TickReport) {
	if report.Skipped {
		fmt.Fprintln(out, "Tick skipped: scheduler is not running (use `seopilot start` or a manual tick)")
		return
	}
	rows := make([][]string, 0, len(report.Passes))
	for _, p := range report.Passes {
		errText := ""
		if p.Err != nil {
			errText = p.Err.Error()
		}
		rows = append(rows, []string{
			p.Pass,
			string(p.Category),
			strconv.Itoa(p.Fetched),
			strconv.Itoa(p.Resolved),
			strconv.Itoa(p.Unresolved),
			strconv.Itoa(p.Written),
			strconv.Itoa(p.Unchanged),
			strconv.Itoa(p.Skipped + p.WriteFails),
			strconv.FormatInt(p.Cursor, 10),
			errText,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Pass", "Category", "Fetched", "Resolved", "Unresolved", "Written", "Unchanged", "Skipped", "Cursor", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Tick %s: %s (running: %s)\n", report.TickID, report.Summary(), yesNo(report.Running))
}

package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"seopilot/internal/daemon"
	"seopilot/internal/preflight"
	"seopilot/internal/reference"
	"seopilot/internal/scheduler"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler progress, reference data, and health checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				reqCtx := cmd.Context()

				progress, err := s.store.LoadProgress(reqCtx)
				if err != nil {
					return err
				}
				refCounts, err := s.store.CountReferences(reqCtx)
				if err != nil {
					return err
				}
				assigned, err := s.store.CountAssignments(reqCtx)
				if err != nil {
					return err
				}

				lines := renderSectionHeader("Scheduler", colorize)
				if progress.Running {
					lines = append(lines, renderStatusLine("Scheduler", statusOK, "Running", colorize))
				} else {
					lines = append(lines, renderStatusLine("Scheduler", statusWarn, "Stopped", colorize))
				}
				if pid := daemon.RunningPID(s.cfg); pid > 0 {
					lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", pid), colorize))
				} else {
					lines = append(lines, renderStatusLine("Daemon", statusInfo, "Not running", colorize))
				}
				lines = append(lines, renderStatusLine("Last tick", lastTickKind(progress.LastTickResult), describeLastTick(progress.LastTickID, progress.LastTickResult, progress.LastTickAt.IsZero(), progress.LastTickAt.Format("2006-01-02 15:04:05 UTC")), colorize))
				lines = append(lines, renderStatusLine("Database", statusInfo, s.store.Path(), colorize))
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				fmt.Fprintln(out)

				passRows := make([][]string, 0, 3)
				for _, pass := range scheduler.Passes(s.cfg) {
					passRows = append(passRows, []string{
						pass.Name,
						string(pass.Category),
						strings.Join(pass.PostTypes, ","),
						strconv.FormatInt(progress.Cursor(pass.Name), 10),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Pass", "Category", "Post types", "Cursor"},
					passRows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintln(out)

				refRows := make([][]string, 0, len(reference.AllCategories))
				for _, category := range reference.AllCategories {
					refRows = append(refRows, []string{string(category), strconv.Itoa(refCounts[category])})
				}
				fmt.Fprintln(out, renderTable([]string{"Reference table", "Rows"}, refRows, []columnAlignment{alignLeft, alignRight}))
				fmt.Fprintln(out)

				if len(assigned) > 0 {
					keys := make([]string, 0, len(assigned))
					for key := range assigned {
						keys = append(keys, key)
					}
					sort.Strings(keys)
					ledgerRows := make([][]string, 0, len(keys))
					for _, key := range keys {
						ledgerRows = append(ledgerRows, []string{key, strconv.Itoa(assigned[key])})
					}
					fmt.Fprintln(out, renderTable([]string{"Mapping key", "Consumed ids"}, ledgerRows, []columnAlignment{alignLeft, alignRight}))
					fmt.Fprintln(out)
				}

				printPreflight(out, preflight.RunAll(reqCtx, s.cfg, s.store), colorize)
				return nil
			})
		},
	}
}

func printPreflight(out io.Writer, results []preflight.Result, colorize bool) {
	lines := renderSectionHeader("Checks", colorize)
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func lastTickKind(result string) statusKind {
	switch {
	case result == "":
		return statusInfo
	case strings.Contains(result, "!"):
		return statusError
	default:
		return statusOK
	}
}

func describeLastTick(tickID, result string, never bool, at string) string {
	if never || tickID == "" {
		return "Never"
	}
	return fmt.Sprintf("%s at %s (%s)", result, at, tickID)
}

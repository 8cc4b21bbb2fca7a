package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiagnosticsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "diagnostics",
		Aliases: []string{"diag"},
		Short:   "Print the most recent warnings and errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				events, err := s.store.Diagnostics(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No diagnostics recorded")
					return nil
				}
				for _, evt := range events {
					fmt.Fprintln(out, evt.Line())
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of entries to show")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seopilot/internal/backfill"
	"seopilot/internal/reference"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var categoryName string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Assign reference ids to unmapped records in ascending order",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := reference.ParseCategory(categoryName)
			if err != nil {
				return err
			}
			return ctx.withSession(func(s *session) error {
				result, err := backfill.Run(cmd.Context(), s.cfg, s.store, s.ledger, category, s.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backfill %s into %s: %s\n", result.Category, result.MappingKey, result)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&categoryName, "category", string(reference.CategoryTitles), "Reference category to assign from")
	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"seopilot/internal/reference"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var recordID int64
	var categoryName string
	var commit bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show how one content record resolves to a reference id",
		Long: "Run the resolution chain for a single record and print the decision\n" +
			"trace. Nothing is written unless --commit is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if recordID <= 0 {
				return fmt.Errorf("--record must be a positive record id")
			}
			category, err := reference.ParseCategory(categoryName)
			if err != nil {
				return err
			}
			return ctx.withSession(func(s *session) error {
				res, err := s.resolver.Resolve(cmd.Context(), recordID, category)
				if err != nil {
					return err
				}
				committed := "no"
				if commit && res.NeedsCommit() {
					if err := s.resolver.Commit(cmd.Context(), res); err != nil {
						return err
					}
					committed = "yes"
				}

				exists := "-"
				if res.Resolved() {
					found, err := s.store.ReferenceExists(cmd.Context(), category, res.ID)
					if err != nil {
						return err
					}
					exists = yesNo(found)
				}
				score := "-"
				if res.Best != nil {
					score = strconv.FormatFloat(res.Score, 'f', 3, 64)
				}
				id := res.ID
				if id == "" {
					id = "-"
				}

				rows := [][]string{
					{"Record", strconv.FormatInt(res.RecordID, 10)},
					{"Category", string(res.Category)},
					{"Mapping key", res.MappingKey},
					{"Reference id", id},
					{"Method", string(res.Method)},
					{"Score", score},
					{"Row exists", exists},
					{"Trace", res.TraceString()},
					{"Committed", committed},
				}
				if res.CandidateErr != nil {
					rows = append(rows, []string{"Candidate error", res.CandidateErr.Error()})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().Int64VarP(&recordID, "record", "r", 0, "Content record id")
	cmd.Flags().StringVar(&categoryName, "category", string(reference.CategoryTitles), "Reference category (titles, page_video, page_model_trait, page_model_notrait)")
	cmd.Flags().BoolVar(&commit, "commit", false, "Persist a fuzzy match to meta and the ledger")
	return cmd
}

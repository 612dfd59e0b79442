package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mixvault/internal/catalog"
	"mixvault/internal/config"
	"mixvault/internal/database"
	"mixvault/internal/queue"
	"mixvault/internal/runner"
)

type statsView struct {
	Queue   runner.Stats   `json:"queue"`
	Catalog catalog.Counts `json:"catalog"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show raw mix counts per status and catalog totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(_ *config.Config, db *database.DB) error {
				reqCtx := commandCtx(cmd)
				counts, err := queue.New(db).Stats(reqCtx)
				if err != nil {
					return err
				}
				totals, err := catalog.New(db).Counts(reqCtx)
				if err != nil {
					return err
				}
				view := statsView{Queue: runner.ComputeStats(counts), Catalog: totals}
				if jsonOut {
					return writeJSON(cmd, view)
				}

				rows := make([][]string, 0, len(view.Queue.Counts))
				for _, status := range queue.AllStatuses() {
					rows = append(rows, []string{titleCase(string(status)), fmt.Sprint(view.Queue.Counts[status])})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, tableSpec{
					headers: []string{"Status", "Count"},
					rows:    rows,
					aligns:  []columnAlignment{alignLeft, alignRight},
					footer:  []string{"Total", fmt.Sprint(view.Queue.Total)},
				}.render())
				fmt.Fprintf(out, "Success rate: %.1f%%\n", view.Queue.SuccessRate)
				fmt.Fprintf(out, "Catalog: %d mixes, %d tracks, %d artists, %d aliases\n",
					view.Catalog.Mixes, view.Catalog.Tracks, view.Catalog.Artists, view.Catalog.Aliases)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func titleCase(value string) string {
	return cases.Title(language.English).String(value)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mixvault/internal/config"
	"mixvault/internal/database"
	"mixvault/internal/queue"
)

type rawMixView struct {
	ID                 int64  `json:"id"`
	Status             string `json:"status"`
	Provider           string `json:"provider"`
	ExternalID         string `json:"external_id,omitempty"`
	Title              string `json:"title"`
	CanonicalizedMixID int64  `json:"canonicalized_mix_id,omitempty"`
	ErrorMessage       string `json:"error_message,omitempty"`
	UpdatedAt          string `json:"updated_at"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List staged raw mixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(statusFlags))
			for _, value := range statusFlags {
				status, ok := queue.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}
			return ctx.withDB(func(_ *config.Config, db *database.DB) error {
				mixes, err := queue.New(db).List(commandCtx(cmd), statuses...)
				if err != nil {
					return err
				}
				views := make([]rawMixView, 0, len(mixes))
				for _, m := range mixes {
					views = append(views, rawMixView{
						ID:                 m.ID,
						Status:             string(m.Status),
						Provider:           m.Provider,
						ExternalID:         m.ExternalID,
						Title:              m.RawTitle,
						CanonicalizedMixID: m.CanonicalizedMixID,
						ErrorMessage:       m.ErrorMessage,
						UpdatedAt:          database.FormatTime(m.UpdatedAt),
					})
				}
				if jsonOut {
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No raw mixes")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					mixID := ""
					if v.CanonicalizedMixID > 0 {
						mixID = fmt.Sprint(v.CanonicalizedMixID)
					}
					rows = append(rows, []string{
						fmt.Sprint(v.ID),
						v.Status,
						v.Provider,
						v.ExternalID,
						truncate(v.Title, 48),
						mixID,
						truncate(firstLine(v.ErrorMessage), 40),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Provider", "External ID", "Title", "Mix", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

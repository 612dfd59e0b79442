package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mixvault/internal/contextdetect"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var in contextdetect.Input
	var tableOut bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the contexts and venue detected for an upload as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(in.Title+in.Description+in.ChannelName+in.ChannelID) == "" {
				return fmt.Errorf("provide at least one of --title, --description, --channel, --channel-id")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			detector, err := contextdetect.NewFromConfig(cfg.Detector, nil)
			if err != nil {
				return err
			}
			result := detector.Detect(in)
			if !tableOut {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if len(result.Contexts) == 0 && result.Venue == nil {
				fmt.Fprintln(out, "No contexts detected")
				return nil
			}
			if len(result.Contexts) > 0 {
				rows := make([][]string, 0, len(result.Contexts))
				for _, c := range result.Contexts {
					rows = append(rows, []string{
						c.Name,
						c.Type,
						fmt.Sprintf("%.2f", c.Confidence),
						c.Parent,
						strings.Join(c.ReasonCodes, ","),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Context", "Type", "Confidence", "Parent", "Reasons"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
			}
			if v := result.Venue; v != nil {
				label := v.Name
				for _, part := range []string{v.City, v.Country} {
					if part != "" {
						label += ", " + part
					}
				}
				fmt.Fprintf(out, "Venue: %s (%.2f)\n", label, v.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Upload title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Upload description")
	cmd.Flags().StringVar(&in.ChannelName, "channel", "", "Channel or uploader name")
	cmd.Flags().StringVar(&in.ChannelID, "channel-id", "", "Provider channel id")
	cmd.Flags().BoolVar(&tableOut, "table", false, "Render a table instead of JSON")
	return cmd
}

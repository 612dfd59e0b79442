package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mixvault/internal/config"
	"mixvault/internal/runner"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var mode string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Canonicalize a batch of pending raw mixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if mode = strings.ToLower(strings.TrimSpace(mode)); mode != "" {
				if mode != config.ModeBackfill && mode != config.ModeRolling {
					return fmt.Errorf("invalid --mode %q (want %s or %s)", mode, config.ModeBackfill, config.ModeRolling)
				}
				cfg.Canonicalize.Mode = mode
			}
			return ctx.withRunner(func(r *runner.Runner) error {
				summary, err := r.Run(commandCtx(cmd), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, summary)
				}
				printSummary(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum raw mixes to process (defaults to runner.batch_size)")
	cmd.Flags().StringVar(&mode, "mode", "", "Override the processing mode (backfill or rolling)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run summary as JSON")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var maxAgeHours int
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Reset recently failed raw mixes to pending and process them",
		RunE: func(cmd *cobra.Command, args []string) error {
			maxAge := time.Duration(-1)
			if maxAgeHours >= 0 {
				maxAge = time.Duration(maxAgeHours) * time.Hour
			}
			return ctx.withRunner(func(r *runner.Runner) error {
				reset, summary, err := r.Retry(commandCtx(cmd), maxAge, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, struct {
						Reset   int64          `json:"reset"`
						Summary runner.Summary `json:"summary"`
					}{reset, summary})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Reset %d failed raw mix(es) to pending\n", reset)
				printSummary(out, summary)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxAgeHours, "max-age-hours", -1, "Only reset failures newer than this many hours (defaults to runner.retry_max_age_hours)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum raw mixes to process after the reset")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	return cmd
}

func printSummary(out io.Writer, s runner.Summary) {
	if s.Processed == 0 {
		fmt.Fprintln(out, "No pending raw mixes")
		return
	}
	fmt.Fprintf(out, "Run %s processed %d raw mix(es) in %s\n", s.RunID, s.Processed, s.Duration.Round(time.Millisecond))
	fmt.Fprintln(out, renderTable(
		[]string{"Outcome", "Count"},
		[][]string{
			{"Created", fmt.Sprint(s.Created)},
			{"Duplicates", fmt.Sprint(s.Duplicates)},
			{"Skipped", fmt.Sprint(s.Skipped)},
			{"Failed", fmt.Sprint(s.Failed)},
			{"Track errors", fmt.Sprint(s.TrackErrors)},
			{"Contexts saved", fmt.Sprint(s.ContextsSaved)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	for _, f := range s.Failures {
		fmt.Fprintf(out, "  raw mix %d: %s\n", f.RawMixID, f.Error)
	}
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/services"
)

type summarizeOptions struct {
	database        string
	output          string
	includeLocation bool
	report          bool
}

func newSummarizeCommand(global *globalOptions) *cobra.Command {
	opts := summarizeOptions{}

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Build the walking-workout summary from a raw database",
		Long: `Summarize reads walking workouts and their first and last samples from
a raw database and rewrites the summary artifact. The newest dated
database is used unless --db is given. A .xlsx output path writes a
workbook; anything else writes CSV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(global)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("include-location") {
				opts.includeLocation = a.cfg.Summary.IncludeLocation
			}
			return runSummarize(cmd.Context(), a, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.database, "db", "", "raw database (default: newest dated database)")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "summary artifact (default: configured summary file)")
	cmd.Flags().BoolVar(&opts.includeLocation, "include-location", false, "resolve start and finish locations")
	cmd.Flags().BoolVar(&opts.report, "report", false, "print the build report")

	return cmd
}

func runSummarize(ctx context.Context, a *app, global *globalOptions, opts summarizeOptions) error {
	outcome, err := a.service.BuildSummary(ctx, services.SummaryRequest{
		DatabasePath:    opts.database,
		OutputPath:      opts.output,
		IncludeLocation: opts.includeLocation,
	})
	if err != nil {
		return err
	}

	if opts.report {
		renderReport(global.stderr, outcome.Report)
	}

	if !outcome.HasResult() {
		fmt.Fprintf(global.stderr, "No summary written: no walking workouts in %s\n", outcome.Report.Database)
		return apperrors.ErrNoResult
	}

	fmt.Fprintln(global.stdout, outcome.Path)
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

type convertOptions struct {
	summarize       bool
	includeLocation bool
	report          bool
}

func newConvertCommand(global *globalOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert ARCHIVE",
		Short: "Convert an export archive into a dated raw database",
		Long: `Convert runs the configured conversion tool on ARCHIVE and renames both
the archive and the produced database with the archive's creation date.
An existing dated file is never overwritten; a numeric suffix is added.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(global)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.service.ConvertArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(global.stdout, result.DatabasePath)
			fmt.Fprintf(global.stderr, "Archive moved to %s (%s)\n", result.ArchivePath, formatDuration(result.Duration))

			if !opts.summarize {
				return nil
			}
			if !cmd.Flags().Changed("include-location") {
				opts.includeLocation = a.cfg.Summary.IncludeLocation
			}
			return runSummarize(cmd.Context(), a, global, summarizeOptions{
				database:        result.DatabasePath,
				includeLocation: opts.includeLocation,
				report:          opts.report,
			})
		},
	}

	cmd.Flags().BoolVar(&opts.summarize, "summarize", false, "build the summary from the new database")
	cmd.Flags().BoolVar(&opts.includeLocation, "include-location", false, "resolve start and finish locations (with --summarize)")
	cmd.Flags().BoolVar(&opts.report, "report", false, "print the build report (with --summarize)")

	return cmd
}

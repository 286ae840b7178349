package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newLatestCommand(global *globalOptions) *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent raw database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(global)
			if err != nil {
				return err
			}
			defer a.close()

			latest, count, err := a.service.LatestDatabase(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(global.stdout, latest.Path)
			if details {
				fmt.Fprintf(global.stderr, "%s, created %s, 1 of %d matching %s\n",
					humanize.Bytes(uint64(latest.Size)),
					humanize.Time(latest.CreatedAt),
					count,
					a.paths.DatabasePattern)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&details, "details", "d", false, "print size, age and match count")
	return cmd
}

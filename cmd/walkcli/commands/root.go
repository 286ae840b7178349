// Package commands implements the walkcli subcommands.
package commands

import (
	"io"

	"github.com/spf13/cobra"

	"walkcli/pkg/contracts"
)

// globalOptions are the flags shared by every subcommand
type globalOptions struct {
	configFile string
	verbose    bool
	stdout     io.Writer
	stderr     io.Writer
}

// NewRootCommand builds the walkcli command tree
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "walkcli",
		Short: "Walking workout extraction and summary pipeline",
		Long: `walkcli turns a health export archive into a dated raw database and
builds the canonical walking-workout summary from it.

Commands:
  convert     Convert an export archive into a dated raw database
  summarize   Build the walking-workout summary from a raw database
  latest      Show the most recent raw database
  route       Export the track of one workout`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: config.yaml or configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newConvertCommand(opts))
	rootCmd.AddCommand(newSummarizeCommand(opts))
	rootCmd.AddCommand(newLatestCommand(opts))
	rootCmd.AddCommand(newRouteCommand(opts))
	rootCmd.AddCommand(newVersionCommand(opts))

	return rootCmd
}

func newVersionCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			io.WriteString(opts.stdout, contracts.GetFullVersionString()+"\n")
		},
	}
}

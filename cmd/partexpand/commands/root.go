// Package commands implements CLI command handlers for partexpand.
package commands

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
	"github.com/Sumatoshi-tech/partexpand/pkg/version"
)

// Exit codes returned by ExitCode.
const (
	exitCodeFailure         = 1
	exitCodeCoverageFailure = 2
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCommand builds the partexpand command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "partexpand",
		Short: "Expand compact partition maps into per-index partition ids",
		Long: `partexpand converts the compact interval form produced by graph and mesh
partitioners into one partition id per global index.

Commands:
  expand    Expand a partition map into one id per index
  validate  Check that a map tiles its index range exactly once
  stats     Summarize partition sizes and load imbalance
  lookup    Resolve indices to their owning partition
  mcp       Serve the partition tools over MCP stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default .partexpand.yaml in . or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(
		NewExpandCommand(opts),
		NewValidateCommand(opts),
		NewStatsCommand(opts),
		NewLookupCommand(opts),
		NewMCPCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// ExitCode maps a command error to the process exit status: 2 when a map
// failed coverage validation, 1 otherwise.
func ExitCode(err error) int {
	if errors.Is(err, partition.ErrCoverage) {
		return exitCodeCoverageFailure
	}

	return exitCodeFailure
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())

			return err
		},
	}
}

// IgnoreBrokenPipeSignal makes writes to a closed stdout fail with EPIPE
// instead of terminating the process, so expand can end quietly when its
// reader goes away.
func IgnoreBrokenPipeSignal() {
	signal.Ignore(syscall.SIGPIPE)
}

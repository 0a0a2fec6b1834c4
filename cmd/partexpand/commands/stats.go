package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/partexpand/pkg/observability"
	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
	"github.com/Sumatoshi-tech/partexpand/pkg/report"
)

type statsOptions struct {
	input  inputOptions
	format string
	chart  string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(global *globalOptions) *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats [map|-]",
		Short: "Summarize partition sizes and load imbalance",
		Long: `Summarize a partition map: intervals and indices per partition, each
partition's share of the total, and the maximum imbalance
max |N/P - size| / (N/P) over all partitions.

Examples:
  partexpand stats --input-file map.txt
  partexpand stats --format yaml --chart sizes.html --input-file map.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, global, opts, args)
		},
	}

	opts.input.bind(cmd)
	cmd.Flags().StringVar(&opts.format, "format", string(report.FormatTable), "output format: table, json or yaml")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "also write an HTML bar chart to this file")

	return cmd
}

func runStats(cmd *cobra.Command, global *globalOptions, opts *statsOptions, args []string) error {
	rt, err := newInvocation(cmd, global, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, span := rt.tracer.Start(cmd.Context(), "partexpand.stats")
	defer span.End()

	m, _, err := opts.input.load(ctx, cmd, rt.tracer, args)
	if err != nil {
		return rt.fail(ctx, span, stageRead, err)
	}

	summary := partition.Summarize(m)

	err = report.WriteSummary(cmd.OutOrStdout(), summary, report.Format(opts.format))
	if err != nil {
		return err
	}

	if opts.chart == "" {
		return nil
	}

	return writeChartFile(opts.chart, summary)
}

func writeChartFile(path string, summary partition.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}

	return errors.Join(report.WriteChart(f, summary), f.Close())
}

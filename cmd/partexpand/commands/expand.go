package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/partexpand/pkg/config"
	"github.com/Sumatoshi-tech/partexpand/pkg/observability"
	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
	"github.com/Sumatoshi-tech/partexpand/pkg/sink"
)

// Error stages reported by the conversion error counter.
const (
	stageRead     = "read"
	stageValidate = "validate"
	stageMerge    = "merge"
	stageWrite    = "write"
)

// expandOptions holds the expand flags. Flags override config values only
// when set explicitly.
type expandOptions struct {
	input       inputOptions
	output      string
	strategy    string
	format      string
	compression string
	validate    bool
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(global *globalOptions) *cobra.Command {
	opts := &expandOptions{}

	cmd := &cobra.Command{
		Use:   "expand [map|-]",
		Short: "Expand a partition map into one partition id per index",
		Long: `Expand a compact partition map into one partition id per global index,
in ascending index order.

Each block "{[s:e],...}" lists the closed intervals of one partition; blocks are
separated by the two characters backslash and n. Block k is partition k.

Examples:
  partexpand expand '{[1:3]}\n{[4:6]}'
  partexpand expand --input-file map.txt -o owners.txt
  partexpand expand --input-format json --format json - < map.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, global, opts, args)
		},
	}

	opts.input.bind(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write records to a file instead of stdout")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "merge strategy: scan or heap")
	cmd.Flags().StringVar(&opts.format, "format", "", "record encoding: lines or json")
	cmd.Flags().StringVar(&opts.compression, "compression", "", "output compression: none or lz4")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "reject maps whose intervals overlap or leave gaps")

	return cmd
}

func runExpand(cmd *cobra.Command, global *globalOptions, opts *expandOptions, args []string) error {
	rt, err := newInvocation(cmd, global, observability.ModeCLI, func(cfg *config.Config) {
		opts.applyTo(cmd.Flags(), cfg)
	})
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, span := rt.tracer.Start(cmd.Context(), "partexpand.expand")
	defer span.End()

	m, label, err := opts.input.load(ctx, cmd, rt.tracer, args)
	if err != nil {
		return rt.fail(ctx, span, stageRead, err)
	}

	if empty := m.EmptyPartitions(); len(empty) > 0 {
		rt.logger.WarnContext(ctx, "partitions without intervals emit no records",
			"input", label, "partitions", empty)
	}

	strategy, err := rt.cfg.Strategy()
	if err != nil {
		return err
	}

	sinkOpts, err := rt.cfg.SinkOptions()
	if err != nil {
		return err
	}

	dst, err := openOutput(cmd, opts.output)
	if err != nil {
		return rt.fail(ctx, span, stageWrite, err)
	}

	writer, err := sink.New(dst, sinkOpts)
	if err != nil {
		return errors.Join(err, dst.Close())
	}

	span.SetAttributes(
		attribute.String("strategy", string(strategy)),
		attribute.Bool("validate", rt.cfg.Expand.Validate),
		attribute.String("output.format", string(sinkOpts.Format)),
	)

	start := time.Now()

	stats, err := partition.Expand(ctx, m, writer, partition.Options{
		Strategy: strategy,
		Validate: rt.cfg.Expand.Validate,
	})
	err = errors.Join(err, writer.Close(), dst.Close())

	if sink.IsBrokenPipe(err) {
		rt.logger.DebugContext(ctx, "output reader went away", "records", writer.Records())

		return nil
	}

	if err != nil {
		return rt.fail(ctx, span, expandStage(err), err)
	}

	elapsed := time.Since(start)

	rt.conversion.RecordRun(ctx, observability.ConversionStats{
		Strategy:   string(strategy),
		Partitions: m.Len(),
		Intervals:  stats.Steps,
		Records:    stats.Records,
		Duration:   elapsed,
	})

	span.SetAttributes(attribute.Int64("records", stats.Records), attribute.Int("steps", stats.Steps))

	rt.logger.InfoContext(ctx, "expanded partition map",
		"input", label,
		"partitions", m.Len(),
		"intervals", stats.Steps,
		"records", stats.Records,
		"duration", elapsed)

	return nil
}

// applyTo copies explicitly set flags over the loaded config.
func (opts *expandOptions) applyTo(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("strategy") {
		cfg.Expand.Strategy = opts.strategy
	}

	if flags.Changed("validate") {
		cfg.Expand.Validate = opts.validate
	}

	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}

	if flags.Changed("compression") {
		cfg.Output.Compression = opts.compression
	}
}

func expandStage(err error) string {
	switch {
	case errors.Is(err, partition.ErrCoverage):
		return stageValidate
	case errors.Is(err, context.Canceled), errors.As(err, new(*partition.MalformedIntervalError)):
		return stageMerge
	default:
		return stageWrite
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// openOutput returns the record destination: the command's stdout, or the
// file at path when one is given. Closing stdout is a no-op.
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == stdioArg {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	return f, nil
}

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/partexpand/pkg/observability"
	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

// ErrNoIndices indicates lookup was called without --index.
var ErrNoIndices = errors.New("at least one --index is required")

type lookupOptions struct {
	input   inputOptions
	indices []int64
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(global *globalOptions) *cobra.Command {
	opts := &lookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup [map|-] --index N...",
		Short: "Resolve global indices to their owning partition",
		Long: `Print the partition and interval that own each requested index, one line
per index: "<index> <partition> <interval>". Indices no interval covers print
"-" for both.

Examples:
  partexpand lookup --input-file map.txt --index 17 --index 42
  partexpand lookup '{[1:3]}\n{[4:6]}' -i 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, global, opts, args)
		},
	}

	opts.input.bind(cmd)
	cmd.Flags().Int64SliceVarP(&opts.indices, "index", "i", nil, "global index to resolve (repeatable)")

	return cmd
}

func runLookup(cmd *cobra.Command, global *globalOptions, opts *lookupOptions, args []string) error {
	if len(opts.indices) == 0 {
		return ErrNoIndices
	}

	rt, err := newInvocation(cmd, global, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, span := rt.tracer.Start(cmd.Context(), "partexpand.lookup")
	defer span.End()

	m, _, err := opts.input.load(ctx, cmd, rt.tracer, args)
	if err != nil {
		return rt.fail(ctx, span, stageRead, err)
	}

	idx := partition.NewIndex(m)
	out := cmd.OutOrStdout()

	for _, i := range opts.indices {
		run, ok := idx.Find(i)
		if !ok {
			_, err = fmt.Fprintf(out, "%d - -\n", i)
		} else {
			_, err = fmt.Fprintf(out, "%d %d %s\n", i, run.Partition, run.Interval)
		}

		if err != nil {
			return fmt.Errorf("write lookup: %w", err)
		}
	}

	return nil
}

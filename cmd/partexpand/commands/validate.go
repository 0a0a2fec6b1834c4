package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/partexpand/pkg/observability"
	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
	"github.com/Sumatoshi-tech/partexpand/pkg/report"
)

const (
	validateFormatText = "text"
	validateFormatJSON = "json"
)

type validateOptions struct {
	input   inputOptions
	format  string
	origin  int64
	noColor bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(global *globalOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [map|-]",
		Short: "Check that a partition map tiles its index range exactly once",
		Long: `Check that the intervals of a partition map cover a contiguous index range
with no gaps and no overlaps. Exits with status 2 when any issue is found.

Examples:
  partexpand validate --input-file map.txt
  partexpand validate --origin 1 '{[1:3]}\n{[4:6]}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, global, opts, args)
		},
	}

	opts.input.bind(cmd)
	cmd.Flags().StringVar(&opts.format, "format", validateFormatText, "report format: text or json")
	cmd.Flags().Int64Var(&opts.origin, "origin", 0, "also require the cover to start at this index")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, global *globalOptions, opts *validateOptions, args []string) error {
	if opts.format != validateFormatText && opts.format != validateFormatJSON {
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, opts.format)
	}

	if opts.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	rt, err := newInvocation(cmd, global, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, span := rt.tracer.Start(cmd.Context(), "partexpand.validate")
	defer span.End()

	m, label, err := opts.input.load(ctx, cmd, rt.tracer, args)
	if err != nil {
		return rt.fail(ctx, span, stageRead, err)
	}

	vopts := partition.ValidateOptions{
		Origin:      opts.origin,
		CheckOrigin: cmd.Flags().Changed("origin"),
	}

	cov := partition.CheckCoverage(m, vopts)
	span.SetAttributes(attribute.Int("issues", len(cov.Issues)))

	if opts.format == validateFormatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		err = enc.Encode(cov)
	} else {
		err = report.WriteCoverage(cmd.OutOrStdout(), label, cov)
	}

	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !cov.OK() {
		return rt.fail(ctx, span, stageValidate,
			fmt.Errorf("%s: %w", label, &partition.CoverageError{Issues: cov.Issues}))
	}

	return nil
}

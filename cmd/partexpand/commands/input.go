package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

// Input format flag values.
const (
	inputFormatText = "text"
	inputFormatJSON = "json"

	stdioArg   = "-"
	stdinLabel = "stdin"
	argLabel   = "argument"
)

// Sentinel errors for input selection.
var (
	// ErrNoInput indicates neither a positional map nor --input-file was given.
	ErrNoInput = errors.New("no input: pass the map as an argument, '-' for stdin, or --input-file")
	// ErrInputConflict indicates both a positional map and --input-file were given.
	ErrInputConflict = errors.New("pass the map either as an argument or with --input-file, not both")
	// ErrUnknownInputFormat indicates an --input-format other than text or json.
	ErrUnknownInputFormat = errors.New("--input-format must be text or json")
)

// inputOptions selects where a partition map is read from.
type inputOptions struct {
	file   string
	format string
}

func (in *inputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.file, "input-file", "", "read the map from a file ('-' for stdin)")
	cmd.Flags().StringVar(&in.format, "input-format", inputFormatText, "map encoding: text or json")
}

// load reads and parses the partition map. The returned label names the
// source in diagnostics.
func (in *inputOptions) load(
	ctx context.Context, cmd *cobra.Command, tracer trace.Tracer, args []string,
) (partition.Map, string, error) {
	_, span := tracer.Start(ctx, "partexpand.parse")
	defer span.End()

	text, label, err := in.read(cmd, args)
	if err != nil {
		return nil, "", err
	}

	span.SetAttributes(
		attribute.String("input.source", label),
		attribute.Int("input.bytes", len(text)),
	)

	var m partition.Map

	switch in.format {
	case "", inputFormatText:
		m, err = partition.Parse(string(text))
	case inputFormatJSON:
		m, err = partition.ParseJSON(text)
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownInputFormat, in.format)
	}

	if err != nil {
		return nil, label, fmt.Errorf("parse %s: %w", label, err)
	}

	span.SetAttributes(
		attribute.Int("partitions", m.Len()),
		attribute.Int("intervals", m.TotalIntervals()),
	)

	return m, label, nil
}

func (in *inputOptions) read(cmd *cobra.Command, args []string) ([]byte, string, error) {
	switch {
	case in.file != "" && len(args) > 0:
		return nil, "", ErrInputConflict
	case in.file == stdioArg || (in.file == "" && len(args) == 1 && args[0] == stdioArg):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}

		return data, stdinLabel, nil
	case in.file != "":
		data, err := os.ReadFile(in.file)
		if err != nil {
			return nil, "", fmt.Errorf("read input file: %w", err)
		}

		return data, in.file, nil
	case len(args) == 1:
		return []byte(args[0]), argLabel, nil
	default:
		return nil, "", ErrNoInput
	}
}

// Package report renders partition map summaries and coverage reports for
// terminals, machines and browsers.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

// Format selects how a summary is rendered.
type Format string

const (
	// FormatTable renders an aligned text table.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat indicates an unsupported report format.
var ErrUnknownFormat = errors.New("unknown report format")

const percentScale = 100

// WriteSummary renders s onto w in the given format.
func WriteSummary(w io.Writer, s partition.Summary, format Format) error {
	switch format {
	case "", FormatTable:
		_, err := io.WriteString(w, SummaryTable(s))
		if err != nil {
			return fmt.Errorf("write table: %w", err)
		}

		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(s)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(s)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// SummaryTable renders one row per partition followed by a totals footer.
func SummaryTable(s partition.Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)

	tbl.AppendHeader(table.Row{"Partition", "Intervals", "Indices", "Share"})

	for _, ps := range s.Partitions {
		tbl.AppendRow(table.Row{
			ps.ID,
			humanize.Comma(int64(ps.Intervals)),
			humanize.Comma(ps.Indices),
			formatPercent(ps.Share),
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d", len(s.Partitions)),
		humanize.Comma(int64(s.Intervals)),
		humanize.Comma(s.Indices),
		"imbalance " + formatPercent(s.MaxImbalance),
	})

	return tbl.Render() + "\n"
}

func formatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*percentScale, 'f', 2, 64) + "%"
}

package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

// WriteCoverage prints a human-readable coverage verdict. Colors follow
// color.NoColor, which callers clear for --no-color and non-terminals.
func WriteCoverage(w io.Writer, label string, r partition.CoverageReport) error {
	if r.OK() {
		_, err := color.New(color.FgGreen).Fprintf(w, "%s: %d intervals tile %s exactly once\n",
			label, r.Intervals, r.Span)
		if err != nil {
			return fmt.Errorf("write coverage: %w", err)
		}

		return nil
	}

	_, err := color.New(color.FgRed).Fprintf(w, "%s: %d coverage issue(s) across %d intervals\n",
		label, len(r.Issues), r.Intervals)
	if err != nil {
		return fmt.Errorf("write coverage: %w", err)
	}

	for _, issue := range r.Issues {
		c := color.New(color.FgYellow)
		if issue.Kind == partition.IssueOverlap {
			c = color.New(color.FgRed)
		}

		_, err = c.Fprintf(w, "  - %s\n", issue)
		if err != nil {
			return fmt.Errorf("write coverage: %w", err)
		}
	}

	return nil
}

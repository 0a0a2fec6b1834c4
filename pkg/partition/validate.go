package partition

import (
	"cmp"
	"fmt"
	"slices"
)

// IssueKind classifies a coverage problem.
type IssueKind string

const (
	// IssueGap is a run of indices no partition covers.
	IssueGap IssueKind = "gap"
	// IssueOverlap is a run of indices covered more than once.
	IssueOverlap IssueKind = "overlap"
	// IssueBeforeOrigin is a run of indices below the expected origin.
	IssueBeforeOrigin IssueKind = "before_origin"
)

// Issue is one coverage problem over the indices [From, To].
type Issue struct {
	// Prev is the run preceding the problem, nil when the problem precedes every run.
	Prev *Run      `json:"prev,omitempty" yaml:"prev,omitempty"`
	// Next is the run following or overlapping the problem.
	Next *Run      `json:"next,omitempty" yaml:"next,omitempty"`
	Kind IssueKind `json:"kind"           yaml:"kind"`
	From int64     `json:"from"           yaml:"from"`
	To   int64     `json:"to"             yaml:"to"`
}

// String renders the issue for diagnostics.
func (i Issue) String() string {
	desc := fmt.Sprintf("%s [%d:%d]", i.Kind, i.From, i.To)

	switch {
	case i.Prev != nil && i.Next != nil:
		desc += fmt.Sprintf(" between partition %d %s and partition %d %s",
			i.Prev.Partition, i.Prev.Interval, i.Next.Partition, i.Next.Interval)
	case i.Next != nil:
		desc += fmt.Sprintf(" before partition %d %s", i.Next.Partition, i.Next.Interval)
	}

	return desc
}

// ValidateOptions configures coverage checking.
type ValidateOptions struct {
	// Origin is the first index the cover must start at. Checked only when CheckOrigin is set.
	Origin int64
	// CheckOrigin enables the Origin check.
	CheckOrigin bool
}

// CoverageReport is the result of [CheckCoverage].
type CoverageReport struct {
	Issues []Issue `json:"issues" yaml:"issues"`
	// Span is the smallest interval containing every run. Zero when Intervals is 0.
	Span      Interval `json:"span"      yaml:"span"`
	Intervals int      `json:"intervals" yaml:"intervals"`
}

// OK reports whether the intervals tile Span exactly once.
func (r CoverageReport) OK() bool {
	return len(r.Issues) == 0
}

// CheckCoverage sorts every interval of m by start and reports gaps and
// overlaps between consecutive runs. It runs in O(I log I).
func CheckCoverage(m Map, opts ValidateOptions) CoverageReport {
	runs := m.Runs()
	report := CoverageReport{Intervals: len(runs)}

	if len(runs) == 0 {
		return report
	}

	slices.SortFunc(runs, func(a, b Run) int {
		return cmp.Or(
			cmp.Compare(a.Interval.Start, b.Interval.Start),
			cmp.Compare(a.Partition, b.Partition),
			cmp.Compare(a.Interval.End, b.Interval.End),
		)
	})

	first := runs[0]

	if opts.CheckOrigin {
		switch {
		case first.Interval.Start > opts.Origin:
			report.Issues = append(report.Issues, Issue{
				Kind: IssueGap,
				From: opts.Origin,
				To:   first.Interval.Start - 1,
				Next: &first,
			})
		case first.Interval.Start < opts.Origin:
			report.Issues = append(report.Issues, Issue{
				Kind: IssueBeforeOrigin,
				From: first.Interval.Start,
				To:   min(opts.Origin-1, first.Interval.End),
				Next: &first,
			})
		}
	}

	// reach is the run extending furthest to the right so far.
	reach := first

	for _, run := range runs[1:] {
		prev := reach

		switch {
		case run.Interval.Start <= reach.Interval.End:
			report.Issues = append(report.Issues, Issue{
				Kind: IssueOverlap,
				From: run.Interval.Start,
				To:   min(reach.Interval.End, run.Interval.End),
				Prev: &prev,
				Next: &run,
			})
		case run.Interval.Start > reach.Interval.End+1:
			report.Issues = append(report.Issues, Issue{
				Kind: IssueGap,
				From: reach.Interval.End + 1,
				To:   run.Interval.Start - 1,
				Prev: &prev,
				Next: &run,
			})
		}

		if run.Interval.End > reach.Interval.End {
			reach = run
		}
	}

	report.Span = Interval{Start: first.Interval.Start, End: reach.Interval.End}

	return report
}

// Validate returns a *CoverageError when the intervals of m leave gaps or
// overlap. Empty partitions are not an error.
func Validate(m Map, opts ValidateOptions) error {
	report := CheckCoverage(m, opts)
	if report.OK() {
		return nil
	}

	return &CoverageError{Issues: report.Issues}
}

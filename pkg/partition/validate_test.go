package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

func TestCheckCoverage_ExactTiling(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(inputInterleaved)
	require.NoError(t, err)

	report := partition.CheckCoverage(m, partition.ValidateOptions{Origin: 1, CheckOrigin: true})

	assert.True(t, report.OK())
	assert.Equal(t, partition.Interval{Start: 1, End: 6}, report.Span)
	assert.Equal(t, 3, report.Intervals)
	require.NoError(t, partition.Validate(m, partition.ValidateOptions{}))
}

func TestCheckCoverage_Gap(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(`{[1:2]}\n{[6:8]}`)
	require.NoError(t, err)

	report := partition.CheckCoverage(m, partition.ValidateOptions{})
	require.Len(t, report.Issues, 1)

	issue := report.Issues[0]
	assert.Equal(t, partition.IssueGap, issue.Kind)
	assert.Equal(t, int64(3), issue.From)
	assert.Equal(t, int64(5), issue.To)
	require.NotNil(t, issue.Prev)
	require.NotNil(t, issue.Next)
	assert.Equal(t, partition.ID(0), issue.Prev.Partition)
	assert.Equal(t, partition.ID(1), issue.Next.Partition)
	assert.Contains(t, issue.String(), "gap [3:5]")
}

func TestCheckCoverage_OverlapWithEarlierLongRun(t *testing.T) {
	t.Parallel()

	// [1:10] swallows both [3:4] and [6:12]; the overlaps are both reported
	// against the long run.
	m := partition.Map{
		{{Start: 1, End: 10}},
		{{Start: 3, End: 4}},
		{{Start: 6, End: 12}},
	}

	report := partition.CheckCoverage(m, partition.ValidateOptions{})
	require.Len(t, report.Issues, 2)

	assert.Equal(t, partition.IssueOverlap, report.Issues[0].Kind)
	assert.Equal(t, int64(3), report.Issues[0].From)
	assert.Equal(t, int64(4), report.Issues[0].To)
	assert.Equal(t, partition.ID(0), report.Issues[0].Prev.Partition)

	assert.Equal(t, partition.IssueOverlap, report.Issues[1].Kind)
	assert.Equal(t, int64(6), report.Issues[1].From)
	assert.Equal(t, int64(10), report.Issues[1].To)
	assert.Equal(t, partition.ID(0), report.Issues[1].Prev.Partition)

	assert.Equal(t, partition.Interval{Start: 1, End: 12}, report.Span)
}

func TestCheckCoverage_DuplicateWithinPartition(t *testing.T) {
	t.Parallel()

	m := partition.Map{{{Start: 1, End: 2}, {Start: 1, End: 2}}}

	err := partition.Validate(m, partition.ValidateOptions{})
	require.ErrorIs(t, err, partition.ErrCoverage)

	var coverage *partition.CoverageError
	require.ErrorAs(t, err, &coverage)
	require.Len(t, coverage.Issues, 1)
	assert.Equal(t, partition.IssueOverlap, coverage.Issues[0].Kind)
}

func TestCheckCoverage_Origin(t *testing.T) {
	t.Parallel()

	m := partition.Map{{{Start: 3, End: 5}}}

	report := partition.CheckCoverage(m, partition.ValidateOptions{Origin: 1, CheckOrigin: true})
	require.Len(t, report.Issues, 1)
	assert.Equal(t, partition.IssueGap, report.Issues[0].Kind)
	assert.Equal(t, int64(1), report.Issues[0].From)
	assert.Equal(t, int64(2), report.Issues[0].To)
	assert.Nil(t, report.Issues[0].Prev)

	report = partition.CheckCoverage(m, partition.ValidateOptions{Origin: 4, CheckOrigin: true})
	require.Len(t, report.Issues, 1)
	assert.Equal(t, partition.IssueBeforeOrigin, report.Issues[0].Kind)
	assert.Equal(t, int64(3), report.Issues[0].From)
	assert.Equal(t, int64(3), report.Issues[0].To)

	report = partition.CheckCoverage(m, partition.ValidateOptions{Origin: 1})
	assert.True(t, report.OK(), "origin is ignored unless requested")
}

func TestCheckCoverage_EmptyPartitionsAreFine(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(`{}\n{[1:4]}\n{}`)
	require.NoError(t, err)

	require.NoError(t, partition.Validate(m, partition.ValidateOptions{}))

	report := partition.CheckCoverage(partition.Map{{}, {}}, partition.ValidateOptions{CheckOrigin: true})
	assert.True(t, report.OK())
	assert.Zero(t, report.Intervals)
}

func TestCoverageError_MessageIsBounded(t *testing.T) {
	t.Parallel()

	m := partition.Map{{}}
	for i := range int64(10) {
		m[0] = append(m[0], partition.Interval{Start: i * 3, End: i * 3})
	}

	err := partition.Validate(m, partition.ValidateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "9 issue(s)")
	assert.Contains(t, err.Error(), "and 4 more")
}

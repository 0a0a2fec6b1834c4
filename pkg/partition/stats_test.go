package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(`{[1:2],[5:6]}\n{[3:4]}`)
	require.NoError(t, err)

	summary := partition.Summarize(m)

	assert.Equal(t, 3, summary.Intervals)
	assert.Equal(t, int64(6), summary.Indices)
	assert.Equal(t, int64(2), summary.MinSize)
	assert.Equal(t, int64(4), summary.MaxSize)
	require.Len(t, summary.Partitions, 2)

	assert.Equal(t, partition.PartitionSummary{ID: 0, Intervals: 2, Indices: 4, Share: 4.0 / 6.0}, summary.Partitions[0])
	assert.Equal(t, partition.PartitionSummary{ID: 1, Intervals: 1, Indices: 2, Share: 2.0 / 6.0}, summary.Partitions[1])

	// Expected size 3: |3-4|/3 and |3-2|/3.
	assert.InDelta(t, 1.0/3.0, summary.MaxImbalance, 1e-9)
}

func TestSummarize_Balanced(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(inputTwoBlocks)
	require.NoError(t, err)

	summary := partition.Summarize(m)
	assert.InDelta(t, 0.0, summary.MaxImbalance, 1e-9)
	assert.InDelta(t, 0.5, summary.Partitions[1].Share, 1e-9)
}

func TestSummarize_EmptyPartition(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(`{[1:4]}\n{}`)
	require.NoError(t, err)

	summary := partition.Summarize(m)
	assert.Equal(t, int64(0), summary.MinSize)
	assert.Equal(t, int64(4), summary.MaxSize)
	assert.InDelta(t, 1.0, summary.MaxImbalance, 1e-9)
}

func TestSummarize_NoIndices(t *testing.T) {
	t.Parallel()

	summary := partition.Summarize(partition.Map{})
	assert.Empty(t, summary.Partitions)
	assert.Zero(t, summary.MaxImbalance)
}

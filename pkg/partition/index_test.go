package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

func TestIndex_Owner(t *testing.T) {
	t.Parallel()

	m, err := partition.Parse(inputInterleaved)
	require.NoError(t, err)

	index := partition.NewIndex(m)
	assert.Equal(t, 3, index.Len())

	want := map[int64]partition.ID{1: 0, 2: 0, 3: 1, 4: 1, 5: 0, 6: 0}
	for i, id := range want {
		got, ok := index.Owner(i)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, id, got, "index %d", i)
	}
}

func TestIndex_Misses(t *testing.T) {
	t.Parallel()

	index := partition.NewIndex(partition.Map{{{Start: 10, End: 12}}, {{Start: 20, End: 20}}})

	for _, i := range []int64{-1, 9, 13, 19, 21} {
		_, ok := index.Owner(i)
		assert.False(t, ok, "index %d", i)
	}

	run, ok := index.Find(20)
	require.True(t, ok)
	assert.Equal(t, partition.Run{Partition: 1, Interval: partition.Interval{Start: 20, End: 20}}, run)
}

func TestIndex_Empty(t *testing.T) {
	t.Parallel()

	index := partition.NewIndex(partition.Map{{}})

	_, ok := index.Owner(1)
	assert.False(t, ok)
}

package partition

import (
	"cmp"
	"slices"
	"sort"
)

// Index answers which partition owns a given index. It is built once from a
// Map and assumes the map's intervals do not overlap; with overlaps, the run
// with the greatest start not above the queried index wins.
type Index struct {
	runs []Run
}

// NewIndex builds an Index over every interval of m. O(I log I).
func NewIndex(m Map) *Index {
	runs := m.Runs()

	slices.SortStableFunc(runs, func(a, b Run) int {
		return cmp.Compare(a.Interval.Start, b.Interval.Start)
	})

	return &Index{runs: runs}
}

// Len returns the number of indexed intervals.
func (x *Index) Len() int {
	return len(x.runs)
}

// Owner returns the partition whose interval contains i. O(log I).
func (x *Index) Owner(i int64) (ID, bool) {
	run, ok := x.Find(i)

	return run.Partition, ok
}

// Find returns the run containing i.
func (x *Index) Find(i int64) (Run, bool) {
	// First run starting after i; the candidate is the one before it.
	pos := sort.Search(len(x.runs), func(k int) bool {
		return x.runs[k].Interval.Start > i
	})
	if pos == 0 {
		return Run{}, false
	}

	run := x.runs[pos-1]
	if !run.Interval.Contains(i) {
		return Run{}, false
	}

	return run, true
}

// Package partition models the compact interval form of an index-range
// partition assignment and expands it into one record per index.
//
// A partition assignment is written by a domain partitioner as one block of
// closed intervals per partition. The k-th block belongs to partition k. The
// expansion walks all partitions at once, always consuming the pending interval
// with the smallest start, so that the emitted sequence of partition IDs is
// ordered by global index.
//
// Correct output relies on a precondition that is not checked by default: the
// intervals of all partitions together tile the index range exactly once, with
// no gaps and no overlaps. Use [Validate] or [Options.Validate] to opt in to
// checking it.
package partition

import (
	"math"
	"strconv"
)

// ID identifies a partition. IDs are dense and assigned in parse order.
type ID int

// Interval is the closed run of indices [Start, End].
type Interval struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end"   yaml:"end"`
}

// Len returns the number of indices covered by the interval.
func (iv Interval) Len() int64 {
	return iv.End - iv.Start + 1
}

// Contains reports whether index i lies inside the interval.
func (iv Interval) Contains(i int64) bool {
	return iv.Start <= i && i <= iv.End
}

// String renders the interval in the compact token form "[start:end]".
func (iv Interval) String() string {
	buf := make([]byte, 0, intervalTokenCap)
	buf = iv.appendToken(buf)

	return string(buf)
}

// intervalTokenCap fits two 20-digit endpoints plus brackets and separator.
const intervalTokenCap = 43

func (iv Interval) appendToken(buf []byte) []byte {
	buf = append(buf, '[')
	buf = strconv.AppendInt(buf, iv.Start, 10)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, iv.End, 10)

	return append(buf, ']')
}

// Run is a contiguous run of indices owned by one partition.
type Run struct {
	Partition ID       `json:"partition" yaml:"partition"`
	Interval  Interval `json:"interval"  yaml:"interval"`
}

// Map holds the interval list of every partition, indexed by partition ID.
// The order of each list is the order of appearance in the source block.
// A Map is not modified once built.
type Map [][]Interval

// Len returns the number of partitions, including empty ones.
func (m Map) Len() int {
	return len(m)
}

// Intervals returns the interval list of partition id, or nil if id is out of range.
func (m Map) Intervals(id ID) []Interval {
	if id < 0 || int(id) >= len(m) {
		return nil
	}

	return m[id]
}

// TotalIntervals returns the number of intervals across all partitions.
func (m Map) TotalIntervals() int {
	total := 0

	for _, list := range m {
		total += len(list)
	}

	return total
}

// TotalRecords returns the number of records a full expansion emits,
// saturating at math.MaxInt64.
func (m Map) TotalRecords() int64 {
	var total int64

	for _, list := range m {
		for _, iv := range list {
			n := max(iv.Len(), 0)
			if total > math.MaxInt64-n {
				return math.MaxInt64
			}

			total += n
		}
	}

	return total
}

// EmptyPartitions returns the IDs of partitions that hold no intervals.
func (m Map) EmptyPartitions() []ID {
	var empty []ID

	for id, list := range m {
		if len(list) == 0 {
			empty = append(empty, ID(id))
		}
	}

	return empty
}

// Runs returns every interval of the map tagged with its partition, in
// partition order and then source order.
func (m Map) Runs() []Run {
	runs := make([]Run, 0, m.TotalIntervals())

	for id, list := range m {
		for _, iv := range list {
			runs = append(runs, Run{Partition: ID(id), Interval: iv})
		}
	}

	return runs
}

package partition

import (
	"context"
	"fmt"
)

// Strategy selects how the merge finds the next interval to consume.
type Strategy string

const (
	// StrategyScan scans every partition per step: O(P) per step, O(P) state.
	StrategyScan Strategy = "scan"
	// StrategyHeap keeps partition heads in a binary heap: O(log P) per step.
	StrategyHeap Strategy = "heap"
)

// ParseStrategy converts a strategy name into a Strategy. The empty string
// selects StrategyScan.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case "", StrategyScan:
		return StrategyScan, nil
	case StrategyHeap:
		return StrategyHeap, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Options controls an expansion.
type Options struct {
	// Strategy selects the merge implementation. Zero value is StrategyScan.
	Strategy Strategy
	// Validate runs [Validate] before merging and fails on any gap or overlap.
	Validate bool
}

// Emitter receives expanded records. Emit is called once per merge step with
// the number of consecutive indices that belong to partition id.
type Emitter interface {
	Emit(id ID, count int64) error
}

// EmitterFunc adapts an ordinary function to the Emitter interface.
type EmitterFunc func(id ID, count int64) error

// Emit calls f(id, count).
func (f EmitterFunc) Emit(id ID, count int64) error {
	return f(id, count)
}

// MergeStats summarizes a finished or interrupted merge.
type MergeStats struct {
	// Steps is the number of intervals consumed.
	Steps int `json:"steps" yaml:"steps"`
	// Records is the number of index records emitted.
	Records int64 `json:"records" yaml:"records"`
}

// Expand merges the partitions of m by interval start and emits one record
// per covered index, in ascending index order when m tiles its range.
// Cancellation of ctx is checked once per merge step.
func Expand(ctx context.Context, m Map, emit Emitter, opts Options) (MergeStats, error) {
	return Merge(ctx, m, opts, func(run Run) error {
		err := emit.Emit(run.Partition, run.Interval.Len())
		if err != nil {
			return fmt.Errorf("emit partition %d: %w", run.Partition, err)
		}

		return nil
	})
}

// collectCapHint bounds the up-front allocation of Collect.
const collectCapHint = 1 << 20

// Collect expands m into memory and returns one partition ID per index.
func Collect(ctx context.Context, m Map, opts Options) ([]ID, error) {
	ids := make([]ID, 0, min(m.TotalRecords(), collectCapHint))

	_, err := Expand(ctx, m, EmitterFunc(func(id ID, count int64) error {
		for range count {
			ids = append(ids, id)
		}

		return nil
	}), opts)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Merge performs the k-way merge and calls yield once per consumed interval.
//
// Among partitions that still hold intervals, the one whose current interval
// has the smallest start is selected; ties go to the lowest partition ID.
// A partition is exhausted after its last interval is consumed and is never
// selected again, so the merge takes exactly m.TotalIntervals() steps.
func Merge(ctx context.Context, m Map, opts Options, yield func(Run) error) (MergeStats, error) {
	var stats MergeStats

	if opts.Validate {
		err := Validate(m, ValidateOptions{})
		if err != nil {
			return stats, err
		}
	}

	cur := newCursors(m)

	sel, err := newSelector(opts.Strategy, cur)
	if err != nil {
		return stats, err
	}

	for {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return stats, fmt.Errorf("merge interrupted after %d steps: %w", stats.Steps, ctxErr)
		}

		id, ok, pickErr := sel.pick()
		if pickErr != nil {
			return stats, pickErr
		}

		if !ok {
			return stats, nil
		}

		iv, curErr := cur.current(id)
		if curErr != nil {
			return stats, curErr
		}

		yieldErr := yield(Run{Partition: id, Interval: iv})
		if yieldErr != nil {
			return stats, yieldErr
		}

		stats.Steps++
		stats.Records += iv.Len()

		cur.consume(id)

		advErr := sel.advanced(id)
		if advErr != nil {
			return stats, advErr
		}
	}
}

// cursor tracks one partition's position in its interval list.
type cursor struct {
	pos       int
	exhausted bool
}

// cursors owns the per-partition merge state for the duration of one merge.
type cursors struct {
	m   Map
	cur []cursor
}

func newCursors(m Map) *cursors {
	cur := make([]cursor, len(m))

	for id, list := range m {
		cur[id].exhausted = len(list) == 0
	}

	return &cursors{m: m, cur: cur}
}

func (c *cursors) len() int {
	return len(c.cur)
}

func (c *cursors) exhausted(id ID) bool {
	return c.cur[id].exhausted
}

// current returns the interval under the cursor of partition id. Maps built
// without Parse may hold unusable intervals, so each one is checked here.
func (c *cursors) current(id ID) (Interval, error) {
	list := c.m[id]
	pos := c.cur[id].pos

	if c.cur[id].exhausted || pos < 0 || pos >= len(list) {
		return Interval{}, &MalformedIntervalError{Block: int(id), Err: ErrCursorOutOfRange}
	}

	iv := list[pos]

	err := checkInterval(iv)
	if err != nil {
		return Interval{}, &MalformedIntervalError{Block: int(id), Token: iv.String(), Err: err}
	}

	return iv, nil
}

// consume marks the current interval of id as emitted. The cursor position
// never moves past the last interval; exhaustion is tracked by the flag.
func (c *cursors) consume(id ID) {
	last := len(c.m[id]) - 1
	state := &c.cur[id]

	if state.pos >= last {
		state.exhausted = true
	}

	state.pos = min(state.pos+1, last)
}

// selector picks the partition whose current interval starts first.
type selector interface {
	// pick returns the next partition to consume, or false when all are exhausted.
	pick() (ID, bool, error)
	// advanced is called after the picked partition's interval was consumed.
	advanced(id ID) error
}

func newSelector(strategy Strategy, cur *cursors) (selector, error) {
	switch strategy {
	case "", StrategyScan:
		return &scanSelector{cur: cur}, nil
	case StrategyHeap:
		return newHeapSelector(cur)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// scanSelector compares the heads of all live partitions on every pick.
type scanSelector struct {
	cur *cursors
}

func (s *scanSelector) pick() (ID, bool, error) {
	best := ID(-1)

	var bestStart int64

	for i := range s.cur.len() {
		id := ID(i)
		if s.cur.exhausted(id) {
			continue
		}

		iv, err := s.cur.current(id)
		if err != nil {
			return 0, false, err
		}

		// Strict less-than keeps the lowest ID among equal starts.
		if best < 0 || iv.Start < bestStart {
			best = id
			bestStart = iv.Start
		}
	}

	return best, best >= 0, nil
}

func (s *scanSelector) advanced(ID) error {
	return nil
}

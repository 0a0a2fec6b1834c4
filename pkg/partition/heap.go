package partition

import (
	"container/heap"
)

// head is a live partition's current interval start, keyed for the heap.
type head struct {
	start int64
	id    ID
}

// headHeap orders heads by start, then by partition ID.
type headHeap []head

func (h headHeap) Len() int { return len(h) }

func (h headHeap) Less(i, j int) bool {
	if h[i].start != h[j].start {
		return h[i].start < h[j].start
	}

	return h[i].id < h[j].id
}

func (h headHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *headHeap) Push(x any) {
	*h = append(*h, x.(head)) //nolint:forcetypeassert // only heads are pushed
}

func (h *headHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// heapSelector holds exactly one entry per non-exhausted partition.
type heapSelector struct {
	cur   *cursors
	heads headHeap
}

func newHeapSelector(cur *cursors) (*heapSelector, error) {
	s := &heapSelector{
		cur:   cur,
		heads: make(headHeap, 0, cur.len()),
	}

	for i := range cur.len() {
		id := ID(i)
		if cur.exhausted(id) {
			continue
		}

		iv, err := cur.current(id)
		if err != nil {
			return nil, err
		}

		s.heads = append(s.heads, head{start: iv.Start, id: id})
	}

	heap.Init(&s.heads)

	return s, nil
}

func (s *heapSelector) pick() (ID, bool, error) {
	if s.heads.Len() == 0 {
		return 0, false, nil
	}

	top := heap.Pop(&s.heads).(head) //nolint:forcetypeassert // only heads are pushed

	return top.id, true, nil
}

func (s *heapSelector) advanced(id ID) error {
	if s.cur.exhausted(id) {
		return nil
	}

	iv, err := s.cur.current(id)
	if err != nil {
		return err
	}

	heap.Push(&s.heads, head{start: iv.Start, id: id})

	return nil
}

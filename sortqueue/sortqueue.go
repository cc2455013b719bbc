// Package sortqueue implements §4.H: the result-accumulation strategies
// the scorer feeds matches into as it walks the posting lists. Every
// implementation shares the same small interface so the server can build
// whichever queue the client's sort-by clause calls for without the
// scorer knowing which one it is talking to.
package sortqueue

import (
	"container/heap"

	"github.com/mrold/sphinxgo/schema"
)

// Queue is the common interface every sort queue implements (§4.H).
type Queue interface {
	// Push offers one match to the queue, returning whether it was
	// accepted (a bounded queue rejects a match once it's worse than
	// every held match and the queue is already full).
	Push(m schema.Match) bool
	// Len reports how many matches the queue currently holds.
	Len() int
	// Flatten drains the queue into best-first order, relabelling every
	// match's Tag to tag (the originating shard, used by merge).
	Flatten(tag int32) []schema.Match
	// IsGroupBy reports whether this queue groups matches (§4.H), which
	// changes how the outgoing schema and merge step treat it.
	IsGroupBy() bool
}

// LessFunc orders two matches, "a ranks better than b" — the same role
// schema.Less plays for the default ranker, generalized so Extended and
// Expression queues can supply their own ordering.
type LessFunc func(a, b schema.Match) bool

// keyedHeap is a container/heap min-heap (worst-ranked item at the root,
// by less) over matches, backing every bounded queue in this package.
type keyedHeap struct {
	items []schema.Match
	less  LessFunc
}

func (h keyedHeap) Len() int { return len(h.items) }
func (h keyedHeap) Less(i, j int) bool {
	// Min-heap on "worst first": whichever item sorts after the other
	// under less (ranks lower) sits at the heap root, so it's the first
	// one evicted.
	return h.less(h.items[j], h.items[i])
}
func (h keyedHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *keyedHeap) Push(x any)   { h.items = append(h.items, x.(schema.Match)) }
func (h *keyedHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// BoundedQueue is a bounded min-heap on a ranking key (§4.H TopN,
// Extended, Expression all reduce to this with different LessFuncs):
// once full, a new match replaces the current worst only if it
// outranks it.
type BoundedQueue struct {
	limit int
	h     keyedHeap
}

// NewBoundedQueue builds a queue accepting at most limit matches, ranked
// by less.
func NewBoundedQueue(limit int, less LessFunc) *BoundedQueue {
	if limit < 1 {
		limit = 1
	}
	return &BoundedQueue{limit: limit, h: keyedHeap{less: less}}
}

func (q *BoundedQueue) Push(m schema.Match) bool {
	if q.h.Len() < q.limit {
		heap.Push(&q.h, m)
		return true
	}
	worst := q.h.items[0]
	if !q.h.less(m, worst) {
		return false
	}
	q.h.items[0] = m
	heap.Fix(&q.h, 0)
	return true
}

func (q *BoundedQueue) Len() int { return q.h.Len() }

func (q *BoundedQueue) IsGroupBy() bool { return false }

// Flatten pops every match off the heap in worst-first order, then
// reverses so the result comes out best-first, applying tag on the way.
func (q *BoundedQueue) Flatten(tag int32) []schema.Match {
	out := make([]schema.Match, q.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		m := heap.Pop(&q.h).(schema.Match)
		m.Tag = tag
		out[i] = m
	}
	return out
}

// TopN is the default sort queue (§4.H): bounded min-heap on the ranker's
// own weight/docid/tag tie-break (schema.Less).
type TopN struct {
	*BoundedQueue
}

// NewTopN builds a TopN queue accepting at most limit matches.
func NewTopN(limit int) *TopN {
	return &TopN{BoundedQueue: NewBoundedQueue(limit, schema.Less)}
}

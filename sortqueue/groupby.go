package sortqueue

import (
	"sort"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/schema"
)

// Aggregator is one of the optional per-bucket aggregates §4.H lists
// alongside the always-present @count.
type Aggregator int

const (
	AggNone Aggregator = iota
	AggMin
	AggMax
	AggSum
	AggAvg
)

// KeyFunc buckets a match into a group, e.g. an attribute's raw value or
// a day/week/month/year truncation of a timestamp attribute (§4.H).
type KeyFunc func(m schema.Match) uint64

// Bucket is one GroupBy bucket's accumulated state, handed out by
// Results in final form. Best is the bucket's top match (selected by
// group_sort_by, defaulting to schema.Less); Distinct is populated only
// when the queue was built with a distinct attribute.
type Bucket struct {
	Key      uint64
	Count    uint64
	Agg      float64
	HasAgg   bool
	Distinct uint64
	Best     schema.Match
}

// GroupBy implements the GroupBy sort queue (§4.H): buckets matches by
// KeyFn, keeps the best PerBucket matches in each bucket (via an inner
// TopN-like ordering), and tracks @count plus an optional aggregator and
// an optional @distinct count.
//
// A document's attribute row only exposes integer/float fixed-width
// fields (§3), so the aggregate and distinct value extractors both read
// through a binio.Locator rather than an arbitrary schema.Attr — the
// caller resolves the attribute name to a Locator once, up front.
type GroupBy struct {
	keyFn       KeyFunc
	perBucket   int
	groupLess   LessFunc
	aggKind     Aggregator
	aggLoc      binio.Locator
	distinctLoc binio.Locator
	hasDistinct bool

	buckets map[uint64]*groupState
	order   []uint64 // first-seen order, for deterministic iteration
}

type groupState struct {
	top      *BoundedQueue
	count    uint64
	aggSum   float64
	aggMin   float64
	aggMax   float64
	hasAgg   bool
	distinct map[uint64]struct{}
}

// GroupByConfig configures one GroupBy queue.
type GroupByConfig struct {
	KeyFn       KeyFunc
	PerBucket   int
	GroupLess   LessFunc // defaults to schema.Less (by weight) if nil
	Aggregator  Aggregator
	AggLoc      binio.Locator
	DistinctLoc binio.Locator
	HasDistinct bool
}

// NewGroupBy builds a GroupBy queue from cfg.
func NewGroupBy(cfg GroupByConfig) *GroupBy {
	if cfg.PerBucket < 1 {
		cfg.PerBucket = 1
	}
	if cfg.GroupLess == nil {
		cfg.GroupLess = schema.Less
	}
	return &GroupBy{
		keyFn:       cfg.KeyFn,
		perBucket:   cfg.PerBucket,
		groupLess:   cfg.GroupLess,
		aggKind:     cfg.Aggregator,
		aggLoc:      cfg.AggLoc,
		distinctLoc: cfg.DistinctLoc,
		hasDistinct: cfg.HasDistinct,
		buckets:     map[uint64]*groupState{},
	}
}

func (q *GroupBy) Push(m schema.Match) bool {
	key := q.keyFn(m)
	st, ok := q.buckets[key]
	if !ok {
		st = &groupState{top: NewBoundedQueue(q.perBucket, q.groupLess)}
		if q.hasDistinct {
			st.distinct = map[uint64]struct{}{}
		}
		q.buckets[key] = st
		q.order = append(q.order, key)
	}
	st.count++
	if q.aggKind != AggNone {
		v := float64(binio.PackedRow(m.Row).Get(q.aggLoc))
		if !st.hasAgg {
			st.aggMin, st.aggMax, st.aggSum, st.hasAgg = v, v, v, true
		} else {
			st.aggSum += v
			if v < st.aggMin {
				st.aggMin = v
			}
			if v > st.aggMax {
				st.aggMax = v
			}
		}
	}
	if q.hasDistinct {
		st.distinct[binio.PackedRow(m.Row).Get(q.distinctLoc)] = struct{}{}
	}
	return st.top.Push(m)
}

func (q *GroupBy) Len() int { return len(q.buckets) }

func (q *GroupBy) IsGroupBy() bool { return true }

// Flatten returns each bucket's best match, ordered best-bucket-first by
// the bucket's own best match (group_sort_by); full aggregate detail is
// available from Results.
func (q *GroupBy) Flatten(tag int32) []schema.Match {
	results := q.Results()
	out := make([]schema.Match, len(results))
	for i, r := range results {
		m := r.Best
		m.Tag = tag
		out[i] = m
	}
	return out
}

// Results returns one Bucket per group, sorted best-first by each
// bucket's representative match under the queue's GroupLess ordering.
func (q *GroupBy) Results() []Bucket {
	out := make([]Bucket, 0, len(q.buckets))
	for _, key := range q.order {
		st := q.buckets[key]
		b := Bucket{Key: key, Count: st.count}
		if st.hasAgg {
			switch q.aggKind {
			case AggMin:
				b.Agg, b.HasAgg = st.aggMin, true
			case AggMax:
				b.Agg, b.HasAgg = st.aggMax, true
			case AggSum:
				b.Agg, b.HasAgg = st.aggSum, true
			case AggAvg:
				b.Agg, b.HasAgg = st.aggSum/float64(st.count), true
			}
		}
		if q.hasDistinct {
			b.Distinct = uint64(len(st.distinct))
		}
		best := st.top.Flatten(0)
		if len(best) > 0 {
			b.Best = best[0]
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return q.groupLess(out[i].Best, out[j].Best) })
	return out
}

package sortqueue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/schema"
	"github.com/mrold/sphinxgo/sortqueue"
)

func mkMatch(id uint64, weight int32, attr uint64) schema.Match {
	return schema.Match{DocID: id, Weight: weight, Row: binio.PackedRow{attr}}
}

func TestTopNKeepsBestByWeight(t *testing.T) {
	q := sortqueue.NewTopN(2)
	assert.True(t, q.Push(mkMatch(1, 5, 0)))
	assert.True(t, q.Push(mkMatch(2, 9, 0)))
	assert.False(t, q.Push(mkMatch(3, 1, 0))) // worse than both, full queue
	got := q.Push(mkMatch(3, 1, 0))
	assert.False(t, got)

	out := q.Flatten(7)
	if assert.Len(t, out, 2) {
		assert.Equal(t, uint64(2), out[0].DocID)
		assert.Equal(t, uint64(1), out[1].DocID)
		assert.Equal(t, int32(7), out[0].Tag)
	}
}

func TestExtendedSortByAttrAsc(t *testing.T) {
	loc := binio.Locator{BitOffset: 0, BitWidth: 32}
	keys := []sortqueue.SortKey{{Attr: "price", Dir: sortqueue.Asc, Loc: loc}}
	q := sortqueue.NewExtended(10, keys, nil)
	q.Push(mkMatch(1, 0, 30))
	q.Push(mkMatch(2, 0, 10))
	q.Push(mkMatch(3, 0, 20))

	out := q.Flatten(0)
	assert.Equal(t, []uint64{2, 3, 1}, []uint64{out[0].DocID, out[1].DocID, out[2].DocID})
}

func TestGroupByCountAndAgg(t *testing.T) {
	loc := binio.Locator{BitOffset: 0, BitWidth: 32}
	q := sortqueue.NewGroupBy(sortqueue.GroupByConfig{
		KeyFn:      func(m schema.Match) uint64 { return m.DocID % 2 },
		PerBucket:  1,
		Aggregator: sortqueue.AggSum,
		AggLoc:     loc,
	})
	q.Push(mkMatch(1, 5, 10))
	q.Push(mkMatch(3, 9, 20))
	q.Push(mkMatch(2, 1, 100))

	assert.Equal(t, 2, q.Len())
	results := q.Results()
	byKey := map[uint64]sortqueue.Bucket{}
	for _, b := range results {
		byKey[b.Key] = b
	}
	odd := byKey[1]
	assert.Equal(t, uint64(2), odd.Count)
	assert.Equal(t, float64(30), odd.Agg)
	even := byKey[0]
	assert.Equal(t, uint64(1), even.Count)
	assert.Equal(t, float64(100), even.Agg)
}

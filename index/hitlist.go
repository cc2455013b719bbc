package index

import (
	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/segfmt"
)

// Hit is one decoded, absolute (field, position) pair from the hitlist.
type Hit struct {
	Field      uint8
	Pos        uint32
	Terminator bool
}

// HitIter walks the hitCount hits for one doclist entry starting at
// hitOffset in .spp, reconstructing absolute positions from the
// per-field deltas EncodeHit produced (§3, §4.D).
type HitIter struct {
	cursor   binio.Cursor
	remain   int
	lastPos  map[uint8]uint32
}

// Hits returns a HitIter over the posting's hit run.
func (r *Reader) Hits(e segfmt.DoclistEntry, hitCount uint64) *HitIter {
	return &HitIter{
		cursor:  binio.Cursor{Buf: r.hitlist.data, Pos: int(e.HitOffset)},
		remain:  int(hitCount),
		lastPos: map[uint8]uint32{},
	}
}

func (it *HitIter) Next() (Hit, bool) {
	if it.remain <= 0 {
		return Hit{}, false
	}
	v, err := binio.ReadUvarint(&it.cursor)
	if err != nil {
		it.remain = 0
		return Hit{}, false
	}
	it.remain--
	delta, field, terminator := segfmt.DecodeHit(v)
	abs := it.lastPos[field] + delta
	it.lastPos[field] = abs
	if terminator {
		delete(it.lastPos, field)
	}
	return Hit{Field: field, Pos: abs, Terminator: terminator}, true
}

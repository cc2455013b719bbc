package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrold/sphinxgo/segfmt"
)

func TestHitIterReconstructsPositions(t *testing.T) {
	var buf []byte
	enc := func(posDelta uint32, field uint8, term bool) {
		v := segfmt.EncodeHit(posDelta, field, term)
		var tmp []byte
		for v >= 0x80 {
			tmp = append(tmp, byte(v)|0x80)
			v >>= 7
		}
		tmp = append(tmp, byte(v))
		buf = append(buf, tmp...)
	}
	// field 0: positions 1, 3 (terminator on 3); field 1: position 2 (terminator)
	enc(1, 0, false)
	enc(2, 0, true)
	enc(2, 1, true)

	r := &Reader{hitlist: &mappedFile{data: buf}}
	e := segfmt.DoclistEntry{HitOffset: 0}
	it := r.Hits(e, 3)

	var got []Hit
	for {
		h, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, h)
	}

	assert.Len(t, got, 3)
	assert.EqualValues(t, 1, got[0].Pos)
	assert.EqualValues(t, 0, got[0].Field)
	assert.False(t, got[0].Terminator)
	assert.EqualValues(t, 3, got[1].Pos)
	assert.True(t, got[1].Terminator)
	assert.EqualValues(t, 2, got[2].Pos)
	assert.EqualValues(t, 1, got[2].Field)
}

func TestDocListIterDecodesDeltas(t *testing.T) {
	var buf []byte
	write := func(e segfmt.DoclistEntry) {
		var bw byteSliceWriter
		segfmt.WriteDoclistEntry(&bw, e)
		buf = append(buf, bw...)
	}
	write(segfmt.DoclistEntry{DocID: 5, HitCount: 1, HitOffset: 0, FieldMask: 1})
	write(segfmt.DoclistEntry{DocID: 3, HitCount: 2, HitOffset: 1, FieldMask: 2}) // delta +3 => docid 8

	it := &DocListIter{data: buf, remain: 2}
	e1, ok := it.Next()
	assert.True(t, ok)
	assert.EqualValues(t, 5, e1.DocID)

	e2, ok := it.Next()
	assert.True(t, ok)
	assert.EqualValues(t, 8, e2.DocID)

	_, ok = it.Next()
	assert.False(t, ok)
}

// byteSliceWriter implements io.ByteWriter over a growable slice, used
// only by tests that need to build a raw varint stream without a real file.
type byteSliceWriter []byte

func (w *byteSliceWriter) WriteByte(b byte) error {
	*w = append(*w, b)
	return nil
}

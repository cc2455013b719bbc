package schema

import "github.com/mrold/sphinxgo/binio"

// Match is the unit the scorer produces and sort queues consume: a
// document id, a ranker-computed weight, the packed attribute row, and a
// Tag identifying the originating shard for post-merge fixups (MVA pool
// selection, per-index weight multiplier) per §3.
type Match struct {
	DocID  uint64
	Weight int32
	Row    binio.PackedRow
	Tag    int32
}

// Clone deep-copies the row so a Match can outlive the posting-list buffer
// it was built from — required once a Match is handed to a sort queue that
// may hold it across many more scorer advances.
func (m Match) Clone() Match {
	row := make(binio.PackedRow, len(m.Row))
	copy(row, m.Row)
	return Match{DocID: m.DocID, Weight: m.Weight, Row: row, Tag: m.Tag}
}

// Less implements the tie-break rule common to every sort queue in §4.G:
// higher weight first, then docid ascending, then smaller tag (earlier
// shard) wins.
func Less(a, b Match) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.Tag < b.Tag
}

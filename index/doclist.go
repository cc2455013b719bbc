package index

import (
	"sort"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/segfmt"
)

// WordStats is what a query needs to compute BM25 idf/collection
// frequencies before walking a posting list (§4.G).
type WordStats struct {
	DocCount uint64
	HitCount uint64
}

// Doclist bisects the checkpoints to find wordID's block, then scans that
// block for the matching dictionary row, exactly as §4.E specifies:
// "found by bisecting .spi checkpoints then scanning the block". It
// returns a fresh DocListIter positioned at the first posting.
func (r *Reader) Doclist(wordID uint64) (*DocListIter, WordStats, bool) {
	if len(r.checkpoints) == 0 {
		return nil, WordStats{}, false
	}
	i := sort.Search(len(r.checkpoints), func(i int) bool {
		return r.checkpoints[i].WordID > wordID
	}) - 1
	if i < 0 {
		return nil, WordStats{}, false
	}

	c := &binio.Cursor{Buf: r.wordlist.data, Pos: int(r.checkpoints[i].FileOffset)}
	curWordID := r.checkpoints[i].WordID
	first := true
	for c.Remaining() > 0 {
		if i+1 < len(r.checkpoints) && c.Pos >= int(r.checkpoints[i+1].FileOffset) {
			break
		}
		entry, err := segfmt.ReadWordlistEntry(c)
		if err != nil {
			break
		}
		if first {
			curWordID = entry.WordID
			first = false
		} else {
			curWordID += entry.WordID
		}
		if curWordID == wordID {
			stats := WordStats{DocCount: entry.DocCount, HitCount: entry.HitCount}
			return &DocListIter{data: r.doclist.data[entry.DoclistOffset:], remain: int(entry.DocCount)}, stats, true
		}
		if curWordID > wordID {
			return nil, WordStats{}, false
		}
	}
	return nil, WordStats{}, false
}

// DocListIter walks one word's posting list in increasing docid order. remain
// bounds the read to this word's own DocCount entries — .spd packs every
// word's doclist back to back with no per-word trailer, so the entry count
// from the dictionary row is the only thing that tells a reader where one
// word's postings end and the next word's begin.
type DocListIter struct {
	cursor  binio.Cursor
	data    []byte
	lastDoc uint64
	remain  int
	started bool
	done    bool
}

// Next decodes the next posting, returning the absolute DocID (deltas are
// applied here) and false once remain postings have been read.
func (it *DocListIter) Next() (segfmt.DoclistEntry, bool) {
	if it.done || it.remain <= 0 {
		it.done = true
		return segfmt.DoclistEntry{}, false
	}
	if !it.started {
		it.cursor = binio.Cursor{Buf: it.data}
		it.started = true
	}
	e, err := segfmt.ReadDoclistEntry(&it.cursor)
	if err != nil {
		it.done = true
		return segfmt.DoclistEntry{}, false
	}
	it.remain--
	it.lastDoc += e.DocID
	e.DocID = it.lastDoc
	return e, true
}

// SkipTo advances the iterator until it yields a posting whose DocID is
// >= target, or exhausts the list. Used by the scorer's AND/NOT
// intersection walk to avoid rescanning from the start per keyword (§4.G).
func (it *DocListIter) SkipTo(target uint64) (segfmt.DoclistEntry, bool) {
	for {
		e, ok := it.Next()
		if !ok {
			return segfmt.DoclistEntry{}, false
		}
		if e.DocID >= target {
			return e, true
		}
	}
}

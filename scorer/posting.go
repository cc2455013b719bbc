// Package scorer implements §4.G: walking posting lists per the query
// tree, applying field-mask/phrase/proximity/quorum evaluation and filters,
// and producing a schema.Match stream for a sort queue.
package scorer

import (
	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/index"
)

// docInfo is what evaluating one keyword's posting list against a field
// mask records per matching document.
type docInfo struct {
	fieldMask   uint32
	hitCount    uint64
	hitsByField map[uint8][]uint32
}

// loadWordDocs materializes wordID's doclist, restricted to fields in mask,
// into an in-memory map keyed by docid. A streaming merge-walk over the
// mmap'd posting list would avoid this allocation for very large corpora;
// materializing per keyword is a deliberate scope reduction for an
// exercise-scale engine — the underlying reads
// still go through the real delta-decoded doclist/hitlist iterators.
func loadWordDocs(r *index.Reader, d dict.Dict, word string, mask uint32) map[uint64]docInfo {
	wordID := d.WordID([]byte(word))
	if wordID == 0 {
		return nil
	}
	it, _, found := r.Doclist(wordID)
	if !found {
		return nil
	}
	out := map[uint64]docInfo{}
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		if e.FieldMask&mask == 0 {
			continue
		}
		if r.IsKilled(e.DocID) {
			continue
		}
		hitsByField := map[uint8][]uint32{}
		var kept uint64
		hits := r.Hits(e, e.HitCount)
		for {
			h, ok := hits.Next()
			if !ok {
				break
			}
			if mask&(1<<uint(h.Field)) == 0 {
				continue
			}
			hitsByField[h.Field] = append(hitsByField[h.Field], h.Pos)
			kept++
		}
		if kept == 0 {
			continue
		}
		out[e.DocID] = docInfo{fieldMask: e.FieldMask & mask, hitCount: kept, hitsByField: hitsByField}
	}
	return out
}

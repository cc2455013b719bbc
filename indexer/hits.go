package indexer

import (
	"bufio"
	"container/heap"
	"os"
	"sort"

	"github.com/mrold/sphinxgo/binio"
)

// Hit is one (wordid, docid, field, pos) tuple produced by tokenizing a
// document's fields (§2 data flow, §4.D).
type Hit struct {
	WordID uint64
	DocID  uint64
	Field  uint8
	Pos    uint32
}

// MinMemLimit is the minimum arena size the indexer enforces regardless of
// configuration (§4.D: "default 32 MiB minimum enforced").
const MinMemLimit = 32 * 1024 * 1024

// bytesPerHit approximates an in-memory Hit's footprint for the arena's
// mem_limit accounting; it doesn't need to be exact, only monotonic.
const bytesPerHit = 32

// hitArena accumulates hits in memory and spills sorted runs to temp files
// once mem_limit is exceeded, implementing the external-memory hit sort
// §1/§4.D calls out as the hard part of the indexing pipeline.
type hitArena struct {
	memLimit int
	hits     []Hit
	runs     []*hitRun
	dir      string
}

func newHitArena(memLimit int, dir string) *hitArena {
	if memLimit < MinMemLimit {
		memLimit = MinMemLimit
	}
	return &hitArena{memLimit: memLimit, dir: dir}
}

func (a *hitArena) add(h Hit) error {
	a.hits = append(a.hits, h)
	if len(a.hits)*bytesPerHit >= a.memLimit {
		return a.spill()
	}
	return nil
}

// spill sorts the in-memory hits by (wordid, docid, pos) — the order the
// segment writer needs to emit doclist/hitlist records — and writes them
// delta-encoded to a temp run file (§4.D).
func (a *hitArena) spill() error {
	if len(a.hits) == 0 {
		return nil
	}
	sortHits(a.hits)

	f, err := os.CreateTemp(a.dir, "sphinxgo-run-*.tmp")
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)

	var lastWord, lastDoc uint64
	for _, h := range a.hits {
		if err := binio.PutUvarint(bw, h.WordID-lastWord); err != nil {
			return err
		}
		if err := binio.PutUvarint(bw, h.DocID-lastDoc); err != nil {
			return err
		}
		if err := binio.PutUvarint(bw, uint64(h.Pos)); err != nil {
			return err
		}
		if err := bw.WriteByte(h.Field); err != nil {
			return err
		}
		lastWord, lastDoc = h.WordID, h.DocID
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}

	a.runs = append(a.runs, &hitRun{f: f, r: bufio.NewReader(f)})
	a.hits = a.hits[:0]
	return nil
}

func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].WordID != hits[j].WordID {
			return hits[i].WordID < hits[j].WordID
		}
		if hits[i].DocID != hits[j].DocID {
			return hits[i].DocID < hits[j].DocID
		}
		return hits[i].Pos < hits[j].Pos
	})
}

// hitRun is one spilled, delta-encoded, already-sorted run file.
type hitRun struct {
	f        *os.File
	r        *bufio.Reader
	lastWord uint64
	lastDoc  uint64
	done     bool
}

func (run *hitRun) next() (Hit, bool) {
	if run.done {
		return Hit{}, false
	}
	wDelta, err := binio.ReadUvarint(run.r)
	if err != nil {
		run.done = true
		return Hit{}, false
	}
	dDelta, err := binio.ReadUvarint(run.r)
	if err != nil {
		run.done = true
		return Hit{}, false
	}
	pos, err := binio.ReadUvarint(run.r)
	if err != nil {
		run.done = true
		return Hit{}, false
	}
	field, err := run.r.ReadByte()
	if err != nil {
		run.done = true
		return Hit{}, false
	}
	run.lastWord += wDelta
	run.lastDoc += dDelta
	return Hit{WordID: run.lastWord, DocID: run.lastDoc, Pos: uint32(pos), Field: field}, true
}

func (run *hitRun) close() {
	run.f.Close()
	os.Remove(run.f.Name())
}

// mergeHeap is a loser-tree stand-in: a container/heap min-heap keyed on
// (wordid, docid, pos) over the run files plus the still-in-memory arena
// tail, giving the same "k runs -> one globally sorted stream" merge
// behaviour §4.D specifies ("runs are k-way-merged by a loser-tree").
type mergeHeapItem struct {
	hit Hit
	src int // index into sources
}

type mergeHeap []mergeHeapItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	a, b := h[i].hit, h[j].hit
	if a.WordID != b.WordID {
		return a.WordID < b.WordID
	}
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.Pos < b.Pos
}
func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)   { *h = append(*h, x.(mergeHeapItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// hitSource abstracts "a run file" and "the remaining in-memory arena" so
// the merge step treats both uniformly.
type hitSource interface {
	next() (Hit, bool)
}

type sliceSource struct {
	hits []Hit
	pos  int
}

func (s *sliceSource) next() (Hit, bool) {
	if s.pos >= len(s.hits) {
		return Hit{}, false
	}
	h := s.hits[s.pos]
	s.pos++
	return h, true
}

// finish flushes any remaining in-memory hits as a final sorted source and
// returns an iterator function yielding every hit across all runs in
// global (wordid, docid, pos) order, closing every run file once all
// sources are exhausted.
func (a *hitArena) finish() func() (Hit, bool) {
	sortHits(a.hits)
	sources := make([]hitSource, 0, len(a.runs)+1)
	for _, r := range a.runs {
		sources = append(sources, r)
	}
	sources = append(sources, &sliceSource{hits: a.hits})

	h := &mergeHeap{}
	heap.Init(h)
	for i, s := range sources {
		if hit, ok := s.next(); ok {
			heap.Push(h, mergeHeapItem{hit: hit, src: i})
		}
	}

	return func() (Hit, bool) {
		if h.Len() == 0 {
			for _, r := range a.runs {
				r.close()
			}
			return Hit{}, false
		}
		top := heap.Pop(h).(mergeHeapItem)
		if next, ok := sources[top.src].next(); ok {
			heap.Push(h, mergeHeapItem{hit: next, src: top.src})
		}
		return top.hit, true
	}
}

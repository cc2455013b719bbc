// Package index implements §4.E: opening a segment built by the indexer,
// mmap'ing its seven files, and exposing the read paths the scorer and
// server need — row lookup, posting-list iteration, the killlist, and
// in-place numeric attribute updates.
package index

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/schema"
	"github.com/mrold/sphinxgo/segfmt"
)

// Reader is one opened, mmap'd segment. All read paths are safe for
// concurrent use by multiple query goroutines; UpdateAttr takes a mutex
// since it mutates the shared .spa mapping in place.
type Reader struct {
	Prefix string
	Header segfmt.Header
	Schema schema.Schema

	attrs      *mappedFile // .spa
	wordlist   *mappedFile // .spi
	doclist    *mappedFile // .spd
	hitlist    *mappedFile // .spp
	mva        *mappedFile // .spm
	kill       []uint64    // .spk, decoded once (small, sorted)
	checkpoints []segfmt.Checkpoint

	docidIndex []uint64 // sorted docids in .spa, Extern mode only
	updateTag  int64
	flushTag   int64
	mu         sync.Mutex

	lock *Lock
}

// Open mmaps the seven files sharing prefix and validates the header
// (§4.E). The caller must Close the Reader to release the mappings and
// the advisory lock.
func Open(prefix string) (*Reader, error) {
	lock, err := TryLock(prefix + ".lock")
	if err != nil {
		return nil, err
	}

	r := &Reader{Prefix: prefix, lock: lock}
	ok := false
	defer func() {
		if !ok {
			r.Close()
		}
	}()

	hf, err := os.Open(prefix + segfmt.ExtHeader)
	if err != nil {
		return nil, err
	}
	defer hf.Close()
	hdr, err := segfmt.ReadHeader(hf)
	if err != nil {
		return nil, fmt.Errorf("index: reading header: %w", err)
	}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	r.Header = hdr

	sch, err := schema.Decode(hdr.SchemaBlob)
	if err != nil {
		return nil, fmt.Errorf("index: decoding schema: %w", err)
	}
	if sch.Hash() != hdr.SchemaHash {
		return nil, fmt.Errorf("index: schema hash mismatch")
	}
	r.Schema = sch

	if r.attrs, err = mmapFileRW(prefix + segfmt.ExtAttrs); err != nil {
		return nil, err
	}
	if r.wordlist, err = mmapFile(prefix + segfmt.ExtWordlist); err != nil {
		return nil, err
	}
	if r.doclist, err = mmapFile(prefix + segfmt.ExtDoclist); err != nil {
		return nil, err
	}
	if r.hitlist, err = mmapFile(prefix + segfmt.ExtHitlist); err != nil {
		return nil, err
	}
	if r.mva, err = mmapFile(prefix + segfmt.ExtMva); err != nil {
		return nil, err
	}
	if err := r.loadKilllist(prefix + segfmt.ExtKilllist); err != nil {
		return nil, err
	}
	if err := r.loadCheckpoints(); err != nil {
		return nil, err
	}
	if err := r.buildDocidIndex(); err != nil {
		return nil, err
	}

	ok = true
	return r, nil
}

func (r *Reader) Close() error {
	var firstErr error
	for _, m := range []*mappedFile{r.attrs, r.wordlist, r.doclist, r.hitlist, r.mva} {
		if m == nil {
			continue
		}
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.lock != nil {
		if err := r.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Reader) loadKilllist(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	n := len(data) / 8
	r.kill = make([]uint64, n)
	for i := 0; i < n; i++ {
		r.kill[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return nil
}

// Killlist returns the sorted docid array used to suppress matches from
// earlier shards (§3, §4.E).
func (r *Reader) Killlist() []uint64 { return r.kill }

// IsKilled reports whether id appears in this index's killlist.
func (r *Reader) IsKilled(id uint64) bool {
	i := sort.Search(len(r.kill), func(i int) bool { return r.kill[i] >= id })
	return i < len(r.kill) && r.kill[i] == id
}

func (r *Reader) loadCheckpoints() error {
	if r.wordlist.data == nil {
		return nil
	}
	r.checkpoints, _ = segfmt.ReadCheckpointsAt(r.wordlist.data)
	return nil
}

// buildDocidIndex scans .spa once to record where each docid's row
// starts, supporting binary search in RowOf (Extern docinfo mode, §4.E).
func (r *Reader) buildDocidIndex() error {
	if r.Header.Docinfo != segfmt.DocinfoExtern || r.Schema.RowWords == 0 || r.attrs.data == nil {
		return nil
	}
	rowBytes := r.Schema.RowWords*4 + 8 // 8-byte docid before each row
	n := len(r.attrs.data) / rowBytes
	r.docidIndex = make([]uint64, n)
	for i := 0; i < n; i++ {
		off := i * rowBytes
		r.docidIndex[i] = binary.LittleEndian.Uint64(r.attrs.data[off : off+8])
	}
	return nil
}

// RowOf returns the packed attribute row for docID via binary search on
// the sorted docid column in .spa (§4.E).
func (r *Reader) RowOf(docID uint64) (binio.PackedRow, bool) {
	if r.Header.Docinfo != segfmt.DocinfoExtern {
		return nil, false
	}
	i := sort.Search(len(r.docidIndex), func(i int) bool { return r.docidIndex[i] >= docID })
	if i >= len(r.docidIndex) || r.docidIndex[i] != docID {
		return nil, false
	}
	rowBytes := r.Schema.RowWords*4 + 8
	off := i*rowBytes + 8
	words := make([]uint32, r.Schema.RowWords)
	for w := 0; w < r.Schema.RowWords; w++ {
		words[w] = binary.LittleEndian.Uint32(r.attrs.data[off+w*4:])
	}
	return binio.PackedRow(words), true
}

// MvaValues resolves a PackedRow's stored pool offset for an MVA attribute
// into its concrete []uint32 set (§3: "the row holds a 32-bit offset into
// that pool").
func (r *Reader) MvaValues(row binio.PackedRow, loc binio.Locator) []uint32 {
	off := uint32(row.Get(loc))
	return segfmt.ReadMvaGroupAt(r.mva.data, off).Values
}

// UpdateAttr mutates a numeric attribute in place and bumps UpdateTag,
// exactly the §4.E/§6.5 update+flush contract: "given (doc_id, loc, value)
// mutate the mapped row and set update_tag".
func (r *Reader) UpdateAttr(docID uint64, loc binio.Locator, value uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.RowOf(docID)
	if !ok {
		return fmt.Errorf("index: doc %d not found", docID)
	}
	row.Set(loc, value)
	i := sort.Search(len(r.docidIndex), func(i int) bool { return r.docidIndex[i] >= docID })
	off := i*(r.Schema.RowWords*4+8) + 8
	for w, v := range row {
		binary.LittleEndian.PutUint32(r.attrs.data[off+w*4:], v)
	}
	atomic.AddInt64(&r.updateTag, 1)
	return nil
}

// UpdateTag / FlushTag support the periodic flusher's "update_tag >
// flush_tag" dirtiness check (§3, §6.5).
func (r *Reader) UpdateTag() int64 { return atomic.LoadInt64(&r.updateTag) }
func (r *Reader) FlushTag() int64  { return atomic.LoadInt64(&r.flushTag) }

// SaveAttributes persists the in-memory .spa mapping to disk and advances
// FlushTag to the UpdateTag value observed at call time, the periodic
// flusher's job per §3/§6.5.
func (r *Reader) SaveAttributes() error {
	r.mu.Lock()
	tag := atomic.LoadInt64(&r.updateTag)
	err := r.attrs.Sync()
	r.mu.Unlock()
	if err != nil {
		return err
	}
	atomic.StoreInt64(&r.flushTag, tag)
	return nil
}

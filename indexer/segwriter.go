package indexer

import (
	"bufio"
	"bytes"
	"os"
	"sort"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/segfmt"
)

// countingFile buffers writes to an *os.File and tracks how many bytes have
// passed through it, so the segment writer can record each word's starting
// offset into .spd/.spp without a second pass over the file.
type countingFile struct {
	bw *bufio.Writer
	n  uint64
}

func newCountingFile(f *os.File) *countingFile {
	return &countingFile{bw: bufio.NewWriter(f)}
}

func (c *countingFile) WriteByte(b byte) error {
	if err := c.bw.WriteByte(b); err != nil {
		return err
	}
	c.n++
	return nil
}

func (c *countingFile) Write(p []byte) (int, error) {
	n, err := c.bw.Write(p)
	c.n += uint64(n)
	return n, err
}

func (c *countingFile) Flush() error { return c.bw.Flush() }

// writePostings drains the merged, globally (wordid, docid, pos)-ordered hit
// stream next() produces and emits the three posting files: .spp (hitlists),
// .spd (doclists) and .spi (dictionary + checkpoints), per §4.D/§6.1.
func writePostings(prefix string, next func() (Hit, bool)) error {
	spdFile, err := os.Create(prefix + segfmt.ExtDoclist)
	if err != nil {
		return err
	}
	defer spdFile.Close()
	sppFile, err := os.Create(prefix + segfmt.ExtHitlist)
	if err != nil {
		return err
	}
	defer sppFile.Close()

	spd := newCountingFile(spdFile)
	spp := newCountingFile(sppFile)

	var wordBody bytes.Buffer
	var checkpoints []segfmt.Checkpoint
	var wordIndex int
	var prevWordID uint64

	pending, havePending := next()
	for havePending {
		wordID := pending.WordID
		var hits []Hit
		for havePending && pending.WordID == wordID {
			hits = append(hits, pending)
			pending, havePending = next()
		}

		docCount, hitCount, doclistOffset, err := writeWordPostings(spd, spp, hits)
		if err != nil {
			return err
		}

		if wordIndex%CheckpointInterval == 0 {
			checkpoints = append(checkpoints, segfmt.Checkpoint{WordID: wordID, FileOffset: uint64(wordBody.Len())})
			if err := segfmt.WriteWordlistEntry(&wordBody, segfmt.WordlistEntry{
				WordID: wordID, DocCount: docCount, HitCount: hitCount, DoclistOffset: doclistOffset,
			}); err != nil {
				return err
			}
		} else {
			if err := segfmt.WriteWordlistEntry(&wordBody, segfmt.WordlistEntry{
				WordID: wordID - prevWordID, DocCount: docCount, HitCount: hitCount, DoclistOffset: doclistOffset,
			}); err != nil {
				return err
			}
		}
		prevWordID = wordID
		wordIndex++
	}
	if err := spd.Flush(); err != nil {
		return err
	}
	if err := spp.Flush(); err != nil {
		return err
	}

	spiFile, err := os.Create(prefix + segfmt.ExtWordlist)
	if err != nil {
		return err
	}
	defer spiFile.Close()

	dirSize := segfmt.CheckpointDirSize(len(checkpoints))
	shifted := make([]segfmt.Checkpoint, len(checkpoints))
	for i, c := range checkpoints {
		shifted[i] = segfmt.Checkpoint{WordID: c.WordID, FileOffset: c.FileOffset + uint64(dirSize)}
	}
	if err := segfmt.WriteCheckpoints(spiFile, shifted); err != nil {
		return err
	}
	if _, err := spiFile.Write(wordBody.Bytes()); err != nil {
		return err
	}
	return nil
}

// writeWordPostings writes one word's doclist entry (into spd) and hit runs
// (into spp), returning the stats its WordlistEntry needs plus the absolute
// .spd offset its doclist starts at.
func writeWordPostings(spd, spp *countingFile, hits []Hit) (docCount, hitCount, doclistOffset uint64, err error) {
	doclistOffset = spd.n

	byDoc := groupByDoc(hits)
	var lastDoc uint64
	for i, doc := range byDoc {
		hitOffset := spp.n
		var fieldMask uint32
		var docHitCount uint64

		fields := make([]uint8, 0, len(doc.byField))
		for f := range doc.byField {
			fields = append(fields, f)
		}
		sort.Slice(fields, func(a, b int) bool { return fields[a] < fields[b] })

		for _, f := range fields {
			fieldMask |= 1 << uint(f)
			positions := doc.byField[f]
			sort.Slice(positions, func(a, b int) bool { return positions[a] < positions[b] })
			var lastPos uint32
			for pi, pos := range positions {
				delta := pos - lastPos
				terminator := pi == len(positions)-1
				v := segfmt.EncodeHit(delta, f, terminator)
				if werr := binio.PutUvarint(spp, v); werr != nil {
					return 0, 0, 0, werr
				}
				lastPos = pos
				docHitCount++
			}
		}

		var docIDField uint64
		if i == 0 {
			docIDField = doc.docID
		} else {
			docIDField = doc.docID - lastDoc
		}
		lastDoc = doc.docID

		if werr := segfmt.WriteDoclistEntry(spd, segfmt.DoclistEntry{
			DocID: docIDField, HitCount: docHitCount, HitOffset: hitOffset, FieldMask: fieldMask,
		}); werr != nil {
			return 0, 0, 0, werr
		}
		hitCount += docHitCount
	}
	docCount = uint64(len(byDoc))
	return docCount, hitCount, doclistOffset, nil
}

type docGroup struct {
	docID   uint64
	byField map[uint8][]uint32
}

// groupByDoc buckets one word's hits by docid (already ascending, since the
// merge sorts by (wordid, docid, pos)) and then by field, since positions
// within a field must be delta-encoded independently of other fields.
func groupByDoc(hits []Hit) []docGroup {
	var out []docGroup
	var cur *docGroup
	for _, h := range hits {
		if cur == nil || cur.docID != h.DocID {
			out = append(out, docGroup{docID: h.DocID, byField: map[uint8][]uint32{}})
			cur = &out[len(out)-1]
		}
		cur.byField[h.Field] = append(cur.byField[h.Field], h.Pos)
	}
	return out
}

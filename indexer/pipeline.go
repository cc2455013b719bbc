package indexer

import (
	"fmt"
	"os"
	"sort"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/schema"
	"github.com/mrold/sphinxgo/segfmt"
	"github.com/mrold/sphinxgo/tokenizer"
)

// CheckpointInterval is how often a dictionary checkpoint is emitted to
// .spi, "every K words (configurable ~1024)" per §4.D.
const CheckpointInterval = 1024

// Config configures one BuildIndex invocation.
type Config struct {
	Schema    schema.Schema
	Tokenizer tokenizer.Tokenizer
	Dict      dict.Dict
	MemLimit  int
	Docinfo   segfmt.DocinfoMode
	Progress  ProgressFunc
	TempDir   string
}

// Pipeline builds one index per invocation from a list of sources (§4.D).
type Pipeline struct {
	cfg Config
}

func New(cfg Config) *Pipeline {
	if cfg.Progress == nil {
		cfg.Progress = func(Phase, PhaseStats) {}
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Pipeline{cfg: cfg}
}

type docAttrRow struct {
	docID uint64
	words []uint32
}

// BuildIndex runs the full §4.D pipeline for one source and writes the
// seven segment files at prefix. Per-source failures abort only this
// index's build (§4.D "Failure semantics"); the caller (cmd/indexer) is
// responsible for moving on to the next configured index.
func (p *Pipeline) BuildIndex(prefix string, source DocumentSource) (err error) {
	if err := source.Connect(); err != nil {
		return fmt.Errorf("indexer: connect: %w", err)
	}

	arena := newHitArena(p.cfg.MemLimit, p.cfg.TempDir)
	defer func() {
		if err != nil {
			for _, r := range arena.runs {
				r.close()
			}
		}
	}()

	var minDocID uint64 = ^uint64(0)
	var totalDocs uint64
	var totalBytes uint64

	type rawMva struct {
		docID uint64
		attr  string
		vals  []uint32
	}
	type ordinalValue struct {
		docID uint64
		attr  string
		val   string
	}

	attrRows := map[uint64]map[string]any{}
	var mvas []rawMva
	var ordinals []ordinalValue
	var docOrder []uint64

	p.cfg.Progress(PhaseCollectDocs, PhaseStats{})
	for {
		doc, ok, nerr := source.Next()
		if nerr != nil {
			return fmt.Errorf("indexer: source error: %w", nerr)
		}
		if !ok {
			break
		}
		if doc.ID < minDocID {
			minDocID = doc.ID
		}
		totalDocs++
		docOrder = append(docOrder, doc.ID)
		attrRows[doc.ID] = doc.Attrs

		for fi, field := range doc.Fields {
			if fi >= len(p.cfg.Schema.Fields) {
				break
			}
			totalBytes += uint64(len(field))
			p.cfg.Tokenizer.SetBuffer([]byte(field))
			var pos uint32
			for {
				tok, tok_ok := p.cfg.Tokenizer.Next()
				if !tok_ok {
					break
				}
				pos++
				wid := p.cfg.Dict.WordID(tok)
				if wid == 0 {
					continue
				}
				if herr := arena.add(Hit{WordID: wid, DocID: doc.ID, Field: uint8(fi), Pos: pos}); herr != nil {
					return fmt.Errorf("indexer: spilling hits: %w", herr)
				}
			}
		}

		for _, attr := range p.cfg.Schema.Attrs {
			v, present := doc.Attrs[attr.Name]
			if !present {
				continue
			}
			switch attr.Type {
			case schema.AttrMva:
				mvas = append(mvas, rawMva{docID: doc.ID, attr: attr.Name, vals: toUint32Slice(v)})
			case schema.AttrOrdinal:
				ordinals = append(ordinals, ordinalValue{docID: doc.ID, attr: attr.Name, val: toStringValue(v)})
			}
		}
	}
	if len(arena.runs) > 0 {
		p.cfg.Progress(PhaseSortHits, PhaseStats{Hits: len(arena.hits)})
	}
	if totalDocs == 0 {
		minDocID = 0
	}

	p.cfg.Progress(PhaseCollectMva, PhaseStats{Docs: len(mvas)})
	ranks := computeOrdinalRanks(ordinals)

	sort.Slice(mvas, func(i, j int) bool { return mvas[i].docID < mvas[j].docID })
	p.cfg.Progress(PhaseSortMva, PhaseStats{})
	for i := range mvas {
		sort.Slice(mvas[i].vals, func(a, b int) bool { return mvas[i].vals[a] < mvas[i].vals[b] })
	}

	// Build .spm pool and remember each (docid, attr) -> pool offset.
	mvaFile, err := os.Create(prefix + segfmt.ExtMva)
	if err != nil {
		return err
	}
	defer mvaFile.Close()
	mvaOffsets := map[uint64]map[string]uint32{}
	var mvaCursor uint32
	for _, m := range mvas {
		if err := segfmt.WriteMvaGroup(mvaFile, segfmt.MvaGroup{Values: m.vals}); err != nil {
			return err
		}
		if mvaOffsets[m.docID] == nil {
			mvaOffsets[m.docID] = map[string]uint32{}
		}
		mvaOffsets[m.docID][m.attr] = mvaCursor
		mvaCursor += 4 + uint32(len(m.vals))*4
	}

	// Build packed rows for .spa, sorted ascending by docid (Extern mode).
	sort.Slice(docOrder, func(i, j int) bool { return docOrder[i] < docOrder[j] })
	rows := make([]docAttrRow, 0, len(docOrder))
	for _, id := range docOrder {
		row := make([]uint32, p.cfg.Schema.RowWords)
		pr := binio.PackedRow(row)
		for _, attr := range p.cfg.Schema.Attrs {
			switch attr.Type {
			case schema.AttrMva:
				if off, ok := mvaOffsets[id][attr.Name]; ok {
					pr.Set(attr.Loc, uint64(off))
				}
			case schema.AttrOrdinal:
				if rank, ok := ranks[rankKey{docID: id, attr: attr.Name}]; ok {
					pr.Set(attr.Loc, uint64(rank))
				}
			case schema.AttrFloat32:
				if v, present := attrRows[id][attr.Name]; present {
					pr.SetFloat32(attr.Loc, toFloat32Value(v))
				}
			default:
				if v, present := attrRows[id][attr.Name]; present {
					pr.Set(attr.Loc, toUint64Value(v))
				}
			}
		}
		rows = append(rows, docAttrRow{docID: id, words: row})
	}
	if err := writeSpa(prefix+segfmt.ExtAttrs, rows); err != nil {
		return err
	}

	if err := writeKilllist(prefix+segfmt.ExtKilllist, source); err != nil {
		return err
	}

	p.cfg.Progress(PhaseMerge, PhaseStats{})
	next := arena.finish()
	if err := writePostings(prefix, next); err != nil {
		return err
	}

	schemaBlob, err := schema.Encode(p.cfg.Schema)
	if err != nil {
		return err
	}
	hdr := segfmt.Header{
		Magic:          segfmt.Magic,
		FormatVersion:  segfmt.FormatVersion,
		Docinfo:        p.cfg.Docinfo,
		SchemaHash:     p.cfg.Schema.Hash(),
		MinDocID:       minDocID,
		TotalDocuments: totalDocs,
		TotalBytes:     totalBytes,
		DictSize:       0,
		SchemaBlob:     schemaBlob,
	}
	hf, err := os.Create(prefix + segfmt.ExtHeader)
	if err != nil {
		return err
	}
	defer hf.Close()
	return segfmt.WriteHeader(hf, hdr)
}

func writeSpa(path string, rows []docAttrRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, r := range rows {
		var idBuf [8]byte
		putLE64(idBuf[:], r.docID)
		if _, err := f.Write(idBuf[:]); err != nil {
			return err
		}
		for _, w := range r.words {
			var wb [4]byte
			putLE32(wb[:], w)
			if _, err := f.Write(wb[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeKilllist(path string, source DocumentSource) error {
	kills, err := source.Kills()
	if err != nil {
		return err
	}
	sort.Slice(kills, func(i, j int) bool { return kills[i] < kills[j] })
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, id := range kills {
		var buf [8]byte
		putLE64(buf[:], id)
		if _, err := f.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putLE32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

type rankKey struct {
	docID uint64
	attr  string
}

// computeOrdinalRanks materializes the Ordinal attribute kind (§3: "string
// materialized as dense rank"): sort each attribute's distinct string
// values and map them to 0-based ranks.
func computeOrdinalRanks(values []struct {
	docID uint64
	attr  string
	val   string
}) map[rankKey]uint32 {
	byAttr := map[string][]string{}
	for _, v := range values {
		byAttr[v.attr] = append(byAttr[v.attr], v.val)
	}
	rankOf := map[string]map[string]uint32{}
	for attr, vals := range byAttr {
		uniq := map[string]bool{}
		for _, v := range vals {
			uniq[v] = true
		}
		sorted := make([]string, 0, len(uniq))
		for v := range uniq {
			sorted = append(sorted, v)
		}
		sort.Strings(sorted)
		m := map[string]uint32{}
		for i, v := range sorted {
			m[v] = uint32(i)
		}
		rankOf[attr] = m
	}
	out := map[rankKey]uint32{}
	for _, v := range values {
		out[rankKey{docID: v.docID, attr: v.attr}] = rankOf[v.attr][v.val]
	}
	return out
}

func toUint64Value(v any) uint64 {
	switch x := v.(type) {
	case int:
		return uint64(x)
	case int32:
		return uint64(x)
	case int64:
		return uint64(x)
	case uint:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toFloat32Value(v any) float32 {
	switch x := v.(type) {
	case float32:
		return x
	case float64:
		return float32(x)
	default:
		return 0
	}
}

func toStringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toUint32Slice(v any) []uint32 {
	switch x := v.(type) {
	case []uint32:
		return x
	case []int:
		out := make([]uint32, len(x))
		for i, n := range x {
			out[i] = uint32(n)
		}
		return out
	default:
		return nil
	}
}

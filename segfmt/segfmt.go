// Package segfmt is the shared on-disk segment format (§3, §6.1): the
// seven little-endian files sharing a path prefix. It owns the byte-level
// encode/decode routines so indexer (the writer) and index (the mmap
// reader) never drift out of sync on the wire format, the way the teacher
// keeps schema.DDL construction and database execution in separate
// packages that share only the AST types.
package segfmt

import "fmt"

// Extensions are the seven file suffixes a segment is split across (§3).
const (
	ExtHeader   = ".sph"
	ExtAttrs    = ".spa"
	ExtWordlist = ".spi"
	ExtDoclist  = ".spd"
	ExtHitlist  = ".spp"
	ExtMva      = ".spm"
	ExtKilllist = ".spk"
)

// Magic and FormatVersion identify a valid .sph header (§4.E: "Validate
// the header: magic, format version, schema hash, ...").
const (
	Magic         uint32 = 0x58484853 // bytes "SHHX" little-endian, a stand-in for "SPHX"
	FormatVersion uint32 = 1
)

// DocinfoMode controls whether attribute rows live in .spa (Extern) or are
// inlined ahead of each doclist entry in .spd (Inline), per §3/§6.1.
type DocinfoMode int

const (
	DocinfoNone DocinfoMode = iota
	DocinfoInline
	DocinfoExtern
)

// Header mirrors the .sph layout from §6.1. SchemaBlob/SettingsBlob are the
// serialized schema.Schema and dict settings; segfmt doesn't parse them to
// avoid an import cycle with schema/dict, it just frames the bytes.
type Header struct {
	Magic           uint32
	FormatVersion   uint32
	Docinfo         DocinfoMode
	SchemaHash      uint64
	Ids64           bool
	MinDocID        uint64
	TotalDocuments  uint64
	TotalBytes      uint64
	DictSize        uint64
	SchemaBlob      []byte
	SettingsBlob    []byte
}

// Validate checks the invariants §4.E requires before an index is trusted.
func (h Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("segfmt: bad magic 0x%x", h.Magic)
	}
	if h.FormatVersion != FormatVersion {
		return fmt.Errorf("segfmt: unsupported format version %d", h.FormatVersion)
	}
	return nil
}

// Checkpoint is a sparse dictionary entry (§4.D, §6.1) enabling bisection
// into .spi before a linear scan of the block it opens.
type Checkpoint struct {
	WordID     uint64
	FileOffset uint64
}

// WordlistEntry is one dictionary row following a checkpoint's block:
// (word_id, doc_count, hit_count, doclist_offset). word_id is absolute for
// the first entry of a block and a delta from the previous word otherwise;
// doclist_offset is always the absolute .spd offset, not a delta.
type WordlistEntry struct {
	WordID        uint64
	DocCount      uint64
	HitCount      uint64
	DoclistOffset uint64
}

// DoclistEntry is one per-word posting in .spd: {doc_id delta, hit_count,
// hit_offset, field_mask}; hit_offset is the absolute .spp offset, not a
// delta.
type DoclistEntry struct {
	DocID      uint64
	HitCount   uint64
	HitOffset  uint64
	FieldMask  uint32
}

// HitRecord is one entry in .spp: a position within a field. Terminator
// marks the last hit of that field within that document, letting the
// scorer detect field-end without rereading the header (§3).
type HitRecord struct {
	Field      uint8
	Pos        uint32
	Terminator bool
}

// EncodeHit packs a HitRecord the way §4.D describes: "delta-encoded
// within a doc, field bits in the low bits per the packed encoding".
// posDelta is the position delta from the previous hit *in the same
// field*, or the absolute position for the field's first hit.
func EncodeHit(posDelta uint32, field uint8, terminator bool) uint64 {
	v := uint64(posDelta) << 6
	v |= uint64(field&0x1f) << 1
	if terminator {
		v |= 1
	}
	return v
}

// DecodeHit is the inverse of EncodeHit.
func DecodeHit(v uint64) (posDelta uint32, field uint8, terminator bool) {
	terminator = v&1 != 0
	field = uint8((v >> 1) & 0x1f)
	posDelta = uint32(v >> 6)
	return
}

// MvaGroup is one document's MVA value set for one MVA attribute: the
// concatenated "(count, u32 values...)" array format from §6.1.
type MvaGroup struct {
	Values []uint32
}

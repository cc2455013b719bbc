package segfmt

import (
	"encoding/binary"
	"io"

	"github.com/mrold/sphinxgo/binio"
)

// WriteHeader serializes h to w in the .sph layout from §6.1.
func WriteHeader(w io.Writer, h Header) error {
	var fixed [6]uint64
	fixed[0] = uint64(h.Magic)
	fixed[1] = uint64(h.FormatVersion)
	fixed[2] = uint64(h.Docinfo)
	fixed[3] = h.SchemaHash
	fixed[4] = h.MinDocID
	fixed[5] = h.TotalDocuments
	for _, v := range fixed {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, h.TotalBytes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.DictSize); err != nil {
		return err
	}
	ids64 := uint8(0)
	if h.Ids64 {
		ids64 = 1
	}
	if err := binary.Write(w, binary.LittleEndian, ids64); err != nil {
		return err
	}
	if err := binio.WriteSphinxString(w, string(h.SchemaBlob)); err != nil {
		return err
	}
	return binio.WriteSphinxString(w, string(h.SettingsBlob))
}

// ReadHeader is the decode side of WriteHeader.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	var fixed [6]uint64
	for i := range fixed {
		if err := binary.Read(r, binary.LittleEndian, &fixed[i]); err != nil {
			return h, err
		}
	}
	h.Magic = uint32(fixed[0])
	h.FormatVersion = uint32(fixed[1])
	h.Docinfo = DocinfoMode(fixed[2])
	h.SchemaHash = fixed[3]
	h.MinDocID = fixed[4]
	h.TotalDocuments = fixed[5]
	if err := binary.Read(r, binary.LittleEndian, &h.TotalBytes); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.DictSize); err != nil {
		return h, err
	}
	var ids64 uint8
	if err := binary.Read(r, binary.LittleEndian, &ids64); err != nil {
		return h, err
	}
	h.Ids64 = ids64 != 0
	schemaBlob, err := binio.ReadSphinxString(r)
	if err != nil {
		return h, err
	}
	h.SchemaBlob = []byte(schemaBlob)
	settingsBlob, err := binio.ReadSphinxString(r)
	if err != nil {
		return h, err
	}
	h.SettingsBlob = []byte(settingsBlob)
	return h, nil
}

// WriteDoclistEntry appends one posting to the .spd stream using the
// variable-byte codec from §4.A.
func WriteDoclistEntry(w io.ByteWriter, e DoclistEntry) error {
	if err := binio.PutUvarint(w, e.DocID); err != nil {
		return err
	}
	if err := binio.PutUvarint(w, e.HitCount); err != nil {
		return err
	}
	if err := binio.PutUvarint(w, e.HitOffset); err != nil {
		return err
	}
	return binio.PutUvarint(w, uint64(e.FieldMask))
}

// ReadDoclistEntry is the decode side of WriteDoclistEntry.
func ReadDoclistEntry(r io.ByteReader) (DoclistEntry, error) {
	var e DoclistEntry
	var err error
	if e.DocID, err = binio.ReadUvarint(r); err != nil {
		return e, err
	}
	if e.HitCount, err = binio.ReadUvarint(r); err != nil {
		return e, err
	}
	if e.HitOffset, err = binio.ReadUvarint(r); err != nil {
		return e, err
	}
	fm, err := binio.ReadUvarint(r)
	if err != nil {
		return e, err
	}
	e.FieldMask = uint32(fm)
	return e, nil
}

// WriteWordlistEntry appends one dictionary row to .spi.
func WriteWordlistEntry(w io.ByteWriter, e WordlistEntry) error {
	if err := binio.PutUvarint(w, e.WordID); err != nil {
		return err
	}
	if err := binio.PutUvarint(w, e.DocCount); err != nil {
		return err
	}
	if err := binio.PutUvarint(w, e.HitCount); err != nil {
		return err
	}
	return binio.PutUvarint(w, e.DoclistOffset)
}

func ReadWordlistEntry(r io.ByteReader) (WordlistEntry, error) {
	var e WordlistEntry
	var err error
	if e.WordID, err = binio.ReadUvarint(r); err != nil {
		return e, err
	}
	if e.DocCount, err = binio.ReadUvarint(r); err != nil {
		return e, err
	}
	if e.HitCount, err = binio.ReadUvarint(r); err != nil {
		return e, err
	}
	e.DoclistOffset, err = binio.ReadUvarint(r)
	return e, err
}

// WriteCheckpoints writes the .spi checkpoint directory: a fixed-width
// table so its own length doesn't depend on the magnitude of the offsets it
// stores (those offsets point past the directory itself, so a size that
// varied with value would be self-referential). The word blocks the
// directory points into follow immediately after, varint-delta-encoded as
// WriteWordlistEntry produces them.
func WriteCheckpoints(w io.Writer, cps []Checkpoint) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(cps))); err != nil {
		return err
	}
	for _, c := range cps {
		if err := binary.Write(w, binary.LittleEndian, c.WordID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, c.FileOffset); err != nil {
			return err
		}
	}
	return nil
}

// CheckpointDirSize is the byte length WriteCheckpoints produces for n
// checkpoints, needed by the segment writer to resolve word-block offsets
// before the directory's own offsets can be finalized.
func CheckpointDirSize(n int) int { return 4 + n*16 }

// ReadCheckpointsAt decodes the fixed-width directory starting at the
// beginning of buf (the mmap'd .spi file), returning the checkpoints and the
// byte length of the directory itself.
func ReadCheckpointsAt(buf []byte) ([]Checkpoint, int) {
	if len(buf) < 4 {
		return nil, 0
	}
	n := int(binary.LittleEndian.Uint32(buf))
	out := make([]Checkpoint, n)
	p := 4
	for i := 0; i < n; i++ {
		if p+16 > len(buf) {
			return out[:i], p
		}
		out[i] = Checkpoint{
			WordID:     binary.LittleEndian.Uint64(buf[p:]),
			FileOffset: binary.LittleEndian.Uint64(buf[p+8:]),
		}
		p += 16
	}
	return out, p
}

// WriteMvaGroup appends "(count, u32 values...)" to .spm.
func WriteMvaGroup(w io.Writer, g MvaGroup) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(g.Values))); err != nil {
		return err
	}
	for _, v := range g.Values {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadMvaGroupAt decodes one "(count, values...)" array starting at byte
// offset off within buf, the mmap'd .spm file.
func ReadMvaGroupAt(buf []byte, off uint32) MvaGroup {
	if int(off)+4 > len(buf) {
		return MvaGroup{}
	}
	count := binary.LittleEndian.Uint32(buf[off : off+4])
	values := make([]uint32, count)
	p := off + 4
	for i := uint32(0); i < count; i++ {
		values[i] = binary.LittleEndian.Uint32(buf[p : p+4])
		p += 4
	}
	return MvaGroup{Values: values}
}

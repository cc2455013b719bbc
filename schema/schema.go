// Package schema implements §4.B: field and attribute layout, the packed
// document row, and the Match type matches flow through the scorer and
// sorters as.
package schema

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/mrold/sphinxgo/binio"
)

// AttrType enumerates the attribute kinds from §3.
type AttrType int

const (
	AttrInt32 AttrType = iota
	AttrInt64
	AttrBool
	AttrTimestamp
	AttrFloat32
	AttrOrdinal
	AttrMva
)

func (t AttrType) String() string {
	switch t {
	case AttrInt32:
		return "int32"
	case AttrInt64:
		return "bigint"
	case AttrBool:
		return "bool"
	case AttrTimestamp:
		return "timestamp"
	case AttrFloat32:
		return "float"
	case AttrOrdinal:
		return "ordinal"
	case AttrMva:
		return "mva"
	default:
		return "unknown"
	}
}

func bitWidthFor(t AttrType) int {
	switch t {
	case AttrBool:
		return 1
	case AttrInt64, AttrTimestamp:
		return 64
	default:
		// Int32, Float32, Ordinal (dense rank) and Mva (pool offset) all
		// fit one 32-bit rowitem.
		return 32
	}
}

// Field is one of the up to 32 text fields a document can have. The 32-bit
// field mask is a hard design invariant relied on by query and scorer.
type Field struct {
	Name string
}

// Attr is one typed, named, bit-packed attribute plus its Locator within
// the row.
type Attr struct {
	Name string
	Type AttrType
	Loc  binio.Locator
}

// Schema is the ordered field list + ordered attribute list that Finalize
// turns into concrete bit layouts. Both lists must use unique,
// case-insensitive names (§3).
type Schema struct {
	Fields    []Field
	Attrs     []Attr
	RowWords  int
	finalized bool
}

const maxFields = 32

// AddField appends a text field. Build is append-only until Finalize.
func (s *Schema) AddField(name string) error {
	if s.finalized {
		return fmt.Errorf("schema: cannot add field %q after Finalize", name)
	}
	if len(s.Fields) >= maxFields {
		return fmt.Errorf("schema: field mask is 32 bits wide, cannot add field %q", name)
	}
	if s.hasName(name) {
		return fmt.Errorf("schema: duplicate name %q", name)
	}
	s.Fields = append(s.Fields, Field{Name: strings.ToLower(name)})
	return nil
}

// AddAttr appends a typed attribute. Its Locator is computed in Finalize.
func (s *Schema) AddAttr(name string, t AttrType) error {
	if s.finalized {
		return fmt.Errorf("schema: cannot add attribute %q after Finalize", name)
	}
	if s.hasName(name) {
		return fmt.Errorf("schema: duplicate name %q", name)
	}
	s.Attrs = append(s.Attrs, Attr{Name: strings.ToLower(name), Type: t})
	return nil
}

func (s *Schema) hasName(name string) bool {
	lname := strings.ToLower(name)
	for _, f := range s.Fields {
		if f.Name == lname {
			return true
		}
	}
	for _, a := range s.Attrs {
		if a.Name == lname {
			return true
		}
	}
	return false
}

// Finalize computes each attribute's Locator and the row width in 32-bit
// words, identical for every match within one index (§3). Attributes wider
// than 32 bits always start at a word boundary (the "own rowitem word"
// invariant from §3); narrow attributes are packed tightly to save space,
// as the original format does.
func (s *Schema) Finalize() error {
	if s.finalized {
		return nil
	}
	bitCursor := 0
	for i := range s.Attrs {
		width := bitWidthFor(s.Attrs[i].Type)
		if width > 32 {
			// align to a word boundary
			if bitCursor%32 != 0 {
				bitCursor += 32 - bitCursor%32
			}
		}
		s.Attrs[i].Loc = binio.Locator{BitOffset: bitCursor, BitWidth: width}
		bitCursor += width
	}
	s.RowWords = (bitCursor + 31) / 32
	s.finalized = true
	return nil
}

// FieldMask returns a 32-bit mask with bits set for each named field, and
// an error listing any name not present unless relaxed is true, in which
// case unknown names are silently skipped — the `@@relaxed` behavior from
// §4.F applied at the layer that resolves field names to bits.
func (s Schema) FieldMask(names []string, relaxed bool) (uint32, error) {
	var mask uint32
	var unknown []string
	for _, n := range names {
		ln := strings.ToLower(n)
		found := false
		for i, f := range s.Fields {
			if f.Name == ln {
				mask |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 && !relaxed {
		return mask, fmt.Errorf("schema: unknown field(s): %s", strings.Join(unknown, ", "))
	}
	return mask, nil
}

// AllFieldsMask is the wildcard `@*` mask: every defined field set.
func (s Schema) AllFieldsMask() uint32 {
	if len(s.Fields) == 0 {
		return 0
	}
	return uint32(1)<<uint(len(s.Fields)) - 1
}

// AttrByName looks up an attribute case-insensitively.
func (s Schema) AttrByName(name string) (Attr, bool) {
	ln := strings.ToLower(name)
	for _, a := range s.Attrs {
		if a.Name == ln {
			return a, true
		}
	}
	return Attr{}, false
}

// Hash is an FNV-1a digest over the finalized field/attribute list, stored
// in the .sph header and checked against the schema used to compile a
// query plan when an index is reopened after rotation (§4.E).
func (s Schema) Hash() uint64 {
	h := fnv.New64a()
	for _, f := range s.Fields {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
	}
	for _, a := range s.Attrs {
		h.Write([]byte(a.Name))
		h.Write([]byte{byte(a.Type)})
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// MinimizeCommon returns the schema containing only fields and attributes
// present (by name and type) in both a and b, re-finalized. Used by the
// distributed merge step (§4.K) to reconcile shards whose schemas may
// differ slightly.
func MinimizeCommon(a, b Schema) (Schema, error) {
	var out Schema
	bFields := map[string]bool{}
	for _, f := range b.Fields {
		bFields[f.Name] = true
	}
	for _, f := range a.Fields {
		if bFields[f.Name] {
			if err := out.AddField(f.Name); err != nil {
				return Schema{}, err
			}
		}
	}
	bAttrs := map[string]Attr{}
	for _, at := range b.Attrs {
		bAttrs[at.Name] = at
	}
	for _, at := range a.Attrs {
		if other, ok := bAttrs[at.Name]; ok && other.Type == at.Type {
			if err := out.AddAttr(at.Name, at.Type); err != nil {
				return Schema{}, err
			}
		}
	}
	return out, out.Finalize()
}

package scorer

import (
	"github.com/mrold/sphinxgo/index"
	"github.com/mrold/sphinxgo/schema"
)

// FilterKind is one of the filter shapes §4.G lists.
type FilterKind int

const (
	FilterValues FilterKind = iota
	FilterRange
	FilterMvaValues
	FilterFloatRange
)

// Filter is one post-scoring predicate applied before a match reaches the
// sort queue (§4.G). Exclude inverts the predicate ("not-in" / outside the
// range).
type Filter struct {
	Attr    string
	Kind    FilterKind
	Values  []uint64 // Values / MvaValues
	Min     uint64   // Range
	Max     uint64   // Range
	FMin    float32  // FloatRange
	FMax    float32  // FloatRange
	Exclude bool
}

// passesFilters reports whether docID's row satisfies every filter. A
// missing attribute (unknown name) is ignored rather than rejecting the
// doc, matching a relaxed/best-effort filter application.
func passesFilters(r *index.Reader, sch schema.Schema, docID uint64, filters []Filter) bool {
	if len(filters) == 0 {
		return true
	}
	row, ok := r.RowOf(docID)
	if !ok {
		return true
	}
	for _, f := range filters {
		attr, ok := sch.AttrByName(f.Attr)
		if !ok {
			continue
		}
		switch f.Kind {
		case FilterValues:
			v := row.Get(attr.Loc)
			if containsU64(f.Values, v) == f.Exclude {
				return false
			}
		case FilterRange:
			v := row.Get(attr.Loc)
			if (v < f.Min || v > f.Max) != f.Exclude {
				return false
			}
		case FilterFloatRange:
			v := row.GetFloat32(attr.Loc)
			if (v < f.FMin || v > f.FMax) != f.Exclude {
				return false
			}
		case FilterMvaValues:
			vals := r.MvaValues(row, attr.Loc)
			match := false
			for _, v := range vals {
				if containsU64(f.Values, uint64(v)) {
					match = true
					break
				}
			}
			if match == f.Exclude {
				return false
			}
		}
	}
	return true
}

func containsU64(s []uint64, v uint64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

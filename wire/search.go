package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/mrold/sphinxgo/binio"
)

// FilterKind mirrors scorer.FilterKind's wire encoding (§6.2's `u32 kind`).
type FilterKind uint32

const (
	FilterValues FilterKind = iota
	FilterRange
	FilterFloatRange
)

// Filter is one wire-decoded filter clause, converted to a scorer.Filter
// by the server once the target index's schema is known (a Locator can
// only be resolved against a specific schema.Schema, which the wire
// layer deliberately has no dependency on).
type Filter struct {
	Name    string
	Kind    FilterKind
	Values  []uint64
	Min     uint64
	Max     uint64
	FMin    float32
	FMax    float32
	Exclude bool
}

// GeoAnchor is the optional geodist() anchor point a query can carry.
type GeoAnchor struct {
	LatAttr, LonAttr string
	Lat, Lon         float32
}

// SearchQuery is one decoded sub-query from a multi-query Search request
// body (§6.2's per-query field list).
type SearchQuery struct {
	Offset, Limit       uint32
	MatchMode           uint32
	Ranker              uint32
	SortMode            uint32
	SortBy              string
	Query               string
	Weights             []uint32
	Indexes             string
	IDBits              uint32
	MinID, MaxID        uint64
	Filters             []Filter
	GroupFunc           uint32
	GroupBy             string
	MaxMatches          uint32
	GroupSort           string
	Cutoff              uint32
	RetryCount          uint32
	RetryDelay          uint32
	GroupDistinct       string
	Geo                 *GeoAnchor
	IndexWeights        map[string]uint32
	MaxQueryMs          uint32
	FieldWeights        map[string]uint32
	Comment             string
	SelectList          string
}

type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) u32() uint32 {
	if r.err != nil || r.pos+4 > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil || r.pos+8 > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	n := r.u32()
	if r.err != nil {
		return ""
	}
	if r.pos+int(n) > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s
}

// DecodeSearchRequest parses a full multi-query Search command body
// (§6.2: "u32 n_queries" followed by one record per query).
func DecodeSearchRequest(body []byte) ([]SearchQuery, error) {
	r := &reader{buf: body}
	n := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	queries := make([]SearchQuery, 0, n)
	for i := uint32(0); i < n; i++ {
		q := SearchQuery{}
		q.Offset = r.u32()
		q.Limit = r.u32()
		q.MatchMode = r.u32()
		q.Ranker = r.u32()
		q.SortMode = r.u32()
		q.SortBy = r.str()
		q.Query = r.str()
		nweights := r.u32()
		q.Weights = make([]uint32, nweights)
		for j := range q.Weights {
			q.Weights[j] = r.u32()
		}
		q.Indexes = r.str()
		q.IDBits = r.u32()
		if q.IDBits == 64 {
			q.MinID, q.MaxID = r.u64(), r.u64()
		} else {
			q.MinID, q.MaxID = uint64(r.u32()), uint64(r.u32())
		}
		nfilters := r.u32()
		q.Filters = make([]Filter, nfilters)
		for j := range q.Filters {
			f := Filter{}
			f.Name = r.str()
			f.Kind = FilterKind(r.u32())
			switch f.Kind {
			case FilterValues:
				nv := r.u32()
				f.Values = make([]uint64, nv)
				for k := range f.Values {
					f.Values[k] = r.u64()
				}
			case FilterRange:
				f.Min, f.Max = r.u64(), r.u64()
			case FilterFloatRange:
				f.FMin, f.FMax = r.f32(), r.f32()
			}
			f.Exclude = r.u32() != 0
			q.Filters[j] = f
		}
		q.GroupFunc = r.u32()
		q.GroupBy = r.str()
		q.MaxMatches = r.u32()
		q.GroupSort = r.str()
		q.Cutoff = r.u32()
		q.RetryCount = r.u32()
		q.RetryDelay = r.u32()
		q.GroupDistinct = r.str()
		if r.u32() != 0 {
			geo := &GeoAnchor{}
			geo.LatAttr = r.str()
			geo.LonAttr = r.str()
			geo.Lat = r.f32()
			geo.Lon = r.f32()
			q.Geo = geo
		}
		nIdxWeights := r.u32()
		q.IndexWeights = make(map[string]uint32, nIdxWeights)
		for j := uint32(0); j < nIdxWeights; j++ {
			name := r.str()
			q.IndexWeights[name] = r.u32()
		}
		q.MaxQueryMs = r.u32()
		nFieldWeights := r.u32()
		q.FieldWeights = make(map[string]uint32, nFieldWeights)
		for j := uint32(0); j < nFieldWeights; j++ {
			name := r.str()
			q.FieldWeights[name] = r.u32()
		}
		q.Comment = r.str()
		// Attribute-value overrides (§6.2 `n_overrides, (override)*`) are
		// accepted on the wire but not acted on: per-query attribute
		// override is an update-in-flight feature with no analogue in
		// this segment format's read-only mmap model.
		nOverrides := r.u32()
		for j := uint32(0); j < nOverrides; j++ {
			r.str()           // attr name
			r.u32()           // attr type
			nvals := r.u32()  // value count
			for k := uint32(0); k < nvals; k++ {
				r.u64() // docid
				r.u64() // value (widest case)
			}
		}
		q.SelectList = r.str()
		if r.err != nil {
			return nil, fmt.Errorf("wire: truncated search request: %w", r.err)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// ResultMatch is one row of a Search response, decoupled from
// schema.Match so the wire layer doesn't need to import schema/binio's
// packed-row representation directly.
type ResultMatch struct {
	DocID  uint64
	Weight int32
	Attrs  []uint64
}

// SearchResult is one sub-query's worth of response data (§6.2 implies
// the mirror-image of the request's per-query section; this core
// encodes the subset the scorer/sortqueue pipeline actually produces:
// status, matched count, matches, and word stats).
type SearchResult struct {
	Status     Status
	Warning    string
	Error      string
	Fields     []string
	AttrNames  []string
	AttrTypes  []uint32
	Matches    []ResultMatch
	Total      uint32
	TotalFound uint32
	ElapsedMs  uint32
	Words      []WordStat
}

// WordStat is one keyword's aggregate hit/doc counts, returned alongside
// a Search response.
type WordStat struct {
	Word    string
	Docs    uint32
	Hits    uint32
}

// EncodeSearchResponse serializes one SearchResult in the shape a Sphinx
// protocol client expects back from a Search command.
func EncodeSearchResponse(res SearchResult) []byte {
	var buf bytes.Buffer
	putU32(&buf, uint32(res.Status))
	switch res.Status {
	case StatusWarning:
		_ = binio.WriteSphinxString(&buf, res.Warning)
	case StatusError, StatusRetry:
		_ = binio.WriteSphinxString(&buf, res.Error)
		return buf.Bytes()
	}
	putU32(&buf, uint32(len(res.Fields)))
	for _, f := range res.Fields {
		_ = binio.WriteSphinxString(&buf, f)
	}
	putU32(&buf, uint32(len(res.AttrNames)))
	for i, name := range res.AttrNames {
		_ = binio.WriteSphinxString(&buf, name)
		putU32(&buf, res.AttrTypes[i])
	}
	putU32(&buf, uint32(len(res.Matches)))
	for _, m := range res.Matches {
		putU64(&buf, m.DocID)
		putU32(&buf, uint32(m.Weight))
		for _, v := range m.Attrs {
			putU32(&buf, uint32(v))
		}
	}
	putU32(&buf, res.Total)
	putU32(&buf, res.TotalFound)
	putU32(&buf, res.ElapsedMs)
	putU32(&buf, uint32(len(res.Words)))
	for _, w := range res.Words {
		_ = binio.WriteSphinxString(&buf, w.Word)
		putU32(&buf, w.Docs)
		putU32(&buf, w.Hits)
	}
	return buf.Bytes()
}

func putU32(w io.Writer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, _ = w.Write(b[:])
}

func putU64(w io.Writer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, _ = w.Write(b[:])
}

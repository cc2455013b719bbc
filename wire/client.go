package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteCommandFrame writes one request frame: `u16 cmd, u16 cmd_ver, u32
// body_len, body` — the client-side mirror of ReadRequestHeader/
// ReadRequestBody, used by the distributed agent fan-out to talk to
// another node's Sphinx listener.
func WriteCommandFrame(w io.Writer, cmd CommandID, cmdVer uint16, body []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(cmd))
	binary.BigEndian.PutUint16(hdr[2:4], cmdVer)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// EncodeSearchRequestSingle encodes a single-query Search command body
// (`u32 n_queries=1` followed by one query record), the exact mirror of
// DecodeSearchRequest's per-query field order, for use by a client (the
// distributed fan-out agent) rather than the server.
func EncodeSearchRequestSingle(q SearchQuery) ([]byte, error) {
	var buf bytes.Buffer
	putU32(&buf, 1)
	putU32(&buf, q.Offset)
	putU32(&buf, q.Limit)
	putU32(&buf, q.MatchMode)
	putU32(&buf, q.Ranker)
	putU32(&buf, q.SortMode)
	writeStr(&buf, q.SortBy)
	writeStr(&buf, q.Query)
	putU32(&buf, uint32(len(q.Weights)))
	for _, w := range q.Weights {
		putU32(&buf, w)
	}
	writeStr(&buf, q.Indexes)
	idBits := q.IDBits
	if idBits == 0 {
		idBits = 32
	}
	putU32(&buf, idBits)
	if idBits == 64 {
		putU64(&buf, q.MinID)
		putU64(&buf, q.MaxID)
	} else {
		putU32(&buf, uint32(q.MinID))
		putU32(&buf, uint32(q.MaxID))
	}
	putU32(&buf, uint32(len(q.Filters)))
	for _, f := range q.Filters {
		writeStr(&buf, f.Name)
		putU32(&buf, uint32(f.Kind))
		switch f.Kind {
		case FilterValues:
			putU32(&buf, uint32(len(f.Values)))
			for _, v := range f.Values {
				putU64(&buf, v)
			}
		case FilterRange:
			putU64(&buf, f.Min)
			putU64(&buf, f.Max)
		case FilterFloatRange:
			putU32(&buf, floatBits(f.FMin))
			putU32(&buf, floatBits(f.FMax))
		}
		if f.Exclude {
			putU32(&buf, 1)
		} else {
			putU32(&buf, 0)
		}
	}
	putU32(&buf, q.GroupFunc)
	writeStr(&buf, q.GroupBy)
	putU32(&buf, q.MaxMatches)
	writeStr(&buf, q.GroupSort)
	putU32(&buf, q.Cutoff)
	putU32(&buf, q.RetryCount)
	putU32(&buf, q.RetryDelay)
	writeStr(&buf, q.GroupDistinct)
	if q.Geo != nil {
		putU32(&buf, 1)
		writeStr(&buf, q.Geo.LatAttr)
		writeStr(&buf, q.Geo.LonAttr)
		putU32(&buf, floatBits(q.Geo.Lat))
		putU32(&buf, floatBits(q.Geo.Lon))
	} else {
		putU32(&buf, 0)
	}
	putU32(&buf, uint32(len(q.IndexWeights)))
	for name, w := range q.IndexWeights {
		writeStr(&buf, name)
		putU32(&buf, w)
	}
	putU32(&buf, q.MaxQueryMs)
	putU32(&buf, uint32(len(q.FieldWeights)))
	for name, w := range q.FieldWeights {
		writeStr(&buf, name)
		putU32(&buf, w)
	}
	writeStr(&buf, q.Comment)
	putU32(&buf, 0) // no overrides — see DecodeSearchRequest's note
	writeStr(&buf, q.SelectList)
	return buf.Bytes(), nil
}

// DecodeSearchResponseSingle parses one EncodeSearchResponse-shaped body,
// the client-side mirror used by the distributed agent to read a remote
// node's reply.
func DecodeSearchResponseSingle(body []byte) (SearchResult, error) {
	r := &reader{buf: body}
	var res SearchResult
	res.Status = Status(r.u32())
	switch res.Status {
	case StatusWarning:
		res.Warning = r.str()
	case StatusError, StatusRetry:
		res.Error = r.str()
		if r.err != nil {
			return SearchResult{}, fmt.Errorf("wire: truncated search response: %w", r.err)
		}
		return res, nil
	}
	nFields := r.u32()
	res.Fields = make([]string, nFields)
	for i := range res.Fields {
		res.Fields[i] = r.str()
	}
	nAttrs := r.u32()
	res.AttrNames = make([]string, nAttrs)
	res.AttrTypes = make([]uint32, nAttrs)
	for i := range res.AttrNames {
		res.AttrNames[i] = r.str()
		res.AttrTypes[i] = r.u32()
	}
	nMatches := r.u32()
	res.Matches = make([]ResultMatch, nMatches)
	for i := range res.Matches {
		m := ResultMatch{}
		m.DocID = r.u64()
		m.Weight = int32(r.u32())
		m.Attrs = make([]uint64, nAttrs)
		for j := range m.Attrs {
			m.Attrs[j] = uint64(r.u32())
		}
		res.Matches[i] = m
	}
	res.Total = r.u32()
	res.TotalFound = r.u32()
	res.ElapsedMs = r.u32()
	nWords := r.u32()
	res.Words = make([]WordStat, nWords)
	for i := range res.Words {
		res.Words[i] = WordStat{Word: r.str(), Docs: r.u32(), Hits: r.u32()}
	}
	if r.err != nil {
		return SearchResult{}, fmt.Errorf("wire: truncated search response: %w", r.err)
	}
	return res, nil
}

func writeStr(w io.Writer, s string) {
	putU32(w, uint32(len(s)))
	_, _ = io.WriteString(w, s)
}

func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}

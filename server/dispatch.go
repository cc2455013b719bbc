package server

import (
	"encoding/binary"
	"fmt"

	"github.com/mrold/sphinxgo/stats"
	"github.com/mrold/sphinxgo/wire"
)

// Dispatch routes one decoded Sphinx command frame to its handler and
// returns the status/body pair the caller should write back (§4.J /
// §13: "command router for Search/Excerpt/Update/Keywords/Persist/
// Status/Query"). persistent is toggled by CmdPersist so the caller's
// connection loop knows whether to keep reading further commands.
func Dispatch(ctx *ServerCtx, hdr wire.RequestHeader, body []byte, persistent *bool) (wire.Status, []byte) {
	switch hdr.Cmd {
	case wire.CmdSearch:
		return dispatchSearch(ctx, body)
	case wire.CmdPersist:
		*persistent = true
		return wire.StatusOK, nil
	case wire.CmdStatus:
		return dispatchStatus(ctx)
	case wire.CmdUpdate:
		return dispatchUpdate(ctx, body)
	case wire.CmdExcerpt, wire.CmdKeywords:
		// Both are external collaborators per the indexer/searchd split
		// (snippet highlighting and morphology live outside the reader
		// path); stubbed here so the command surface stays complete.
		return wire.StatusError, []byte("ERROR: command not implemented")
	case wire.CmdQuery:
		return dispatchQuery(ctx, body)
	default:
		return wire.StatusError, []byte(fmt.Sprintf("ERROR: unknown command %d", hdr.Cmd))
	}
}

// dispatchSearch decodes a (possibly multi-query) search request, runs
// each query against ctx's local indexes, and encodes a multi-response
// body: a u32 query count followed by each query's self-describing
// EncodeSearchResponse body back to back.
func dispatchSearch(ctx *ServerCtx, body []byte) (wire.Status, []byte) {
	queries, err := wire.DecodeSearchRequest(body)
	if err != nil {
		return wire.StatusError, []byte("ERROR: " + err.Error())
	}

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(queries)))

	anyError := false
	for _, q := range queries {
		res, err := ExecuteSearch(ctx, q)
		if err != nil {
			res = wire.SearchResult{Status: wire.StatusError, Error: err.Error()}
		}
		if res.Status == wire.StatusError {
			anyError = true
		} else {
			ctx.QueryLog.LogQuery(q.Indexes, q.Query, 0, len(res.Matches))
		}
		out = append(out, wire.EncodeSearchResponse(res)...)
	}

	ctx.Stats.IncrCommand(stats.CmdSearch)
	if anyError && len(queries) == 1 {
		return wire.StatusError, out
	}
	return wire.StatusOK, out
}

func dispatchStatus(ctx *ServerCtx) (wire.Status, []byte) {
	snap := ctx.Stats.Snapshot()
	buf := make([]byte, 0, 64)
	buf = appendU32(buf, uint32(snap.UptimeSeconds))
	buf = appendU32(buf, uint32(len(snap.CommandCounts)))
	for name, n := range snap.CommandCounts {
		buf = appendStr(buf, name)
		buf = appendU32(buf, uint32(n))
	}
	return wire.StatusOK, buf
}

// dispatchUpdate applies an UpdateAttributes command: fixed-width
// attribute values for a list of docids against a single named index
// (§6.2's Update command). Mva/string attribute updates are out of
// scope here since index.Reader.UpdateAttr only mutates fixed-width
// packed-row slots.
func dispatchUpdate(ctx *ServerCtx, body []byte) (wire.Status, []byte) {
	req, err := decodeUpdateRequest(body)
	if err != nil {
		return wire.StatusError, []byte("ERROR: " + err.Error())
	}
	h, ok := ctx.Index(req.index)
	if !ok {
		return wire.StatusError, []byte(fmt.Sprintf("ERROR: unknown index %q", req.index))
	}
	r := h.Current()
	sch := r.Schema

	for _, name := range req.attrs {
		if _, ok := sch.AttrByName(name); !ok {
			return wire.StatusError, []byte(fmt.Sprintf("ERROR: unknown attribute %q", name))
		}
	}

	updated := 0
	for _, row := range req.rows {
		for i, name := range req.attrs {
			attr, _ := sch.AttrByName(name)
			if err := r.UpdateAttr(row.docID, attr.Loc, row.values[i]); err != nil {
				continue
			}
		}
		updated++
	}

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(updated))
	ctx.Stats.IncrCommand(stats.CmdUpdate)
	return wire.StatusOK, out
}

// dispatchQuery handles the SQL-over-Sphinx-protocol Query command,
// reusing the MySQL result-set classification so CLI and binary
// clients share one execution path.
func dispatchQuery(ctx *ServerCtx, body []byte) (wire.Status, []byte) {
	sql := string(body)
	switch wire.ClassifyCommand(sql) {
	case wire.CmdShowStatus:
		return dispatchStatus(ctx)
	default:
		return wire.StatusError, []byte("ERROR: unsupported query command")
	}
}

// updateRequest is one decoded Update command body: a target index, the
// ordered list of attributes being touched, and one row of new values
// per docid (§6.2's UpdateAttributes request layout).
type updateRequest struct {
	index string
	attrs []string
	rows  []updateRow
}

type updateRow struct {
	docID  uint64
	values []uint64
}

// decodeUpdateRequest parses: index name (len-prefixed string), u32
// attr count, that many len-prefixed attr names, u32 row count, then
// per row a u64 docid followed by one u32 value per attribute.
func decodeUpdateRequest(body []byte) (updateRequest, error) {
	var req updateRequest
	pos := 0

	readU32 := func() (uint32, error) {
		if pos+4 > len(body) {
			return 0, fmt.Errorf("server: truncated update request")
		}
		v := binary.BigEndian.Uint32(body[pos : pos+4])
		pos += 4
		return v, nil
	}
	readU64 := func() (uint64, error) {
		if pos+8 > len(body) {
			return 0, fmt.Errorf("server: truncated update request")
		}
		v := binary.BigEndian.Uint64(body[pos : pos+8])
		pos += 8
		return v, nil
	}
	readStr := func() (string, error) {
		n, err := readU32()
		if err != nil {
			return "", err
		}
		if pos+int(n) > len(body) {
			return "", fmt.Errorf("server: truncated update request")
		}
		s := string(body[pos : pos+int(n)])
		pos += int(n)
		return s, nil
	}

	var err error
	if req.index, err = readStr(); err != nil {
		return req, err
	}
	nAttrs, err := readU32()
	if err != nil {
		return req, err
	}
	req.attrs = make([]string, nAttrs)
	for i := range req.attrs {
		if req.attrs[i], err = readStr(); err != nil {
			return req, err
		}
	}
	nRows, err := readU32()
	if err != nil {
		return req, err
	}
	req.rows = make([]updateRow, nRows)
	for i := range req.rows {
		docID, err := readU64()
		if err != nil {
			return req, err
		}
		values := make([]uint64, nAttrs)
		for j := range values {
			v, err := readU32()
			if err != nil {
				return req, err
			}
			values[j] = uint64(v)
		}
		req.rows[i] = updateRow{docID: docID, values: values}
	}
	return req, nil
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendStr(b []byte, s string) []byte {
	b = appendU32(b, uint32(len(s)))
	return append(b, s...)
}

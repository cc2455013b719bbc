package wire_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/wire"
)

func TestHandshakeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.ServerHandshake(&buf))
	v, err := wire.ReadClientVersion(&buf)
	require.NoError(t, err)
	_ = v
}

func TestRequestResponseFraming(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteResponse(&buf, wire.StatusOK, 0x119, []byte("hello")))

	status := binary.BigEndian.Uint16(buf.Bytes()[0:2])
	ver := binary.BigEndian.Uint16(buf.Bytes()[2:4])
	size := binary.BigEndian.Uint32(buf.Bytes()[4:8])
	assert.Equal(t, uint16(wire.StatusOK), status)
	assert.Equal(t, uint16(0x119), ver)
	assert.Equal(t, uint32(5), size)
	assert.Equal(t, "hello", string(buf.Bytes()[8:8+size]))
}

func TestDecodeSearchRequestSingleQuery(t *testing.T) {
	var buf bytes.Buffer
	putU32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	putStr := func(s string) {
		putU32(uint32(len(s)))
		buf.WriteString(s)
	}

	putU32(1) // n_queries
	putU32(0) // offset
	putU32(20) // limit
	putU32(2) // match_mode (extended)
	putU32(0) // ranker
	putU32(0) // sort_mode
	putStr("")           // sort_by
	putStr("quick dog")  // query
	putU32(0)            // nweights
	putStr("sample")     // indexes
	putU32(32)           // id_bits
	putU32(0)            // min_id
	putU32(0xffffffff)   // max_id
	putU32(0)            // nfilters
	putU32(0)            // group_func
	putStr("")           // group_by
	putU32(20)           // max_matches
	putStr("")           // group_sort
	putU32(0)            // cutoff
	putU32(0)            // retry_count
	putU32(0)            // retry_delay
	putStr("")           // group_distinct
	putU32(0)            // geo_anchor_flag
	putU32(0)            // n_index_weights
	putU32(0)            // max_query_ms
	putU32(0)            // n_field_weights
	putStr("")           // comment
	putU32(0)            // n_overrides
	putStr("*")          // select_list

	queries, err := wire.DecodeSearchRequest(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "quick dog", queries[0].Query)
	assert.Equal(t, "sample", queries[0].Indexes)
	assert.Equal(t, uint32(20), queries[0].Limit)
	assert.Equal(t, "*", queries[0].SelectList)
}

func TestEncodeSearchResponseRoundTrip(t *testing.T) {
	res := wire.SearchResult{
		Status:     wire.StatusOK,
		Fields:     []string{"title"},
		AttrNames:  []string{"price"},
		AttrTypes:  []uint32{1},
		Matches:    []wire.ResultMatch{{DocID: 42, Weight: 7, Attrs: []uint64{100}}},
		Total:      1,
		TotalFound: 1,
	}
	body := wire.EncodeSearchResponse(res)
	assert.NotEmpty(t, body)
	assert.Equal(t, uint32(wire.StatusOK), binary.BigEndian.Uint32(body[0:4]))
}

func TestClassifyCommand(t *testing.T) {
	assert.Equal(t, wire.CmdSelect, wire.ClassifyCommand("SELECT * FROM idx"))
	assert.Equal(t, wire.CmdShowWarnings, wire.ClassifyCommand("show warnings"))
	assert.Equal(t, wire.CmdShowStatus, wire.ClassifyCommand("SHOW STATUS"))
	assert.Equal(t, wire.CmdShowMeta, wire.ClassifyCommand("show meta"))
	assert.Equal(t, wire.CmdUnknown, wire.ClassifyCommand("DELETE FROM x"))
}

func TestRenderMva(t *testing.T) {
	assert.Equal(t, "1,2,3", wire.RenderMva([]uint32{1, 2, 3}))
	assert.Equal(t, "0", wire.RenderMva([]uint32{0}))
	assert.Equal(t, "", wire.RenderMva(nil))
}

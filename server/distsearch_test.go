package server_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/indexer"
	"github.com/mrold/sphinxgo/server"
	"github.com/mrold/sphinxgo/wire"
)

// fakeRemoteAgent spins up a one-shot Sphinx agent that always replies
// with a single fixed docid, mirroring distributed/agent_test.go's helper
// so this package doesn't have to import the unexported test internals.
func fakeRemoteAgent(t *testing.T, docID uint64) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if err := wire.ServerHandshake(conn); err != nil {
			return
		}
		if _, err := wire.ReadClientVersion(conn); err != nil {
			return
		}
		hdr, err := wire.ReadRequestHeader(conn)
		if err != nil {
			return
		}
		if _, err := wire.ReadRequestBody(conn, hdr); err != nil {
			return
		}
		body := wire.EncodeSearchResponse(wire.SearchResult{
			Status:  wire.StatusOK,
			Matches: []wire.ResultMatch{{DocID: docID, Weight: 1}},
			Total:   1,
		})
		_ = wire.WriteResponse(conn, wire.StatusOK, 0, body)
	}()

	return ln.Addr().String()
}

func TestExecuteSearchDistributedFanOutMergesLocalAndRemote(t *testing.T) {
	r, d := buildIndex(t, "local1", []indexer.Doc{
		{ID: 1, Fields: []string{"quick fox"}},
	})

	ctx := server.NewServerCtx(nil)
	_, err := ctx.AddIndex("local1", r, d)
	require.NoError(t, err)

	remoteAddr := fakeRemoteAgent(t, 2)
	_, err = ctx.AddDistributedIndex("dist1", server.DistIndexConfig{
		LocalIdx: []string{"local1"},
		Agents: []server.AgentConfig{
			{Net: "tcp", Addr: remoteAddr, Index: "remote1"},
		},
	})
	require.NoError(t, err)

	res, err := server.ExecuteSearch(ctx, wire.SearchQuery{Indexes: "dist1", Query: "quick", MaxMatches: 20})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, res.Status)

	ids := resultIDs(res)
	assert.ElementsMatch(t, []uint64{1, 2}, ids)
}

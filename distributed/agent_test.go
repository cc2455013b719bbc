package distributed

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/wire"
)

// fakeAgentServer accepts exactly one connection, performs the Sphinx
// handshake, decodes a single-query Search request, and replies with res.
func fakeAgentServer(t *testing.T, res wire.SearchResult) string {
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
		body := wire.EncodeSearchResponse(res)
		_ = wire.WriteResponse(conn, wire.StatusOK, 0, body)
	}()

	return ln.Addr().String()
}

func TestAgentQuerySucceeds(t *testing.T) {
	addr := fakeAgentServer(t, wire.SearchResult{
		Status:  wire.StatusOK,
		Matches: []wire.ResultMatch{{DocID: 42, Weight: 7}},
		Total:   1,
	})

	a := Agent{Net: "tcp", Addr: addr, Index: "remote1"}
	ar := a.Query(context.Background(), wire.SearchQuery{Query: "quick", Indexes: "remote1"})
	require.NoError(t, ar.Err)
	require.Len(t, ar.Result.Matches, 1)
	assert.Equal(t, uint64(42), ar.Result.Matches[0].DocID)
}

func TestAgentQueryConnectFailureReturnsError(t *testing.T) {
	a := Agent{Net: "tcp", Addr: "127.0.0.1:1", RetryCount: 0, ConnectTimeout: 200 * time.Millisecond}
	ar := a.Query(context.Background(), wire.SearchQuery{Query: "x"})
	assert.Error(t, ar.Err)
}

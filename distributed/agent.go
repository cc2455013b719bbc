// Package distributed implements §4.K: fan-out to remote agents for a
// distributed index, grounded on the teacher's errgroup-based
// database/concurrent.go fan-out/wait pattern, generalized here to a
// dial/query/merge pipeline driven over net.Conn instead of *sql.DB.
package distributed

import (
	"context"
	"net"
	"time"

	"github.com/mrold/sphinxgo/wire"
)

// AgentState is the state machine §4.K draws: Unused -> Connect -> Hello
// -> Query -> Reply -> done, with a Retry loop back to Connect on
// any failed attempt or a RETRY reply status.
type AgentState int

const (
	StateUnused AgentState = iota
	StateConnect
	StateHello
	StateQuery
	StateReply
	StateDone
	StateRetry
	StateFailed
)

// Agent is one remote (or blackhole) search target of a distributed
// index.
type Agent struct {
	Net       string
	Addr      string
	Index     string
	Blackhole bool
	Weight    uint32

	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	RetryCount     int
	RetryDelay     time.Duration
}

// AgentResult is what Query returns: either a parsed SearchResult or the
// error that made this agent's attempt fail after exhausting retries.
type AgentResult struct {
	Agent  Agent
	Result wire.SearchResult
	Err    error
}

// Query runs the full Unused->Connect->Hello->Query->Reply state
// machine against one agent, retrying up to a.RetryCount times on any
// failed attempt (dial, handshake, I/O or timeout, undecodable reply) or a
// RETRY status, waiting RetryDelay between waves.
// A blackhole agent still sends its query and awaits a reply (so its
// latency counts against the fan-out), but its result is discarded by
// the caller rather than by Query itself, keeping this function's
// contract uniform.
func (a Agent) Query(ctx context.Context, q wire.SearchQuery) AgentResult {
	var lastErr error
	attempts := a.RetryCount + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && a.RetryDelay > 0 {
			select {
			case <-time.After(a.RetryDelay):
			case <-ctx.Done():
				return AgentResult{Agent: a, Err: ctx.Err()}
			}
		}

		res, retry, err := a.attemptOnce(ctx, q)
		if err == nil && !retry {
			return AgentResult{Agent: a, Result: res}
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = errRetryStatus
		}
	}
	return AgentResult{Agent: a, Err: lastErr}
}

var errRetryStatus = &retryError{}

type retryError struct{}

func (*retryError) Error() string { return "distributed: agent replied RETRY" }

// attemptOnce runs one Connect->Hello->Query->Reply cycle, returning
// (result, retry, err): retry is true when the remote replied with
// StatusRetry and another wave should be attempted.
func (a Agent) attemptOnce(ctx context.Context, q wire.SearchQuery) (wire.SearchResult, bool, error) {
	connectTimeout := a.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 3 * time.Second
	}
	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, a.Net, a.Addr)
	if err != nil {
		return wire.SearchResult{}, false, err
	}
	defer conn.Close()

	queryTimeout := a.QueryTimeout
	if queryTimeout == 0 {
		queryTimeout = 10 * time.Second
	}
	_ = conn.SetDeadline(time.Now().Add(queryTimeout))

	if _, err := wire.ReadServerVersion(conn); err != nil {
		return wire.SearchResult{}, false, err
	}
	if err := wire.WriteClientVersion(conn, wire.SphinxProtoVersion); err != nil {
		return wire.SearchResult{}, false, err
	}

	body, err := wire.EncodeSearchRequestSingle(q)
	if err != nil {
		return wire.SearchResult{}, false, err
	}
	if err := wire.WriteCommandFrame(conn, wire.CmdSearch, 0, body); err != nil {
		return wire.SearchResult{}, false, err
	}

	hdr, err := wire.ReadRequestHeader(conn)
	if err != nil {
		return wire.SearchResult{}, false, err
	}
	respBody, err := wire.ReadRequestBody(conn, hdr)
	if err != nil {
		return wire.SearchResult{}, false, err
	}

	res, err := wire.DecodeSearchResponseSingle(respBody)
	if err != nil {
		return wire.SearchResult{}, false, err
	}
	if res.Status == wire.StatusRetry {
		return wire.SearchResult{}, true, nil
	}
	return res, false, nil
}

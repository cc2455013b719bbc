// Command search is a thin Sphinx-protocol query client (§17): it dials a
// running searchd, runs one query, and prints the matches, exercising the
// wire package's client-side codec end to end.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/mrold/sphinxgo/wire"
)

func main() {
	query, opts := parseOptions(os.Args[1:])

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: connect %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	if _, err := wire.ReadServerVersion(conn); err != nil {
		fmt.Fprintf(os.Stderr, "search: handshake: %v\n", err)
		os.Exit(1)
	}
	if err := wire.WriteClientVersion(conn, wire.SphinxProtoVersion); err != nil {
		fmt.Fprintf(os.Stderr, "search: handshake: %v\n", err)
		os.Exit(1)
	}

	q := wire.SearchQuery{
		Query:      query,
		Indexes:    opts.Index,
		MaxMatches: uint32(opts.Limit),
		Limit:      uint32(opts.Limit),
	}
	body, err := wire.EncodeSearchRequestSingle(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: encode request: %v\n", err)
		os.Exit(1)
	}
	if err := wire.WriteCommandFrame(conn, wire.CmdSearch, 0, body); err != nil {
		fmt.Fprintf(os.Stderr, "search: send request: %v\n", err)
		os.Exit(1)
	}

	hdr, err := wire.ReadRequestHeader(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: read response: %v\n", err)
		os.Exit(1)
	}
	respBody, err := wire.ReadRequestBody(conn, hdr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: read response body: %v\n", err)
		os.Exit(1)
	}

	// dispatchSearch's body is a u32 query count followed by each
	// query's EncodeSearchResponse-shaped record; a single-query request
	// always gets exactly one back.
	if len(respBody) < 4 {
		fmt.Fprintln(os.Stderr, "search: truncated response")
		os.Exit(1)
	}
	res, err := wire.DecodeSearchResponseSingle(respBody[4:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: decode response: %v\n", err)
		os.Exit(1)
	}

	printResult(res)
}

func printResult(res wire.SearchResult) {
	switch res.Status {
	case wire.StatusError:
		fmt.Printf("error: %s\n", res.Error)
		return
	case wire.StatusWarning:
		fmt.Printf("warning: %s\n", res.Warning)
	}

	fmt.Printf("Matches: %d (total found: %d)\n", res.Total, res.TotalFound)
	for _, m := range res.Matches {
		fmt.Printf("%-20d weight=%-8d", m.DocID, m.Weight)
		for i, name := range res.AttrNames {
			fmt.Printf(" %s=%d", name, m.Attrs[i])
		}
		fmt.Println()
	}

	if len(res.Words) > 0 {
		fmt.Println("\nWords:")
		for _, w := range res.Words {
			fmt.Printf("  %-20s docs=%-8d hits=%d\n", w.Word, w.Docs, w.Hits)
		}
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

var version string

// options, the thin query-client counterpart of cmd/indexer/cmd/searchd's
// go-flags split — a standalone CLI exercising the wire protocol end to
// end, mirroring how the original ships a `search` utility alongside
// `indexer`/`searchd` (§17).
type options struct {
	Host       string `short:"h" long:"host" description:"searchd host" value-name:"host" default:"127.0.0.1"`
	Port       int    `short:"p" long:"port" description:"searchd Sphinx-protocol port" value-name:"port" default:"9312"`
	Index      string `short:"i" long:"index" description:"comma-separated index list to search" value-name:"index" default:"*"`
	Limit      uint   `short:"l" long:"limit" description:"max matches to return" value-name:"n" default:"20"`
	Help       bool   `long:"help" description:"Show this help"`
	Version    bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (string, options) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] query words..."
	rest, err := parser.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "No query given\n")
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	query := ""
	for i, w := range rest {
		if i > 0 {
			query += " "
		}
		query += w
	}
	return query, opts
}

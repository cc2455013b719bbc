package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

var version string

// options mirrors the teacher's parseOptions split (cmd/mysqldef/mysqldef.go):
// a flags-tagged struct plus a thin parseOptions wrapper that handles
// --help/--version before anything else runs.
type options struct {
	Config  string `short:"c" long:"config" description:"Indexer YAML config file" value-name:"config_path" required:"true"`
	All     bool   `long:"all" description:"Reindex every index block in the config"`
	Rotate  bool   `long:"rotate" description:"Write segment files as <path>.new.* for searchd's rotation to pick up (no signal is sent to searchd)"`
	Help    bool   `long:"help" description:"Show this help"`
	Version bool   `long:"version" description:"Show this version"`
}

// parseOptions parses args and returns the selected index names (positional
// args) plus the shared options.
func parseOptions(args []string) ([]string, options) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] index_name..."
	names, err := parser.ParseArgs(args)
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
	if !opts.All && len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No index given; pass index names or --all\n")
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	return names, opts
}

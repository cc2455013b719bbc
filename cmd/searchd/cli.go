package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

var version string

// options mirrors cmd/indexer's go-flags split: a tagged struct plus a
// parseOptions wrapper handling --help/--version up front.
type options struct {
	Config  string `short:"c" long:"config" description:"searchd YAML config file" value-name:"config_path" required:"true"`
	Help    bool   `long:"help" description:"Show this help"`
	Version bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) options {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	_, err := parser.ParseArgs(args)
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
	return opts
}

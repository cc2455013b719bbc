// Command indexer builds on-disk segments from a YAML config, §6.4's
// offline half of the searchd/indexer split.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrold/sphinxgo/config"
	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/indexer"
	"github.com/mrold/sphinxgo/logutil"
	"github.com/mrold/sphinxgo/segfmt"
	"github.com/mrold/sphinxgo/tokenizer"
)

func main() {
	names, opts := parseOptions(os.Args[1:])
	log := logutil.Init("info", os.Stderr)

	cfg, err := config.LoadIndexerConfig(opts.Config)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Error("config error", "error", e)
		}
		os.Exit(1)
	}

	targets, err := selectIndexes(cfg, names, opts.All)
	if err != nil {
		log.Error("select indexes", "error", err)
		os.Exit(1)
	}

	failed := false
	for _, spec := range targets {
		if opts.Rotate {
			spec.Path += ".new"
		}
		if err := buildOne(log, spec); err != nil {
			log.Error("build failed", "index", spec.Name, "error", err)
			failed = true
			continue
		}
		log.Info("build finished", "index", spec.Name)
	}
	if failed {
		os.Exit(1)
	}
}

// selectIndexes resolves the CLI's positional index names (or --all)
// against the config's index list.
func selectIndexes(cfg config.IndexerConfig, names []string, all bool) ([]config.IndexSpec, error) {
	if all {
		return cfg.Indexes, nil
	}
	byName := make(map[string]config.IndexSpec, len(cfg.Indexes))
	for _, idx := range cfg.Indexes {
		byName[idx.Name] = idx
	}
	out := make([]config.IndexSpec, 0, len(names))
	for _, n := range names {
		spec, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown index %q", n)
		}
		out = append(out, spec)
	}
	return out, nil
}

// buildOne runs §4.D's pipeline for one configured index. A per-index
// failure here is reported and skipped by main's loop rather than aborting
// the other indexes (§4.D "Failure semantics").
func buildOne(log *slog.Logger, spec config.IndexSpec) error {
	sch, err := spec.BuildSchema()
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	memLimit := indexer.MinMemLimit
	if spec.MemLimit != "" {
		n, err := config.ParseMemLimit(spec.MemLimit)
		if err != nil {
			return err
		}
		if n > memLimit {
			memLimit = n
		}
	}

	docinfo := segfmt.DocinfoExtern
	switch strings.ToLower(spec.Docinfo) {
	case "none":
		docinfo = segfmt.DocinfoNone
	case "inline":
		docinfo = segfmt.DocinfoInline
	}

	minLen := spec.MinWordLen
	if minLen == 0 {
		minLen = 2
	}
	tok := tokenizer.NewSimple(minLen)
	d := dict.NewCRC(spec.Stopwords, nil, dict.Settings{MinWordLen: minLen})

	source, err := buildSource(spec)
	if err != nil {
		return err
	}

	p := indexer.New(indexer.Config{
		Schema:    sch,
		Tokenizer: tok,
		Dict:      d,
		MemLimit:  memLimit,
		Docinfo:   docinfo,
		TempDir:   os.TempDir(),
		Progress: func(phase indexer.Phase, stats indexer.PhaseStats) {
			log.Debug("indexing progress", "index", spec.Name, "phase", phase.String(), "docs", stats.Docs, "hits", stats.Hits)
		},
	})

	prefix := filepath.Clean(spec.Path)
	return p.BuildIndex(prefix, source)
}

// buildSource wires spec's source definitions to concrete DocumentSources,
// combining more than one with indexer.MultiSource. Only a file-backed
// source is built in, per §18's "source adapters beyond DocumentSource"
// non-goal — it exists so the indexer CLI is runnable standalone, not as a
// general adapter framework.
func buildSource(spec config.IndexSpec) (indexer.DocumentSource, error) {
	if len(spec.Sources) == 0 {
		return nil, fmt.Errorf("index %q: no source configured", spec.Name)
	}
	built := make([]indexer.DocumentSource, 0, len(spec.Sources))
	for _, src := range spec.Sources {
		switch strings.ToLower(src.Type) {
		case "file", "jsonlines", "":
			path := src.Settings["path"]
			if path == "" {
				return nil, fmt.Errorf("index %q: source %q missing settings.path", spec.Name, src.Name)
			}
			built = append(built, newJSONLinesSource(path, src.Settings["kill_path"]))
		default:
			return nil, fmt.Errorf("index %q: unsupported source type %q", spec.Name, src.Type)
		}
	}
	if len(built) == 1 {
		return built[0], nil
	}
	return indexer.NewMultiSource(built...), nil
}

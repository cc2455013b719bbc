// Command searchd serves search queries over the Sphinx and MySQL wire
// protocols (§4.J/§6.4), the online half of the indexer/searchd split.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mrold/sphinxgo/config"
	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/index"
	"github.com/mrold/sphinxgo/logutil"
	"github.com/mrold/sphinxgo/server"
)

func main() {
	opts := parseOptions(os.Args[1:])
	log := logutil.Init("info", os.Stderr)

	cfg, err := config.LoadServerConfig(opts.Config)
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

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Error("open log_file", "error", err)
			os.Exit(1)
		}
		log = logutil.Init("info", f)
	}

	sctx := server.NewServerCtx(log)

	if err := openLocalIndexes(sctx, cfg); err != nil {
		log.Error("open indexes", "error", err)
		os.Exit(1)
	}
	if err := openDistributedIndexes(sctx, cfg); err != nil {
		log.Error("configure distributed indexes", "error", err)
		os.Exit(1)
	}

	ql, err := server.NewQueryLogger(cfg.QueryLogFile)
	if err != nil {
		log.Error("open query_log_file", "error", err)
		os.Exit(1)
	}
	sctx.QueryLog = ql
	defer ql.Close()

	if cfg.PidFile != "" {
		if err := server.WritePidFile(cfg.PidFile); err != nil {
			log.Error("write pid_file", "error", err)
			os.Exit(1)
		}
		defer server.RemovePidFile(cfg.PidFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runSignalLoop(ctx, cancel, sctx, cfg, ql)
	go server.RunAttrFlusher(ctx, sctx, cfg.AttrFlushPeriod)

	listeners := make([]server.ListenerConfig, len(cfg.Listen))
	for i, l := range cfg.Listen {
		proto := server.ProtoSphinx
		if l.Protocol == "mysql41" {
			proto = server.ProtoMySQL41
		}
		listeners[i] = server.ListenerConfig{Net: l.Net, Addr: l.Addr, Protocol: proto}
	}

	log.Info("searchd starting", "listeners", len(listeners))
	if err := server.Serve(ctx, sctx, listeners); err != nil {
		log.Error("serve", "error", err)
		os.Exit(1)
	}
}

// openLocalIndexes opens every index named in cfg.LocalIndexes from
// cfg.IndexDir/<name>. The dictionary is rebuilt with default settings
// rather than persisted, since word hashing (dict.CRC) is a pure function
// of the surface word bytes and stopword list (§4.C); a deployment that
// needs non-default stopwords/min-word-len at query time would extend
// ServerConfig with a per-index dict block, left out per §18's "tokenizer/
// morphology mechanics beyond the contract" non-goal.
func openLocalIndexes(sctx *server.ServerCtx, cfg config.ServerConfig) error {
	for _, name := range cfg.LocalIndexes {
		prefix := filepath.Join(cfg.IndexDir, name)
		r, err := index.Open(prefix)
		if err != nil {
			return err
		}
		d := dict.NewCRC(nil, nil, dict.Settings{MinWordLen: 2})
		if _, err := sctx.AddIndex(name, r, d); err != nil {
			return err
		}
	}
	return nil
}

func openDistributedIndexes(sctx *server.ServerCtx, cfg config.ServerConfig) error {
	for name, d := range cfg.Distributed {
		agents := make([]server.AgentConfig, len(d.Agents))
		for i, a := range d.Agents {
			agents[i] = server.AgentConfig{
				Net: a.Net, Addr: a.Addr, Index: a.Index, Blackhole: a.Blackhole, Weight: a.Weight,
			}
		}
		dcfg := server.DistIndexConfig{
			Agents:           agents,
			LocalIdx:         d.LocalIndexes,
			RetryCount:       d.RetryCount,
			ConnectTimeoutMs: d.ConnectTimeoutMs,
			QueryTimeoutMs:   d.QueryTimeoutMs,
		}
		if _, err := sctx.AddDistributedIndex(name, dcfg); err != nil {
			return err
		}
	}
	return nil
}

// runSignalLoop handles SIGHUP (rotate), SIGUSR1 (reopen the query log), and
// SIGTERM/SIGINT (graceful shutdown), the Go redesign of §6.5's signal
// table realized with os/signal instead of a libc sigaction table.
func runSignalLoop(ctx context.Context, cancel context.CancelFunc, sctx *server.ServerCtx, cfg config.ServerConfig, ql *server.QueryLogger) {
	sigc := make(chan os.Signal, 4)
	signal.Notify(sigc, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGTERM, syscall.SIGINT)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigc:
			switch sig {
			case syscall.SIGHUP:
				mode := server.RotateSeamless
				if !cfg.SeamlessRotate {
					mode = server.RotateGreedy
				}
				results := server.RotateAll(sctx, mode)
				for _, res := range results {
					if res.Err != nil {
						sctx.Log.Error("rotate failed", "index", res.Index, "error", res.Err)
					}
				}
			case syscall.SIGUSR1:
				_ = ql.Reopen()
			case syscall.SIGTERM, syscall.SIGINT:
				sctx.Shutdown()
				cancel()
				return
			}
		}
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrold/sphinxgo/wire"
)

// Protocol is which wire dialect a listener speaks (§4.J, §9 Design
// Notes "Protocol dispatch -> tagged variant").
type Protocol int

const (
	ProtoSphinx Protocol = iota
	ProtoMySQL41
)

// ListenerConfig is one configured `listen=` endpoint (§4.J).
type ListenerConfig struct {
	Net      string // "tcp" or "unix"
	Addr     string
	Protocol Protocol
}

// Serve runs one goroutine per configured listener (the redesign from a
// single select-driven accept loop per §9: each listener gets its own
// goroutine, each accepted connection its own handler goroutine) and
// blocks until ctx is canceled or a listener fails to bind. Binding
// failures are fatal (returned immediately); per-connection errors are
// logged and never propagate out of Serve.
func Serve(ctx context.Context, sctx *ServerCtx, configs []ListenerConfig) error {
	eg, egCtx := errgroup.WithContext(ctx)
	listeners := make([]net.Listener, len(configs))
	for i, cfg := range configs {
		ln, err := net.Listen(cfg.Net, cfg.Addr)
		if err != nil {
			for _, l := range listeners[:i] {
				_ = l.Close()
			}
			return fmt.Errorf("server: listen %s/%s: %w", cfg.Net, cfg.Addr, err)
		}
		listeners[i] = ln
	}

	for i, cfg := range configs {
		ln := listeners[i]
		proto := cfg.Protocol
		eg.Go(func() error {
			return acceptLoop(egCtx, sctx, ln, proto)
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		for _, ln := range listeners {
			_ = ln.Close()
		}
		return nil
	})

	err := eg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// acceptLoop accepts connections on ln until ctx is canceled, spawning
// one handler goroutine per connection (§4.J / §9: "one worker child
// that handles exactly one client connection lifetime", realized as a
// goroutine instead of a forked process).
func acceptLoop(ctx context.Context, sctx *ServerCtx, ln net.Listener, proto Protocol) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			sctx.Log.Error("accept failed", "err", err)
			continue
		}
		go handleConnection(sctx, conn, proto)
	}
}

// handleConnection runs one client's full connection lifetime: Sphinx
// handshake + command loop, or MySQL handshake + query loop, exiting on
// EOF, protocol error, or (persistent Sphinx mode) explicit close.
func handleConnection(sctx *ServerCtx, conn net.Conn, proto Protocol) {
	defer conn.Close()
	switch proto {
	case ProtoSphinx:
		handleSphinxConn(sctx, conn)
	case ProtoMySQL41:
		handleMySQLConn(sctx, conn)
	}
}

func handleSphinxConn(sctx *ServerCtx, conn net.Conn) {
	if err := wire.ServerHandshake(conn); err != nil {
		return
	}
	if _, err := wire.ReadClientVersion(conn); err != nil {
		return
	}

	persistent := false
	for {
		hdr, err := wire.ReadRequestHeader(conn)
		if err != nil {
			return
		}
		body, err := wire.ReadRequestBody(conn, hdr)
		if err != nil {
			_ = wire.WriteErrorResponse(conn, "truncated request body")
			return
		}

		start := time.Now()
		status, respBody := Dispatch(sctx, hdr, body, &persistent)
		_ = wire.WriteResponse(conn, status, hdr.CmdVer, respBody)
		sctx.Stats.AddQueryTime(time.Since(start))

		if !persistent {
			return
		}
	}
}

package server

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/mrold/sphinxgo/stats"
	"github.com/mrold/sphinxgo/wire"
)

// mysqlServerVersion is what the handshake reports; some SphinxQL
// clients refuse to connect to a server version string that doesn't
// look like MySQL's.
const mysqlServerVersion = "5.5.21-sphinxgo"

var mysqlConnCounter uint32

// handleMySQLConn runs one SphinxQL-over-MySQL-wire connection: a
// classic handshake followed by a COM_QUERY loop, exiting on EOF or
// framing error (§6.3).
func handleMySQLConn(sctx *ServerCtx, conn net.Conn) {
	connID := atomic.AddUint32(&mysqlConnCounter, 1)

	if err := wire.WriteHandshake(conn, mysqlServerVersion, connID); err != nil {
		return
	}
	if err := wire.ReadHandshakeResponse(conn); err != nil {
		return
	}

	for {
		sql, err := wire.ReadCommand(conn)
		if err != nil {
			return
		}
		start := time.Now()
		if err := serveSQLCommand(sctx, conn, sql); err != nil {
			return
		}
		sctx.Stats.AddQueryTime(time.Since(start))
	}
}

// serveSQLCommand classifies and answers one SQL statement. Each reply
// is a fresh packet sequence starting at 1 (seq 0 was the client's
// command packet).
func serveSQLCommand(sctx *ServerCtx, conn net.Conn, sql string) error {
	switch wire.ClassifyCommand(sql) {
	case wire.CmdSelect:
		sctx.Stats.IncrCommand(stats.CmdSearch)
		return serveSelect(sctx, conn, sql)
	case wire.CmdShowStatus:
		sctx.Stats.IncrCommand(stats.CmdStatus)
		return serveShowStatus(sctx, conn)
	case wire.CmdShowWarnings:
		return serveEmptyResultSet(conn, []wire.Column{{Name: "Level"}, {Name: "Code"}, {Name: "Message"}})
	case wire.CmdShowMeta:
		return serveEmptyResultSet(conn, []wire.Column{{Name: "Variable_name"}, {Name: "Value"}})
	default:
		return wire.WriteErrorPacket(conn, 1, fmt.Sprintf("unsupported statement: %s", sql))
	}
}

func serveSelect(sctx *ServerCtx, conn net.Conn, sql string) error {
	sel := parseSQLSelect(sql)
	if sel.indexes == "" {
		return wire.WriteErrorPacket(conn, 1, "SELECT requires FROM <index>")
	}
	res, err := ExecuteSearch(sctx, sel.toSearchQuery())
	if err != nil {
		return wire.WriteErrorPacket(conn, 1, err.Error())
	}
	if res.Status == wire.StatusError {
		return wire.WriteErrorPacket(conn, 1, res.Error)
	}

	cols := make([]wire.Column, 0, 2+len(res.AttrNames))
	cols = append(cols, wire.Column{Name: "id", Type: wire.ColumnDecimal})
	cols = append(cols, wire.Column{Name: "weight", Type: wire.ColumnDecimal})
	for _, n := range res.AttrNames {
		cols = append(cols, wire.Column{Name: n, Type: wire.ColumnString})
	}

	rw := wire.NewResultSetWriter(conn, 1)
	if err := rw.WriteColumns(cols); err != nil {
		return err
	}
	for _, m := range res.Matches {
		row := make([]string, 0, len(cols))
		row = append(row, fmt.Sprintf("%d", m.DocID))
		row = append(row, fmt.Sprintf("%d", m.Weight))
		for _, v := range m.Attrs {
			row = append(row, fmt.Sprintf("%d", v))
		}
		if err := rw.WriteRow(row); err != nil {
			return err
		}
	}
	return rw.WriteEOF()
}

func serveShowStatus(sctx *ServerCtx, conn net.Conn) error {
	snap := sctx.Stats.Snapshot()
	rw := wire.NewResultSetWriter(conn, 1)
	cols := []wire.Column{{Name: "Counter", Type: wire.ColumnString}, {Name: "Value", Type: wire.ColumnString}}
	if err := rw.WriteColumns(cols); err != nil {
		return err
	}
	if err := rw.WriteRow([]string{"uptime", fmt.Sprintf("%d", snap.UptimeSeconds)}); err != nil {
		return err
	}
	for name, n := range snap.CommandCounts {
		if err := rw.WriteRow([]string{"command_" + name, fmt.Sprintf("%d", n)}); err != nil {
			return err
		}
	}
	return rw.WriteEOF()
}

func serveEmptyResultSet(conn net.Conn, cols []wire.Column) error {
	rw := wire.NewResultSetWriter(conn, 1)
	if err := rw.WriteColumns(cols); err != nil {
		return err
	}
	return rw.WriteEOF()
}

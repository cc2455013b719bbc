package wire

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"io"
	"strings"

	"github.com/mrold/sphinxgo/binio"
)

// MySQL protocol constants needed for the handshake and result-set
// framing this core exposes (§6.3). Only the capability bits actually
// advertised are named.
const (
	mysqlProtocolVersion = 10
	capLongPassword      = 0x00000001
	capProtocol41        = 0x00000200
	capConnectWithDB     = 0x00000008
	capSecureConnection  = 0x00008000
)

// ColumnType is one of the two column types §6.3 says this core reports.
type ColumnType int

const (
	ColumnDecimal ColumnType = iota
	ColumnString
)

func (c ColumnType) mysqlType() byte {
	if c == ColumnDecimal {
		return 0x00 // MYSQL_TYPE_DECIMAL
	}
	return 0xfd // MYSQL_TYPE_VAR_STRING
}

// packetWriter frames one or more MySQL packets: 3-byte LE length + 1-byte
// sequence number + payload, each call bumping the sequence.
type packetWriter struct {
	w   io.Writer
	seq byte
}

func (p *packetWriter) writePacket(payload []byte) error {
	var hdr [4]byte
	hdr[0] = byte(len(payload))
	hdr[1] = byte(len(payload) >> 8)
	hdr[2] = byte(len(payload) >> 16)
	hdr[3] = p.seq
	p.seq++
	if _, err := p.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := p.w.Write(payload)
	return err
}

// WriteHandshake emits the classic protocol-version-10 MySQL handshake
// packet advertising CLIENT_PROTOCOL_41|CLIENT_CONNECT_WITH_DB, with a random 20-byte
// auth-plugin-data scramble the server never actually validates
// (§6.3: "Accepts any auth").
func WriteHandshake(w io.Writer, serverVersion string, connectionID uint32) error {
	scramble := make([]byte, 20)
	_, _ = rand.Read(scramble)

	var body bytes.Buffer
	body.WriteByte(mysqlProtocolVersion)
	body.WriteString(serverVersion)
	body.WriteByte(0)
	var connID [4]byte
	binary.LittleEndian.PutUint32(connID[:], connectionID)
	body.Write(connID[:])
	body.Write(scramble[:8])
	body.WriteByte(0) // filler
	caps := uint32(capLongPassword | capProtocol41 | capConnectWithDB | capSecureConnection)
	body.WriteByte(byte(caps))
	body.WriteByte(byte(caps >> 8))
	body.WriteByte(0xff) // charset: utf8_general_ci placeholder byte position
	var status [2]byte
	binary.LittleEndian.PutUint16(status[:], 2) // SERVER_STATUS_AUTOCOMMIT
	body.Write(status[:])
	body.WriteByte(byte(caps >> 16))
	body.WriteByte(byte(caps >> 24))
	body.WriteByte(byte(len(scramble) + 1))
	body.Write(make([]byte, 10)) // reserved
	body.Write(scramble[8:])
	body.WriteByte(0)
	body.WriteString("mysql_native_password")
	body.WriteByte(0)

	pw := &packetWriter{w: w}
	return pw.writePacket(body.Bytes())
}

// ReadHandshakeResponse drains and discards the client's handshake
// response packet (username/auth/db); §6.3 accepts any auth, so nothing
// in the response actually gates the connection.
func ReadHandshakeResponse(r io.Reader) error {
	_, err := readPacket(r)
	return err
}

func readPacket(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := int(hdr[0]) | int(hdr[1])<<8 | int(hdr[2])<<16
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadCommand reads one COM_QUERY-family packet and returns its SQL text,
// covering the four statement shapes §6.3 supports: SELECT, SHOW
// WARNINGS, SHOW STATUS, SHOW META.
func ReadCommand(r io.Reader) (string, error) {
	buf, err := readPacket(r)
	if err != nil {
		return "", err
	}
	if len(buf) == 0 {
		return "", nil
	}
	const comQuery = 0x03
	if buf[0] != comQuery {
		return "", nil
	}
	return string(buf[1:]), nil
}

// ClassifyCommand buckets sql into one of the four statement shapes this
// core understands, by a case-insensitive prefix match (§6.3).
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdSelect
	CmdShowWarnings
	CmdShowStatus
	CmdShowMeta
)

func ClassifyCommand(sql string) CommandKind {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasPrefix(upper, "SELECT"):
		return CmdSelect
	case strings.HasPrefix(upper, "SHOW WARNINGS"):
		return CmdShowWarnings
	case strings.HasPrefix(upper, "SHOW STATUS"):
		return CmdShowStatus
	case strings.HasPrefix(upper, "SHOW META"):
		return CmdShowMeta
	default:
		return CmdUnknown
	}
}

// Column describes one result-set column (§6.3: "DECIMAL for numeric,
// STRING for everything else").
type Column struct {
	Name string
	Type ColumnType
}

// ResultSetWriter streams a MySQL-protocol result set: column count,
// column definitions, EOF, rows, EOF — the classic (pre-protocol-41
// binary, pure text) result-set shape, matching what a `mysql` CLI or
// any COM_QUERY-speaking client expects back from a text query.
type ResultSetWriter struct {
	pw *packetWriter
}

// NewResultSetWriter wraps w, continuing the sequence numbering from seq
// (the handshake and command packets already consumed 0/1).
func NewResultSetWriter(w io.Writer, seq byte) *ResultSetWriter {
	return &ResultSetWriter{pw: &packetWriter{w: w, seq: seq}}
}

// WriteColumns writes the column-count packet, one column-definition
// packet per column, then an EOF packet.
func (rw *ResultSetWriter) WriteColumns(cols []Column) error {
	var countBody bytes.Buffer
	_ = binio.WriteMySQLLengthEncodedInt(&countBody, uint64(len(cols)))
	if err := rw.pw.writePacket(countBody.Bytes()); err != nil {
		return err
	}
	for _, c := range cols {
		var body bytes.Buffer
		_ = binio.WriteMySQLLengthEncodedString(&body, "def")
		_ = binio.WriteMySQLLengthEncodedString(&body, "")
		_ = binio.WriteMySQLLengthEncodedString(&body, "")
		_ = binio.WriteMySQLLengthEncodedString(&body, "")
		_ = binio.WriteMySQLLengthEncodedString(&body, c.Name)
		_ = binio.WriteMySQLLengthEncodedString(&body, c.Name)
		body.WriteByte(0x0c) // length of fixed fields below
		body.Write([]byte{0x21, 0x00})
		var colLen [4]byte
		binary.LittleEndian.PutUint32(colLen[:], 255)
		body.Write(colLen[:])
		body.WriteByte(c.Type.mysqlType())
		body.Write([]byte{0x00, 0x00})
		body.WriteByte(0x00)
		body.Write([]byte{0x00, 0x00})
		if err := rw.pw.writePacket(body.Bytes()); err != nil {
			return err
		}
	}
	return rw.pw.writePacket(eofPacket())
}

// WriteRow writes one text-protocol row: each cell as a length-encoded
// string, MVA attributes already rendered by RenderMva.
func (rw *ResultSetWriter) WriteRow(cells []string) error {
	var body bytes.Buffer
	for _, c := range cells {
		_ = binio.WriteMySQLLengthEncodedString(&body, c)
	}
	return rw.pw.writePacket(body.Bytes())
}

// WriteEOF ends the row sequence.
func (rw *ResultSetWriter) WriteEOF() error {
	return rw.pw.writePacket(eofPacket())
}

// WriteErrorPacket writes a generic ERR packet in place of a result set,
// the MySQL text protocol's way of reporting a query failure; seq is the
// sequence number the failed command's reply should have used (the first
// packet of that command's response).
func WriteErrorPacket(w io.Writer, seq byte, msg string) error {
	pw := &packetWriter{w: w, seq: seq}
	var body bytes.Buffer
	body.WriteByte(0xff)
	body.Write([]byte{0x44, 0x04}) // ER_UNKNOWN_ERROR-ish placeholder code
	body.WriteByte('#')
	body.WriteString("42000")
	body.WriteString(msg)
	return pw.writePacket(body.Bytes())
}

func eofPacket() []byte {
	return []byte{0xfe, 0x00, 0x00, 0x02, 0x00}
}

// RenderMva joins an MVA attribute's values with commas, the rendering
// rule §6.3 specifies ("MVA rendered as comma-separated with a 3-byte
// length prefix" — the 3-byte prefix is the 0xfc-tagged medium-length
// form of WriteMySQLLengthEncodedString/Int, reached once the joined
// string exceeds 250 bytes).
func RenderMva(values []uint32) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeUint(&sb, uint64(v))
	}
	return sb.String()
}

func writeUint(sb *strings.Builder, v uint64) {
	if v == 0 {
		sb.WriteByte('0')
		return
	}
	var digits [20]byte
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	sb.Write(digits[i:])
}

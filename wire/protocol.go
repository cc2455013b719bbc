// Package wire implements §6.2/§6.3: the Sphinx binary protocol's command
// framing plus enough of the MySQL wire protocol for SELECT/SHOW passthrough
// (§6.3). Grounded on a real Go Sphinx client's framing, which itself
// confirms big-endian throughout: other_examples' yunge/sphinx client reads
// `status/ver/size` as big-endian u16/u16/u32 in its doRequest, the same
// shape this package's server side writes.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mrold/sphinxgo/binio"
)

// SphinxProtoVersion is the `u32` the server sends first during the
// handshake (§6.2): "server sends u32 SPHINX_SEARCHD_PROTO".
const SphinxProtoVersion uint32 = 1

// Status is one of the four response status codes §4.J/§6.2 names.
type Status uint16

const (
	StatusOK Status = iota
	StatusError
	StatusRetry
	StatusWarning
)

// CommandID is one of the Sphinx protocol's command ids (§4.J).
type CommandID uint16

const (
	CmdSearch CommandID = iota
	CmdExcerpt
	CmdUpdate
	CmdKeywords
	CmdPersist
	CmdStatus
	CmdQuery
)

// ServerHandshake writes the server's opening u32 protocol version, the
// first half of the Sphinx handshake (§6.2).
func ServerHandshake(w io.Writer) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], SphinxProtoVersion)
	_, err := w.Write(buf[:])
	return err
}

// ReadClientVersion reads the client's reply u32 to the handshake.
func ReadClientVersion(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadServerVersion reads the server's opening u32 protocol version, the
// client side of ServerHandshake — used by a node dialing out to another
// node's Sphinx listener (the distributed fan-out agent).
func ReadServerVersion(r io.Reader) (uint32, error) {
	return ReadClientVersion(r)
}

// WriteClientVersion writes the client's u32 reply to a server's
// handshake, the client side of ReadClientVersion.
func WriteClientVersion(w io.Writer, version uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], version)
	_, err := w.Write(buf[:])
	return err
}

// RequestHeader is one command frame's header: `u16 cmd, u16 cmd_ver,
// u32 body_len` (§4.J), read just ahead of body bytes.
type RequestHeader struct {
	Cmd     CommandID
	CmdVer  uint16
	BodyLen uint32
}

// ReadRequestHeader reads one RequestHeader off r.
func ReadRequestHeader(r io.Reader) (RequestHeader, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return RequestHeader{}, err
	}
	return RequestHeader{
		Cmd:     CommandID(binary.BigEndian.Uint16(buf[0:2])),
		CmdVer:  binary.BigEndian.Uint16(buf[2:4]),
		BodyLen: binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

// ReadRequestBody reads exactly h.BodyLen bytes following a header read
// by ReadRequestHeader.
func ReadRequestBody(r io.Reader, h RequestHeader) ([]byte, error) {
	if h.BodyLen > 64*1024*1024 {
		return nil, fmt.Errorf("wire: oversized request body %d bytes", h.BodyLen)
	}
	buf := make([]byte, h.BodyLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteResponse writes one response frame: `u16 status, u16 cmd_ver,
// u32 body_len, body` (§4.J).
func WriteResponse(w io.Writer, status Status, cmdVer uint16, body []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(status))
	binary.BigEndian.PutUint16(hdr[2:4], cmdVer)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// WriteErrorResponse writes a StatusError frame whose body is a single
// length-prefixed message string, matching the client-side decode in
// other_examples' yunge/sphinx client ("wlen := ...; res[4:4+wlen]").
func WriteErrorResponse(w io.Writer, msg string) error {
	var body bytes.Buffer
	if err := binio.WriteSphinxString(&body, msg); err != nil {
		return err
	}
	return WriteResponse(w, StatusError, 0, body.Bytes())
}

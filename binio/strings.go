package binio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteSphinxString writes a length-prefixed UTF-8 string using the Sphinx
// wire protocol's rule: a 4-byte big-endian length followed by the raw
// bytes (§4.A, §6.2). An empty string is encoded as a zero length, not as
// the -1 "null" sentinel the original C++ source uses for absent strings;
// callers needing "absent" distinguish it at a higher layer.
func WriteSphinxString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadSphinxString is the decode side of WriteSphinxString.
func ReadSphinxString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > 8*1024*1024 {
		return "", fmt.Errorf("binio: oversized string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteMySQLLengthEncodedInt writes n using the MySQL protocol's
// variable-length integer encoding (§6.3, §4.A): values below 251 encode as
// a single byte; 0xfc/0xfd/0xfe prefix 2/3/8-byte little-endian payloads.
func WriteMySQLLengthEncodedInt(w io.Writer, n uint64) error {
	switch {
	case n < 251:
		_, err := w.Write([]byte{byte(n)})
		return err
	case n < 1<<16:
		buf := make([]byte, 3)
		buf[0] = 0xfc
		binary.LittleEndian.PutUint16(buf[1:], uint16(n))
		_, err := w.Write(buf)
		return err
	case n < 1<<24:
		buf := make([]byte, 4)
		buf[0] = 0xfd
		buf[1] = byte(n)
		buf[2] = byte(n >> 8)
		buf[3] = byte(n >> 16)
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint64(buf[1:], n)
		_, err := w.Write(buf)
		return err
	}
}

// WriteMySQLLengthEncodedString writes the length (per
// WriteMySQLLengthEncodedInt) followed by the raw bytes, the form used for
// every textual column value and for the MVA comma-joined rendering rule in
// §6.3.
func WriteMySQLLengthEncodedString(w io.Writer, s string) error {
	if err := WriteMySQLLengthEncodedInt(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadMySQLLengthEncodedInt decodes the integer form above, returning ok=false
// for the 0xfb "NULL" sentinel byte.
func ReadMySQLLengthEncodedInt(r io.Reader) (n uint64, ok bool, err error) {
	var b [1]byte
	if _, err = io.ReadFull(r, b[:]); err != nil {
		return 0, false, err
	}
	switch {
	case b[0] < 251:
		return uint64(b[0]), true, nil
	case b[0] == 0xfb:
		return 0, false, nil
	case b[0] == 0xfc:
		var buf [2]byte
		if _, err = io.ReadFull(r, buf[:]); err != nil {
			return 0, false, err
		}
		return uint64(binary.LittleEndian.Uint16(buf[:])), true, nil
	case b[0] == 0xfd:
		var buf [3]byte
		if _, err = io.ReadFull(r, buf[:]); err != nil {
			return 0, false, err
		}
		return uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16, true, nil
	case b[0] == 0xfe:
		var buf [8]byte
		if _, err = io.ReadFull(r, buf[:]); err != nil {
			return 0, false, err
		}
		return binary.LittleEndian.Uint64(buf[:]), true, nil
	}
	return 0, false, fmt.Errorf("binio: invalid length-encoded-int prefix 0x%x", b[0])
}

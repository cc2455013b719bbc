package schema

import (
	"bytes"
	"encoding/gob"
)

// Encode serializes a finalized Schema for embedding in a segment's .sph
// header (§6.1 "SchemaBlob"). gob is used rather than a third-party
// format because this blob never leaves the process that wrote it and is
// read back by the same Go types — there is no wire-compatibility
// requirement a library like yaml/json buys here, just a stable internal
// encoding.
func Encode(s Schema) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decode(b []byte) (Schema, error) {
	var s Schema
	if len(b) == 0 {
		return s, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&s); err != nil {
		return Schema{}, err
	}
	return s, nil
}

package binio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, PutUvarint(&buf, v))
		assert.Equal(t, VarintSize(v), buf.Len())

		got, err := ReadUvarint(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestSphinxStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSphinxString(&buf, "hello world"))
	got, err := ReadSphinxString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestMySQLLengthEncodedIntRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 250, 251, 1 << 15, 1 << 20, 1 << 40}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, WriteMySQLLengthEncodedInt(&buf, v))
		got, ok, err := ReadMySQLLengthEncodedInt(&buf)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestPackedRowGetSet(t *testing.T) {
	row := make(PackedRow, 4)
	small := Locator{BitOffset: 0, BitWidth: 8}
	wide := Locator{BitOffset: 32, BitWidth: 64}
	straddle := Locator{BitOffset: 28, BitWidth: 8}

	row.Set(small, 200)
	assert.EqualValues(t, 200, row.Get(small))

	row.Set(wide, 0x1122334455667788)
	assert.EqualValues(t, 0x1122334455667788, row.Get(wide))

	row.Set(straddle, 0xAB)
	assert.EqualValues(t, 0xAB, row.Get(straddle))
	// the low nibble of `small` must be untouched by the straddling write
	assert.EqualValues(t, 200, row.Get(small))
}

func TestPackedRowFloat32(t *testing.T) {
	row := make(PackedRow, 1)
	loc := Locator{BitOffset: 0, BitWidth: 32}
	row.SetFloat32(loc, 3.14159)
	assert.InDelta(t, 3.14159, row.GetFloat32(loc), 1e-5)
}

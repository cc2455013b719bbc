package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopwordsReturnZero(t *testing.T) {
	d := NewCRC([]string{"the", "a"}, nil, Settings{MinWordLen: 1})
	assert.EqualValues(t, 0, d.WordID([]byte("the")))
	assert.EqualValues(t, 0, d.WordID([]byte("The")))
	assert.NotEqualValues(t, 0, d.WordID([]byte("quick")))
}

func TestMinWordLenFilters(t *testing.T) {
	d := NewCRC(nil, nil, Settings{MinWordLen: 3})
	assert.EqualValues(t, 0, d.WordID([]byte("ab")))
	assert.NotEqualValues(t, 0, d.WordID([]byte("abc")))
}

func TestSingleWordForms(t *testing.T) {
	forms := NewMultiWordforms()
	forms.Single["running"] = "run"
	d := NewCRC(nil, forms, Settings{MinWordLen: 1})
	assert.Equal(t, d.WordID([]byte("run")), d.WordID([]byte("running")))
}

func TestCaseSensitive(t *testing.T) {
	d := NewCRC(nil, nil, Settings{MinWordLen: 1, CaseSensitive: true})
	assert.NotEqual(t, d.WordID([]byte("Run")), d.WordID([]byte("run")))
}

package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(tk Tokenizer, s string) []string {
	tk.SetBuffer([]byte(s))
	var out []string
	for {
		tok, ok := tk.Next()
		if !ok {
			break
		}
		out = append(out, string(tok))
	}
	return out
}

func TestSimpleSplitsWords(t *testing.T) {
	tk := NewSimple(1)
	assert.Equal(t, []string{"the", "quick", "brown", "fox"}, collect(tk, "the quick, brown-fox!"))
}

func TestSimpleOvershortCount(t *testing.T) {
	tk := NewSimple(3)
	tk.SetBuffer([]byte("a bb ccc dddd"))
	var out []string
	for {
		tok, ok := tk.Next()
		if !ok {
			break
		}
		out = append(out, string(tok))
	}
	assert.Equal(t, []string{"ccc", "dddd"}, out)
	assert.EqualValues(t, 2, tk.OvershortCount())
}

func TestQueryModeSpecials(t *testing.T) {
	tk := NewQueryMode(1)
	tk.SetBuffer([]byte(`@title "hello world"~3`))
	var toks []string
	for {
		tok, ok := tk.Next()
		if !ok {
			break
		}
		toks = append(toks, string(tok))
	}
	assert.Contains(t, toks, "@")
	assert.Contains(t, toks, `"`)
	assert.Contains(t, toks, "~")
	assert.Contains(t, toks, "title")
}

func TestCloneConfigured(t *testing.T) {
	tk := NewSimple(2)
	clone := tk.CloneConfigured()
	assert.Equal(t, collect(tk, "ab cd"), collect(clone, "ab cd"))
}

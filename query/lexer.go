package query

import "github.com/mrold/sphinxgo/tokenizer"

// lexToken is one token out of the query-mode tokenizer: either a word or
// one of the pass-through special characters `()|-!@~"/^$<` (§4.F).
type lexToken struct {
	text    string
	special bool
}

// lexer flattens a tokenizer.Tokenizer's output into a peekable token
// stream, the "thin wrapper over the tokenizer in query mode" §4.F
// describes.
type lexer struct {
	toks []lexToken
	pos  int
}

func newLexer(query string) *lexer {
	tok := tokenizer.NewQueryMode(1)
	tok.SetBuffer([]byte(query))
	var toks []lexToken
	for {
		t, ok := tok.Next()
		if !ok {
			break
		}
		toks = append(toks, lexToken{text: string(t), special: tok.WasSpecial()})
	}
	return &lexer{toks: toks}
}

func (l *lexer) peek() (lexToken, bool) {
	if l.pos >= len(l.toks) {
		return lexToken{}, false
	}
	return l.toks[l.pos], true
}

// peekAt looks ahead n tokens from the current position (0 == peek()).
func (l *lexer) peekAt(n int) (lexToken, bool) {
	i := l.pos + n
	if i < 0 || i >= len(l.toks) {
		return lexToken{}, false
	}
	return l.toks[i], true
}

func (l *lexer) next() (lexToken, bool) {
	t, ok := l.peek()
	if ok {
		l.pos++
	}
	return t, ok
}

func (l *lexer) atEnd() bool { return l.pos >= len(l.toks) }

// acceptSpecial consumes the next token iff it's the special character ch.
func (l *lexer) acceptSpecial(ch string) bool {
	t, ok := l.peek()
	if ok && t.special && t.text == ch {
		l.pos++
		return true
	}
	return false
}

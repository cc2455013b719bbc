package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/schema"
)

// Parse builds a QNode tree from a raw query string (§4.F grammar). It
// strips a trailing `@@relaxed` marker (unknown field names are then skipped
// instead of causing parse errors) and returns whether it was present.
func Parse(raw string, sch schema.Schema) (*QNode, bool, error) {
	relaxed := false
	trimmed := strings.TrimSpace(raw)
	if strings.HasSuffix(trimmed, "@@relaxed") {
		relaxed = true
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "@@relaxed"))
	}

	p := &parser{l: newLexer(trimmed), sch: sch, relaxed: relaxed}
	node, err := p.parseOr()
	if err != nil {
		return nil, relaxed, err
	}
	if !p.l.atEnd() {
		return nil, relaxed, fmt.Errorf("query: trailing input at token %d", p.l.pos)
	}
	return node, relaxed, nil
}

type parser struct {
	l       *lexer
	sch     schema.Schema
	relaxed bool
}

func (p *parser) parseOr() (*QNode, error) {
	left, err := p.parseBefore()
	if err != nil {
		return nil, err
	}
	children := []*QNode{left}
	for p.l.acceptSpecial("|") {
		right, err := p.parseBefore()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &QNode{Op: QOr, Children: children}, nil
}

func (p *parser) acceptBefore() bool {
	t, ok := p.l.peek()
	if !ok || !t.special || t.text != "<" {
		return false
	}
	nt, ok := p.l.peekAt(1)
	if !ok || !nt.special || nt.text != "<" {
		return false
	}
	p.l.pos += 2
	return true
}

func (p *parser) parseBefore() (*QNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptBefore() {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &QNode{Op: QBefore, Children: []*QNode{left, right}}
	}
	return left, nil
}

func (p *parser) parseAnd() (*QNode, error) {
	var children []*QNode
	for {
		t, ok := p.l.peek()
		if !ok {
			break
		}
		if t.special && (t.text == ")" || t.text == "|") {
			break
		}
		if t.special && t.text == "<" {
			if nt, ok := p.l.peekAt(1); ok && nt.special && nt.text == "<" {
				break
			}
		}
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		children = append(children, term)
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("query: empty expression")
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &QNode{Op: QAnd, Children: children}, nil
}

func (p *parser) parseTerm() (*QNode, error) {
	t, ok := p.l.peek()
	if !ok {
		return nil, fmt.Errorf("query: unexpected end of input")
	}

	switch {
	case t.special && t.text == "(":
		p.l.next()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.l.acceptSpecial(")") {
			return nil, fmt.Errorf("query: expected closing ')'")
		}
		return node, nil

	case t.special && t.text == "@":
		return p.parseFieldSpec()

	case t.special && (t.text == "-" || t.text == "!"):
		p.l.next()
		child, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &QNode{Op: QNot, Children: []*QNode{child}}, nil

	case t.special && t.text == `"`:
		return p.parsePhrase()

	case t.special:
		return nil, fmt.Errorf("query: unexpected token %q", t.text)

	default:
		p.l.next()
		return &QNode{IsPlain: true, Words: []QKeyword{{Word: t.text}}}, nil
	}
}

func (p *parser) parseFieldSpec() (*QNode, error) {
	p.l.next() // '@'

	var mask uint32
	var err error

	t, ok := p.l.peek()
	if !ok {
		return nil, fmt.Errorf("query: '@' at end of input")
	}

	switch {
	case t.special && t.text == "*":
		p.l.next()
		mask = p.sch.AllFieldsMask()

	case t.special && t.text == "!":
		p.l.next()
		name, ok := p.l.next()
		if !ok || name.special {
			return nil, fmt.Errorf("query: expected field name after '@!'")
		}
		var excl uint32
		if excl, err = p.sch.FieldMask([]string{name.text}, p.relaxed); err != nil {
			return nil, err
		}
		mask = p.sch.AllFieldsMask() &^ excl

	case t.special && t.text == "(":
		p.l.next()
		var names []string
		for {
			nt, ok := p.l.peek()
			if !ok {
				return nil, fmt.Errorf("query: unterminated '@(' field list")
			}
			if nt.special && nt.text == ")" {
				p.l.next()
				break
			}
			if nt.special {
				return nil, fmt.Errorf("query: unexpected token %q in field list", nt.text)
			}
			p.l.next()
			names = append(names, nt.text)
		}
		if mask, err = p.sch.FieldMask(names, p.relaxed); err != nil {
			return nil, err
		}

	case !t.special:
		p.l.next()
		if mask, err = p.sch.FieldMask([]string{t.text}, p.relaxed); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("query: invalid field spec at %q", t.text)
	}

	child, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	applyFieldMask(child, mask)
	return child, nil
}

func (p *parser) parsePhrase() (*QNode, error) {
	p.l.next() // opening '"'
	var words []QKeyword
	var pos uint32
	for {
		t, ok := p.l.next()
		if !ok {
			return nil, fmt.Errorf("query: unterminated phrase")
		}
		if t.special && t.text == `"` {
			break
		}
		if t.special {
			continue
		}
		words = append(words, QKeyword{Word: t.text, AtomPos: pos})
		pos++
	}
	if len(words) > 0 {
		words[0].FieldStart = true
		words[len(words)-1].FieldEnd = true
	}

	node := &QNode{IsPlain: true, Words: words, IsPhrase: true}

	if p.l.acceptSpecial("~") {
		n, err := p.parseTrailingInt()
		if err != nil {
			return nil, fmt.Errorf("query: bad proximity distance: %w", err)
		}
		node.IsPhrase = false
		node.MaxDistance = n
		return node, nil
	}
	if p.l.acceptSpecial("/") {
		n, err := p.parseTrailingInt()
		if err != nil {
			return nil, fmt.Errorf("query: bad quorum count: %w", err)
		}
		node.IsPhrase = false
		node.IsQuorum = true
		node.QuorumN = uint32(n)
		return node, nil
	}
	return node, nil
}

func (p *parser) parseTrailingInt() (int32, error) {
	t, ok := p.l.next()
	if !ok || t.special {
		return 0, fmt.Errorf("expected a number")
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// Process runs the three post-parse passes §4.F specifies, in order: sweep
// stopword-only keywords, NOT fixup, then drop empty-field-mask nodes.
func Process(node *QNode, d dict.Dict) (*QNode, error) {
	node = sweepNulls(node, d)
	if node == nil {
		return nil, nil
	}
	node, err := notFixup(node, true)
	if err != nil {
		return nil, err
	}
	node = fieldsWildcardElim(node)
	return node, nil
}

// sweepNulls drops keywords whose dict word-id is 0 (stopwords) and
// collapses Op nodes left with a single child, or nil if everything under
// node was filtered away.
func sweepNulls(node *QNode, d dict.Dict) *QNode {
	if node == nil {
		return nil
	}
	if node.IsPlain {
		kept := node.Words[:0]
		for _, w := range node.Words {
			if d.WordID([]byte(w.Word)) != 0 {
				kept = append(kept, w)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		node.Words = kept
		return node
	}

	var kept []*QNode
	for _, c := range node.Children {
		if sc := sweepNulls(c, d); sc != nil {
			kept = append(kept, sc)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if len(kept) == 1 && node.Op != QNot {
		return kept[0]
	}
	node.Children = kept
	return node
}

// notFixup rewrites And(..., Not(x), ...) into AndNot(And(rest), Or(xs)),
// and rejects NOT positions §4.F calls non-computable: bare root, under OR,
// or as BEFORE's right operand.
func notFixup(node *QNode, isRoot bool) (*QNode, error) {
	if node.IsPlain {
		return node, nil
	}

	if node.Op == QNot && isRoot {
		return nil, fmt.Errorf("query: NOT cannot be the sole root of a query")
	}

	for i, c := range node.Children {
		fixed, err := notFixup(c, false)
		if err != nil {
			return nil, err
		}
		node.Children[i] = fixed
	}

	switch node.Op {
	case QOr:
		for _, c := range node.Children {
			if c.Op == QNot {
				return nil, fmt.Errorf("query: NOT under OR is non-computable")
			}
		}
	case QBefore:
		if len(node.Children) == 2 && node.Children[1].Op == QNot {
			return nil, fmt.Errorf("query: NOT cannot be BEFORE's right operand")
		}
	case QAnd:
		var pos, negs []*QNode
		for _, c := range node.Children {
			if c.Op == QNot {
				negs = append(negs, c.Children[0])
			} else {
				pos = append(pos, c)
			}
		}
		if len(negs) == 0 {
			return node, nil
		}
		if len(pos) == 0 {
			return nil, fmt.Errorf("query: AND of only NOTs is non-computable")
		}
		var posNode *QNode
		if len(pos) == 1 {
			posNode = pos[0]
		} else {
			posNode = &QNode{Op: QAnd, Children: pos}
		}
		var negNode *QNode
		if len(negs) == 1 {
			negNode = negs[0]
		} else {
			negNode = &QNode{Op: QOr, Children: negs}
		}
		return &QNode{Op: QAndNot, Children: []*QNode{posNode, negNode}}, nil
	}
	return node, nil
}

// fieldsWildcardElim removes nodes whose field mask resolved to the empty
// set (§4.F): an @field that matched nothing after relaxed field lookup.
func fieldsWildcardElim(node *QNode) *QNode {
	if node == nil {
		return nil
	}
	if node.hasMask && node.FieldMask == 0 {
		return nil
	}
	if node.IsPlain {
		return node
	}
	var kept []*QNode
	for _, c := range node.Children {
		if fc := fieldsWildcardElim(c); fc != nil {
			kept = append(kept, fc)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if len(kept) == 1 && node.Op != QNot && node.Op != QAndNot {
		return kept[0]
	}
	node.Children = kept
	return node
}

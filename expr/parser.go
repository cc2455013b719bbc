package expr

import (
	"fmt"

	"github.com/mrold/sphinxgo/schema"
)

// Compile parses raw into a ready-to-evaluate *Program, resolving every
// bare identifier against sch's attributes up front (§4.I: "arithmetic/
// logical expressions over attribute references, literals, and a fixed
// function set").
func Compile(raw string, sch schema.Schema) (*Program, error) {
	toks, err := lex(raw)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, sch: sch}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("expr: unexpected trailing token %q", p.cur().text)
	}
	return &Program{root: fold(n)}, nil
}

type parser struct {
	toks []token
	pos  int
	sch  schema.Schema
}

func (p *parser) cur() token { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) acceptPunct(s string) bool {
	if p.cur().kind == tokPunct && p.cur().text == s {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return fmt.Errorf("expr: expected %q, got %q", s, p.cur().text)
	}
	return nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptPunct("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binNode{op: opOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for p.acceptPunct("&&") {
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = binNode{op: opAnd, left: left, right: right}
	}
	return left, nil
}

var compareOps = map[string]binOp{
	"<": opLT, "<=": opLE, ">": opGT, ">=": opGE, "==": opEQ, "!=": opNE,
}

func (p *parser) parseCompare() (node, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokPunct {
		if op, ok := compareOps[p.cur().text]; ok {
			p.advance()
			right, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			return binNode{op: op, left: left, right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseAdd() (node, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.acceptPunct("+"):
			right, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			left = binNode{op: opAdd, left: left, right: right}
		case p.acceptPunct("-"):
			right, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			left = binNode{op: opSub, left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseMul() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.acceptPunct("*"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binNode{op: opMul, left: left, right: right}
		case p.acceptPunct("/"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binNode{op: opDiv, left: left, right: right}
		case p.acceptPunct("%"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binNode{op: opMod, left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (node, error) {
	if p.acceptPunct("-") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negNode{inner: inner}, nil
	}
	if p.acceptPunct("!") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.cur()
	switch {
	case t.kind == tokNumber:
		p.advance()
		return constNode(t.num), nil
	case t.kind == tokPunct && t.text == "(":
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case t.kind == tokIdent:
		p.advance()
		if t.text == "@id" {
			return magicNode{id: true}, nil
		}
		if t.text == "@weight" {
			return magicNode{id: false}, nil
		}
		if p.cur().kind == tokPunct && p.cur().text == "(" {
			return p.parseCall(t.text)
		}
		attr, ok := p.sch.AttrByName(t.text)
		if !ok {
			return nil, fmt.Errorf("expr: unknown attribute %q", t.text)
		}
		return attrNode{loc: attr.Loc}, nil
	default:
		return nil, fmt.Errorf("expr: unexpected token %q", t.text)
	}
}

func (p *parser) parseCall(name string) (node, error) {
	arity, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("expr: unknown function %q", name)
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []node
	if !p.acceptPunct(")") {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.acceptPunct(",") {
				continue
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			break
		}
	}
	if arity >= 0 && len(args) != arity {
		return nil, fmt.Errorf("expr: %s takes %d argument(s), got %d", name, arity, len(args))
	}
	if arity < 0 && len(args) < 2 {
		return nil, fmt.Errorf("expr: %s takes at least 2 arguments, got %d", name, len(args))
	}
	return callNode{fn: name, args: args}, nil
}

// Package expr implements §4.I: the arithmetic/logical expression engine
// sort-by clauses and computed attributes compile into. No repo in the
// retrieval pack implements a standalone expression evaluator, so this
// package is grounded on the parsing *style* query/parser.go already
// established (hand-written lexer + recursive-descent precedence
// climbing) rather than on a specific teacher file.
package expr

import (
	"github.com/mrold/sphinxgo/binio"
)

// env is what a compiled node reads from at evaluation time.
type env struct {
	row    binio.PackedRow
	docID  uint64
	weight int32
}

// node is one compiled expression tree node. Every node evaluates to a
// float64; the i32/i64/f32 type lattice (§4.I) governs constant-folding
// and literal parsing only; once compiled, arithmetic runs in float64
// throughout; values are renarrowed where a function's original C
// semantics depended on integer truncation (idiv, bigint, if's boolean
// test).
type node interface {
	eval(e *env) float64
}

// constNode is a folded or literal constant.
type constNode float64

func (n constNode) eval(*env) float64 { return float64(n) }

// attrNode reads one attribute out of the row via a pre-resolved
// Locator, avoiding any by-name lookup at evaluation time.
type attrNode struct {
	loc binio.Locator
}

func (n attrNode) eval(e *env) float64 { return float64(e.row.Get(n.loc)) }

// magicNode reads one of @id/@weight.
type magicNode struct {
	id bool // true: docid, false: weight
}

func (n magicNode) eval(e *env) float64 {
	if n.id {
		return float64(e.docID)
	}
	return float64(e.weight)
}

// binOp is one of the arithmetic/comparison/logical infix operators.
type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
	opMod
	opLT
	opLE
	opGT
	opGE
	opEQ
	opNE
	opAnd
	opOr
)

type binNode struct {
	op          binOp
	left, right node
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func truthy(v float64) bool { return v != 0 }

func (n binNode) eval(e *env) float64 {
	l := n.left.eval(e)
	switch n.op {
	case opAnd:
		return boolToFloat(truthy(l) && truthy(n.right.eval(e)))
	case opOr:
		return boolToFloat(truthy(l) || truthy(n.right.eval(e)))
	}
	r := n.right.eval(e)
	switch n.op {
	case opAdd:
		return l + r
	case opSub:
		return l - r
	case opMul:
		return l * r
	case opDiv:
		if r == 0 {
			return 0
		}
		return l / r
	case opMod:
		if int64(r) == 0 {
			return 0
		}
		return float64(int64(l) % int64(r))
	case opLT:
		return boolToFloat(l < r)
	case opLE:
		return boolToFloat(l <= r)
	case opGT:
		return boolToFloat(l > r)
	case opGE:
		return boolToFloat(l >= r)
	case opEQ:
		return boolToFloat(l == r)
	case opNE:
		return boolToFloat(l != r)
	default:
		return 0
	}
}

// negNode is unary minus.
type negNode struct{ inner node }

func (n negNode) eval(e *env) float64 { return -n.inner.eval(e) }

// notNode is unary logical not.
type notNode struct{ inner node }

func (n notNode) eval(e *env) float64 { return boolToFloat(!truthy(n.inner.eval(e))) }

// callNode is one of the fixed function-set calls (funcs.go).
type callNode struct {
	fn   string
	args []node
}

func (n callNode) eval(e *env) float64 {
	args := make([]float64, len(n.args))
	for i, a := range n.args {
		args[i] = a.eval(e)
	}
	return callBuiltin(n.fn, args)
}

// Program is one compiled expression, ready to evaluate per-match. It
// implements sortqueue.Evaluator so an Expression sort queue can hold a
// *Program directly.
type Program struct {
	root node
}

// Eval computes the expression's value for one match's row/docid/weight.
func (p *Program) Eval(row binio.PackedRow, docID uint64, weight int32) float64 {
	return p.root.eval(&env{row: row, docID: docID, weight: weight})
}

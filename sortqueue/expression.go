package sortqueue

import (
	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/schema"
)

// Evaluator is the expr package's contract onto a match: Eval must return
// a value comparable as a sort key. Expression depends on this interface
// rather than importing expr directly, keeping the dependency direction
// expr -> sortqueue (an expression queue is what expr.Program is built
// for) rather than a cycle.
type Evaluator interface {
	Eval(row binio.PackedRow, docID uint64, weight int32) float64
}

// Expression is the Expression sort queue (§4.H): sort key computed by
// the expression engine (§4.I) rather than a raw attribute or magic name.
type Expression struct {
	*BoundedQueue
}

// NewExpression builds an Expression queue ranking by expr's evaluated
// float64, descending (matching the engine's "ORDER BY expr DESC"
// default), falling back to docid ascending on an exact tie.
func NewExpression(limit int, expr Evaluator) *Expression {
	less := func(a, b schema.Match) bool {
		va := expr.Eval(binio.PackedRow(a.Row), a.DocID, a.Weight)
		vb := expr.Eval(binio.PackedRow(b.Row), b.DocID, b.Weight)
		if va != vb {
			return va > vb
		}
		return a.DocID < b.DocID
	}
	return &Expression{BoundedQueue: NewBoundedQueue(limit, less)}
}

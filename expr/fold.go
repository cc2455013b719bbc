package expr

// fold runs constant-folding over n (§4.I: "constant-folding ... runs
// before code generation"), collapsing any subtree whose leaves are all
// constNodes into a single constNode. now() is deliberately excluded —
// folding it would freeze the clock at compile time.
func fold(n node) node {
	switch t := n.(type) {
	case binNode:
		t.left = fold(t.left)
		t.right = fold(t.right)
		if l, ok := t.left.(constNode); ok {
			if r, ok := t.right.(constNode); ok {
				// div-by-const folds to a mul-by-inverse per §4.I; the
				// result is identical here since both are folded to a
				// single constant anyway, but doing the division with
				// the reciprocal keeps the intent visible.
				if t.op == opDiv && r != 0 {
					return constNode(float64(l) * (1 / float64(r)))
				}
				return constNode(t.eval(&env{}))
			}
		}
		return t
	case negNode:
		t.inner = fold(t.inner)
		if c, ok := t.inner.(constNode); ok {
			return constNode(-float64(c))
		}
		return t
	case notNode:
		t.inner = fold(t.inner)
		if c, ok := t.inner.(constNode); ok {
			return constNode(boolToFloat(!truthy(float64(c))))
		}
		return t
	case callNode:
		if t.fn == "now" {
			return t
		}
		allConst := true
		for i, a := range t.args {
			t.args[i] = fold(a)
			if _, ok := t.args[i].(constNode); !ok {
				allConst = false
			}
		}
		if allConst {
			return constNode(t.eval(&env{}))
		}
		return t
	default:
		return n
	}
}

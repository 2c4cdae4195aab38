package reasoner

import (
	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

// maxSimplifyDepth is the fixed-point iteration bound; the tunable copy of
// this value lives on Engine and is what callers actually use, this is
// only a fallback for call sites outside Engine.
const maxSimplifyDepth = 5

// simplify reduces a derived term to a fixed point under two defensive
// rewrite rules — (and/or X X) -> X when both arguments simplify to the
// same list, and (not (not X)) -> X when the double negation wraps a list
// — recursing into children first. It iterates until no rule applies or
// depth iterations have been spent, logging a diagnostic in the latter
// case.
func simplify(t term.Term, depth int) term.Term {
	cur := t
	for i := 0; i < depth; i++ {
		next := simplifyOnce(cur)
		if next.Equal(cur) {
			return cur
		}
		cur = next
	}
	diag.Log(diag.InternalInvariant, "simplification did not reach a fixed point", diag.Fields{
		"depth": depth,
		"term":  cur.String(),
	})
	return cur
}

func simplifyOnce(t term.Term) term.Term {
	lst, ok := t.(*term.List)
	if !ok {
		return t
	}

	items := lst.Items()
	newItems := make([]term.Term, len(items))
	changed := false
	for i, it := range items {
		r := simplifyOnce(it)
		newItems[i] = r
		if !r.Equal(it) {
			changed = true
		}
	}
	reduced := lst
	if changed {
		reduced = term.NewList(newItems...)
	}

	op, hasOp := reduced.Operator()
	if !hasOp {
		return reduced
	}

	if (op == "and" || op == "or") && reduced.Len() == 3 {
		a, aok := reduced.Items()[1].(*term.List)
		b, bok := reduced.Items()[2].(*term.List)
		if aok && bok && a.Equal(b) {
			return a
		}
	}
	if op == "not" && reduced.Len() == 2 {
		if innerList, ok := reduced.Items()[1].(*term.List); ok {
			if innerInner, ok := term.NegatedList(innerList); ok {
				return innerInner
			}
		}
	}
	return reduced
}

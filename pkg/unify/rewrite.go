package unify

import "github.com/gitrdm/kifreasoner/pkg/term"

// Rewrite attempts to rewrite target using the oriented equality lhs -> rhs.
// It descends target depth-first, left to right, trying the current
// subterm before its children; at the first subterm that matches lhs, it
// substitutes the match's bindings into rhs and replaces exactly that one
// occurrence — the leftmost one in this traversal order. It returns
// (nil, false) if lhs matches nowhere in target.
//
// A complete rewriter would replace every occurrence; this one replaces a
// single occurrence per call, matching the source behavior this reasoner
// is modeled on. Callers that want exhaustive rewriting call Rewrite
// repeatedly until it reports no match.
func Rewrite(target, lhs, rhs term.Term) (term.Term, bool) {
	if b, ok := Match(lhs, target, New()); ok {
		replaced, _ := SubstFully(rhs, b, DefaultMaxSubstDepth)
		return replaced, true
	}

	lst, ok := target.(*term.List)
	if !ok {
		return nil, false
	}
	items := lst.Items()
	for i, it := range items {
		if newIt, ok := Rewrite(it, lhs, rhs); ok {
			newItems := make([]term.Term, len(items))
			copy(newItems, items)
			newItems[i] = newIt
			return term.NewList(newItems...), true
		}
	}
	return nil, false
}

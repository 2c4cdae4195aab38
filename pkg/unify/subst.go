package unify

import "github.com/gitrdm/kifreasoner/pkg/term"

// DefaultMaxSubstDepth is the recursion bound SubstFully enforces when a
// caller has no configured bound of its own (e.g. Rewrite, which operates
// purely within this package). It is a defensive backstop, not a tunable
// in its own right: Unify's occurs-check should prevent true cycles, but
// Match does not occurs-check (its bindings are one-way), so a
// pathological rule could still produce a binding chain this deep.
// Callers wired to internal/config (pkg/reasoner) should pass
// cfg.MaxSubstDepth instead of this default.
const DefaultMaxSubstDepth = 50

// SubstFully substitutes every variable in t with its binding in b,
// recursively, until a fixed point is reached or maxDepth is exceeded.
// The second return value is true if the depth bound was hit, in which
// case the first return value is the term as substituted so far (best
// effort, not necessarily fully resolved) — callers should log a
// diagnostic when this happens.
func SubstFully(t term.Term, b *Bindings, maxDepth int) (term.Term, bool) {
	return substDepth(t, b, 0, maxDepth)
}

func substDepth(t term.Term, b *Bindings, depth, maxDepth int) (term.Term, bool) {
	if depth > maxDepth {
		return t, true
	}
	switch tt := t.(type) {
	case *term.Variable:
		bound, ok := b.Lookup(tt.Name())
		if !ok {
			return t, false
		}
		return substDepth(bound, b, depth+1, maxDepth)
	case *term.List:
		items := tt.Items()
		newItems := make([]term.Term, len(items))
		hitBound := false
		for i, it := range items {
			r, hit := substDepth(it, b, depth+1, maxDepth)
			newItems[i] = r
			if hit {
				hitBound = true
			}
		}
		return term.NewList(newItems...), hitBound
	default:
		return t, false
	}
}

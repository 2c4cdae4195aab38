package unify

import "github.com/gitrdm/kifreasoner/pkg/term"

// Match performs one-way pattern matching: only variables occurring in
// pattern may bind. Atoms and lists on the term side are treated as
// opaque, already-ground structure — even if term happens to contain a
// variable, it is compared structurally rather than bound against.
func Match(pattern, t term.Term, b *Bindings) (*Bindings, bool) {
	pattern = chase(b, pattern)

	if pv, ok := pattern.(*term.Variable); ok {
		return b.Extend(pv.Name(), t), true
	}

	switch pt := pattern.(type) {
	case *term.Atom:
		at, ok := t.(*term.Atom)
		return b, ok && at.Value() == pt.Value()
	case *term.List:
		lt, ok := t.(*term.List)
		if !ok || lt.Len() != pt.Len() {
			return nil, false
		}
		cur := b
		for i, pi := range pt.Items() {
			next, ok := Match(pi, lt.Items()[i], cur)
			if !ok {
				return nil, false
			}
			cur = next
		}
		return cur, true
	default:
		return nil, false
	}
}

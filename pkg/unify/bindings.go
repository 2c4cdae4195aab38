// Package unify implements the two unification modes the reasoner needs —
// full unification with occurs-check and one-way pattern matching — plus
// fixed-point substitution and single-occurrence rewriting built on top of
// them.
package unify

import "github.com/gitrdm/kifreasoner/pkg/term"

// Bindings maps variable names to the terms they are bound to. It is a
// persistent structure: Extend returns a new Bindings layer holding only
// the new binding and pointing at its parent, which it never mutates, so
// speculative unification attempts (e.g. one antecedent clause at a time in
// MatchAntecedent) can be thrown away without mutating the bindings a
// sibling attempt is still using.
type Bindings struct {
	parent *Bindings
	local  map[string]term.Term
}

// New returns an empty Bindings.
func New() *Bindings {
	return &Bindings{}
}

// Lookup returns the term bound to name and true, or (nil, false) if name
// is unbound in b or any of its ancestors.
func (b *Bindings) Lookup(name string) (term.Term, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if cur.local == nil {
			continue
		}
		if t, ok := cur.local[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Extend returns a new Bindings with name bound to t, layered on top of b.
// b itself is never mutated.
func (b *Bindings) Extend(name string, t term.Term) *Bindings {
	return &Bindings{
		parent: b,
		local:  map[string]term.Term{name: t},
	}
}

// Flatten materializes every binding reachable from b into a single flat
// map, most specific (most recently extended) wins. Useful when callers
// need to range over all bindings, e.g. to substitute a consequent.
func (b *Bindings) Flatten() map[string]term.Term {
	out := make(map[string]term.Term)
	// Walk from root to b so later (closer) layers overwrite earlier ones.
	var chain []*Bindings
	for cur := b; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].local {
			out[k] = v
		}
	}
	return out
}

// chase follows a chain of variable-to-variable bindings to the current
// image of t under b: if t is a bound variable, chase resolves to whatever
// it is ultimately bound to (which may itself be a compound term containing
// other variables — chase does not recurse into structure, only follows
// the binding of a variable at the top level).
func chase(b *Bindings, t term.Term) term.Term {
	for {
		v, ok := t.(*term.Variable)
		if !ok {
			return t
		}
		bound, ok := b.Lookup(v.Name())
		if !ok {
			return t
		}
		t = bound
	}
}

package unify

import "github.com/gitrdm/kifreasoner/pkg/term"

// Unify attempts full unification of x and y under bindings, where
// variables on either side may bind. It returns the extended bindings on
// success, or (nil, false) on structural mismatch or an occurs-check
// failure (binding a variable to a term that already contains it).
//
// List unification requires equal arity; children are unified left to
// right, short-circuiting on the first failure. Binding a variable that is
// already bound recurses on its current image (chase) rather than
// shadowing it.
func Unify(x, y term.Term, b *Bindings) (*Bindings, bool) {
	x = chase(b, x)
	y = chase(b, y)

	if xv, ok := x.(*term.Variable); ok {
		if yv, ok := y.(*term.Variable); ok && yv.Name() == xv.Name() {
			return b, true
		}
		return bindVariable(xv, y, b)
	}
	if yv, ok := y.(*term.Variable); ok {
		return bindVariable(yv, x, b)
	}

	switch xt := x.(type) {
	case *term.Atom:
		yt, ok := y.(*term.Atom)
		return b, ok && yt.Value() == xt.Value()
	case *term.List:
		yt, ok := y.(*term.List)
		if !ok || yt.Len() != xt.Len() {
			return nil, false
		}
		cur := b
		for i, xi := range xt.Items() {
			next, ok := Unify(xi, yt.Items()[i], cur)
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

// bindVariable binds v to t under b, rejecting the binding if it would
// fail the occurs-check (t, after chasing, contains v).
func bindVariable(v *term.Variable, t term.Term, b *Bindings) (*Bindings, bool) {
	t = chase(b, t)
	if tv, ok := t.(*term.Variable); ok && tv.Name() == v.Name() {
		return b, true
	}
	if occurs(v, t, b) {
		return nil, false
	}
	return b.Extend(v.Name(), t), true
}

// occurs reports whether v appears anywhere within t once every variable
// reachable under b has been chased to its current image.
func occurs(v *term.Variable, t term.Term, b *Bindings) bool {
	t = chase(b, t)
	switch tt := t.(type) {
	case *term.Variable:
		return tt.Name() == v.Name()
	case *term.List:
		for _, it := range tt.Items() {
			if occurs(v, it, b) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

package reasoner

import (
	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

// expandQuantifier inspects a submitted input term for a top-level exists
// or forall wrapper and reports how it should be handled:
//
//   - (exists (vars…|var) body) skolemizes every bound variable to a fresh
//     skolem_<name>_<counter> atom and returns the substituted body, to be
//     resubmitted as an ordinary input from the same source.
//   - (forall vars (=>|<=> ant con)) reinterprets as the inner rule form.
//   - any other forall shape is ignored with a diagnostic.
//   - anything else is returned unchanged, handled is false.
func (e *Engine) expandQuantifier(t term.Term) (result term.Term, asRule bool, handled bool) {
	lst, ok := t.(*term.List)
	if !ok {
		return t, false, false
	}
	op, hasOp := lst.Operator()
	if !hasOp {
		return t, false, false
	}
	switch op {
	case "exists":
		if lst.Len() != 3 {
			diag.Log(diag.Validation, "malformed exists form", diag.Fields{"kif": lst.String()})
			return nil, false, true
		}
		bound := quantifierBoundVars(lst.Items()[1])
		subst := make(map[string]term.Term, len(bound))
		for name := range bound {
			subst[name] = term.NewAtom(e.ids.skolemName(name))
		}
		return substituteVars(lst.Items()[2], subst), false, true
	case "forall":
		if lst.Len() == 3 {
			if inner, ok := lst.Items()[2].(*term.List); ok {
				if innerOp, ok := inner.Operator(); ok && (innerOp == "=>" || innerOp == "<=>") {
					return inner, true, true
				}
			}
		}
		diag.Log(diag.Validation, "unsupported forall shape ignored", diag.Fields{"kif": lst.String()})
		return nil, false, true
	default:
		return t, false, false
	}
}

// substituteVars replaces every variable named in subst with its mapped
// term, recursively, leaving unmapped variables untouched.
func substituteVars(t term.Term, subst map[string]term.Term) term.Term {
	switch tt := t.(type) {
	case *term.Variable:
		if r, ok := subst[tt.Name()]; ok {
			return r
		}
		return t
	case *term.List:
		items := tt.Items()
		newItems := make([]term.Term, len(items))
		for i, it := range items {
			newItems[i] = substituteVars(it, subst)
		}
		return term.NewList(newItems...)
	default:
		return t
	}
}

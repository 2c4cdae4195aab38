package reasoner

import (
	"github.com/pkg/errors"

	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

// parseRuleForms validates a submitted rule form and expands it into the
// one or two kb.Rule values it registers: a single rule for "=>", or the
// forward and backward directions for "<=>" (both sharing Form so that
// retracting by the original form removes both).
func parseRuleForms(gen *idGenerator, form *term.List) ([]*kb.Rule, error) {
	op, ok := form.Operator()
	if !ok || form.Len() != 3 || (op != "=>" && op != "<=>") {
		return nil, errors.New("rule form must be (=>|<=> antecedent consequent)")
	}
	items := form.Items()
	ant, con := items[1], items[2]

	if err := validateAntecedent(ant); err != nil {
		return nil, err
	}

	if op == "<=>" {
		fwd, err := buildRule(gen, form, ant, con)
		if err != nil {
			return nil, err
		}
		if err := validateAntecedent(con); err != nil {
			return nil, err
		}
		bwd, err := buildRule(gen, form, con, ant)
		if err != nil {
			return nil, err
		}
		return []*kb.Rule{fwd, bwd}, nil
	}

	checkUnboundConsequentVars(ant, con)
	r, err := buildRule(gen, form, ant, con)
	if err != nil {
		return nil, err
	}
	return []*kb.Rule{r}, nil
}

func buildRule(gen *idGenerator, form *term.List, ant, con term.Term) (*kb.Rule, error) {
	clauses := antecedentClauses(ant)
	return &kb.Rule{
		ID:                gen.ruleID(),
		Form:              form,
		Antecedent:        ant,
		Consequent:        con,
		Priority:          1.0,
		AntecedentClauses: clauses,
	}, nil
}

// antecedentClauses splits an antecedent into its conjuncts: the operands
// of a top-level "and", or a single-element slice otherwise.
func antecedentClauses(ant term.Term) []term.Term {
	if lst, ok := ant.(*term.List); ok {
		if op, ok := lst.Operator(); ok && op == "and" {
			return lst.Items()[1:]
		}
	}
	return []term.Term{ant}
}

// validateAntecedent checks every clause produced by antecedentClauses: a
// clause must be a list directly, or "(not list)". Several clauses can be
// malformed independently, so problems accumulate onto a single
// multierror rather than stopping at the first one, giving the caller a
// complete picture of what to fix in one pass.
func validateAntecedent(ant term.Term) error {
	var result error
	for _, clause := range antecedentClauses(ant) {
		lst, ok := clause.(*term.List)
		if !ok {
			result = diag.Append(result, errors.Errorf("antecedent clause %q must be a list", clause.String()))
			continue
		}
		if op, ok := lst.Operator(); ok && op == "not" {
			if _, ok := term.NegatedList(lst); !ok {
				result = diag.Append(result, errors.Errorf("negated antecedent clause %q must wrap a list", lst.String()))
			}
		}
	}
	return result
}

// checkUnboundConsequentVars logs a validation diagnostic (never an error —
// the rule is still registered) when the consequent of a "=>" rule
// mentions a variable neither bound by the antecedent nor by a local
// exists/forall quantifier nested in the consequent itself.
func checkUnboundConsequentVars(ant, con term.Term) {
	bound := ant.Variables()
	local := collectLocallyBoundVars(con)
	var unbound []string
	for name := range con.Variables() {
		if _, ok := bound[name]; ok {
			continue
		}
		if _, ok := local[name]; ok {
			continue
		}
		unbound = append(unbound, name)
	}
	if len(unbound) > 0 {
		diag.Log(diag.Validation, "rule consequent has unbound variables", diag.Fields{
			"variables": unbound,
		})
	}
}

// collectLocallyBoundVars walks t looking for exists/forall forms and
// collects the variable names they bind, recursively, so that a nested
// local quantifier inside a consequent can account for its own variables.
func collectLocallyBoundVars(t term.Term) map[string]struct{} {
	out := make(map[string]struct{})
	collectLocallyBoundVarsInto(t, out)
	return out
}

func collectLocallyBoundVarsInto(t term.Term, out map[string]struct{}) {
	lst, ok := t.(*term.List)
	if !ok {
		return
	}
	op, hasOp := lst.Operator()
	if hasOp && (op == "exists" || op == "forall") && lst.Len() == 3 {
		for name := range quantifierBoundVars(lst.Items()[1]) {
			out[name] = struct{}{}
		}
	}
	for _, it := range lst.Items() {
		collectLocallyBoundVarsInto(it, out)
	}
}

// quantifierBoundVars returns the variable names named in a quantifier's
// variable-list position, which is either a single variable or a list of
// variables.
func quantifierBoundVars(varsTerm term.Term) map[string]struct{} {
	out := make(map[string]struct{})
	switch vt := varsTerm.(type) {
	case *term.Variable:
		out[vt.Name()] = struct{}{}
	case *term.List:
		for _, it := range vt.Items() {
			if v, ok := it.(*term.Variable); ok {
				out[v.Name()] = struct{}{}
			}
		}
	}
	return out
}

package reasoner

import (
	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
	"github.com/gitrdm/kifreasoner/pkg/unify"
)

// effectiveTerm strips a clause's outer "not" wrapper, mirroring
// kb.Assertion.EffectiveTerm for a term that is not yet stored.
func effectiveTerm(t term.Term) term.Term {
	if lst, ok := t.(*term.List); ok {
		if inner, ok := term.NegatedList(lst); ok {
			return inner
		}
	}
	return t
}

func copySupport(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func remainingClauses(all []term.Term, skipIdx int) []term.Term {
	out := make([]term.Term, 0, len(all)-1)
	for i, c := range all {
		if i == skipIdx {
			continue
		}
		out = append(out, c)
	}
	return out
}

// runMatchAntecedentTask resumes antecedent matching for task, over every
// clause except the one already satisfied against the trigger assertion.
func (e *Engine) runMatchAntecedentTask(task *MatchAntecedentTask) {
	support := map[string]struct{}{task.TriggerID: {}}
	remaining := remainingClauses(task.Rule.AntecedentClauses, task.TriggerClauseIndex)
	e.matchAntecedent(task.Rule, remaining, 0, task.InitialBindings, support)
}

// matchAntecedent recursively satisfies clauses[idx:] under bindings,
// accumulating support, and fires the rule once every clause succeeds.
func (e *Engine) matchAntecedent(rule *kb.Rule, clauses []term.Term, idx int, bindings *unify.Bindings, support map[string]struct{}) {
	if idx >= len(clauses) {
		e.fireRule(rule, bindings, support)
		return
	}

	clauseSubst, hitBound := unify.SubstFully(clauses[idx], bindings, e.cfg.MaxSubstDepth)
	if hitBound {
		diag.Log(diag.InternalInvariant, "substitution depth bound hit matching antecedent clause", diag.Fields{
			"rule_id": rule.ID,
		})
	}

	eff := effectiveTerm(clauseSubst)
	for _, cand := range e.kb.FindUnifiable(clauseSubst) {
		nb, ok := unify.Unify(eff, cand.EffectiveTerm(), bindings)
		if !ok {
			continue
		}
		next := copySupport(support)
		next[cand.ID] = struct{}{}
		e.matchAntecedent(rule, clauses, idx+1, nb, next)
	}
}

// fireRule substitutes the rule's consequent with the bindings produced by
// a fully satisfied antecedent and hands the result to derivation
// processing.
func (e *Engine) fireRule(rule *kb.Rule, bindings *unify.Bindings, support map[string]struct{}) {
	consequent, hitBound := unify.SubstFully(rule.Consequent, bindings, e.cfg.MaxSubstDepth)
	if hitBound {
		diag.Log(diag.InternalInvariant, "substitution depth bound hit substituting consequent", diag.Fields{
			"rule_id": rule.ID,
		})
	}
	e.processDerived(consequent, support, rule.ID)
}

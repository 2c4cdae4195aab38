package reasoner

import (
	"github.com/gitrdm/kifreasoner/pkg/events"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
	"github.com/gitrdm/kifreasoner/pkg/unify"
)

// isNegatedClause reports whether an antecedent clause is "(not list)".
func isNegatedClause(clause term.Term) bool {
	lst, ok := clause.(*term.List)
	if !ok {
		return false
	}
	op, ok := lst.Operator()
	return ok && op == "not"
}

// onOrientedEqAdded tracks newly committed positive oriented equalities so
// generateRewriteTasksForNewAssertion can scan them for subterm-level
// rewrite candidates the path index cannot express (it indexes top-level
// structure only).
func (e *Engine) onOrientedEqAdded(n events.Notification) {
	a := n.Assertion
	if a == nil || a.IsNegated || !a.IsOrientedEquality {
		return
	}
	e.orientedEqMu.Lock()
	defer e.orientedEqMu.Unlock()
	e.orientedEq[a.ID] = a
}

// onOrientedEqRemoved drops a retracted or evicted assertion from the
// tracked oriented-equality set.
func (e *Engine) onOrientedEqRemoved(n events.Notification) {
	if n.Assertion == nil {
		return
	}
	e.orientedEqMu.Lock()
	defer e.orientedEqMu.Unlock()
	delete(e.orientedEq, n.Assertion.ID)
}

func (e *Engine) trackedOrientedEqualities() []*kb.Assertion {
	e.orientedEqMu.RLock()
	defer e.orientedEqMu.RUnlock()
	out := make([]*kb.Assertion, 0, len(e.orientedEq))
	for _, a := range e.orientedEq {
		out = append(out, a)
	}
	return out
}

func (e *Engine) allRules() []*kb.Rule {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()
	out := make([]*kb.Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r)
	}
	return out
}

// generateTasksForNewAssertion is step §4.5.3: rule-match tasks for every
// rule/clause pairing the new assertion satisfies, plus rewrite tasks in
// either direction between the new assertion and known oriented
// equalities.
func (e *Engine) generateTasksForNewAssertion(a *kb.Assertion) {
	e.generateRuleMatchTasks(a.EffectiveTerm(), a.IsNegated, a.ID, a.Priority, e.allRules())
	e.generateRewriteTasksForNewAssertion(a)
}

// generateTasksForNewRule performs the symmetric rule-match step against
// every existing assertion when a rule is newly added.
func (e *Engine) generateTasksForNewRule(rule *kb.Rule) {
	for _, a := range e.kb.All() {
		e.generateRuleMatchTasks(a.EffectiveTerm(), a.IsNegated, a.ID, a.Priority, []*kb.Rule{rule})
	}
}

func (e *Engine) generateRuleMatchTasks(effective term.Term, negated bool, triggerID string, triggerPriority float64, rules []*kb.Rule) {
	for _, rule := range rules {
		for i, clause := range rule.AntecedentClauses {
			if isNegatedClause(clause) != negated {
				continue
			}
			pattern := effectiveTerm(clause)
			bindings, ok := unify.Unify(pattern, effective, unify.New())
			if !ok {
				continue
			}
			priority := (rule.Priority + triggerPriority) / 2
			e.tasks.Push(NewMatchAntecedentTask(rule, triggerID, i, bindings, priority))
		}
	}
}

// generateRewriteTasksForNewAssertion implements §4.5.3 step 2.
func (e *Engine) generateRewriteTasksForNewAssertion(a *kb.Assertion) {
	if a.IsOrientedEquality && !a.IsNegated && a.Kif.Len() == 3 {
		lhs := a.Kif.Items()[1]
		for _, cand := range e.kb.FindUnifiable(lhs) {
			if cand.ID == a.ID {
				continue
			}
			priority := (a.Priority + cand.Priority) / 2
			e.tasks.Push(NewApplyOrderedRewriteTask(a, cand, priority))
		}
		return
	}

	for _, eq := range e.trackedOrientedEqualities() {
		items := eq.Kif.Items()
		lhs, rhs := items[1], items[2]
		if _, ok := unify.Rewrite(a.Kif, lhs, rhs); ok {
			priority := (eq.Priority + a.Priority) / 2
			e.tasks.Push(NewApplyOrderedRewriteTask(eq, a, priority))
		}
	}
}

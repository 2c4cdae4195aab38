package reasoner

import (
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/unify"
)

// Task is the inference work unit the task queue carries: tagged variant
// over MatchAntecedentTask and ApplyOrderedRewriteTask, sealed to this
// package the same way term.Term is sealed to pkg/term.
type Task interface {
	Priority() float64
	sealed()
}

// MatchAntecedentTask asks a worker to find bindings satisfying the
// remaining antecedent clauses of Rule, given that one clause has already
// been unified against the assertion Trigger, producing InitialBindings.
type MatchAntecedentTask struct {
	Rule               *kb.Rule
	TriggerID          string
	TriggerClauseIndex int
	InitialBindings    *unify.Bindings
	priority           float64
}

func (t *MatchAntecedentTask) Priority() float64 { return t.priority }
func (t *MatchAntecedentTask) sealed()           {}

// NewMatchAntecedentTask constructs a MatchAntecedentTask at the given
// priority. triggerClauseIndex is the index into rule.AntecedentClauses
// that was already satisfied against the trigger assertion to produce
// bindings; matching resumes over the remaining clauses.
func NewMatchAntecedentTask(rule *kb.Rule, triggerID string, triggerClauseIndex int, bindings *unify.Bindings, priority float64) *MatchAntecedentTask {
	return &MatchAntecedentTask{
		Rule:               rule,
		TriggerID:          triggerID,
		TriggerClauseIndex: triggerClauseIndex,
		InitialBindings:    bindings,
		priority:           priority,
	}
}

// ApplyOrderedRewriteTask asks a worker to rewrite Target.Kif using the
// oriented equality carried by RewriteRule.
type ApplyOrderedRewriteTask struct {
	RewriteRule *kb.Assertion
	Target      *kb.Assertion
	priority    float64
}

func (t *ApplyOrderedRewriteTask) Priority() float64 { return t.priority }
func (t *ApplyOrderedRewriteTask) sealed()           {}

// NewApplyOrderedRewriteTask constructs an ApplyOrderedRewriteTask at the
// given priority.
func NewApplyOrderedRewriteTask(rewriteRule, target *kb.Assertion, priority float64) *ApplyOrderedRewriteTask {
	return &ApplyOrderedRewriteTask{RewriteRule: rewriteRule, Target: target, priority: priority}
}

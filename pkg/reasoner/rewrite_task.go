package reasoner

import (
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
	"github.com/gitrdm/kifreasoner/pkg/unify"
)

// runApplyOrderedRewriteTask applies task.RewriteRule's oriented equality
// to task.Target, submitting the result as a derived term if it changed
// anything and is not trivial.
func (e *Engine) runApplyOrderedRewriteTask(task *ApplyOrderedRewriteTask) {
	rule := task.RewriteRule
	if rule.IsNegated || !rule.IsOrientedEquality || rule.Kif.Len() != 3 {
		return
	}
	items := rule.Kif.Items()
	lhs, rhs := items[1], items[2]

	rewritten, ok := unify.Rewrite(task.Target.Kif, lhs, rhs)
	if !ok {
		return
	}
	rewrittenList, ok := rewritten.(*term.List)
	if !ok || rewrittenList.Equal(task.Target.Kif) {
		return
	}
	if term.IsTrivial(rewrittenList) {
		return
	}

	support := copySupport(task.Target.Support)
	support[task.Target.ID] = struct{}{}
	support[rule.ID] = struct{}{}

	isNegated, isEquality, isOrientedEquality := deriveFlags(rewrittenList)
	pa := &kb.PotentialAssertion{
		Kif:                rewrittenList,
		Priority:           e.minSupporterPriority(support) * e.cfg.PriorityDecay,
		Support:            support,
		SourceID:           rule.ID,
		SourceNoteID:       e.commonSourceNoteID(support),
		IsEquality:         isEquality,
		IsOrientedEquality: isOrientedEquality,
		IsNegated:          isNegated,
	}
	e.enqueueCommit(pa)
}

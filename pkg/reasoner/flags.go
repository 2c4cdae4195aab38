package reasoner

import "github.com/gitrdm/kifreasoner/pkg/term"

// deriveFlags computes is_negated/is_equality/is_oriented_equality from a
// kif list's structure, per the invariants in the data model: negated iff
// operator is "not"; equality iff operator is "=" with arity 3; oriented
// iff equality and the first argument outweighs the second.
func deriveFlags(kif *term.List) (isNegated, isEquality, isOrientedEquality bool) {
	op, hasOp := kif.Operator()
	if hasOp && op == "not" {
		isNegated = true
	}
	if hasOp && op == "=" && kif.Len() == 3 {
		isEquality = true
		items := kif.Items()
		if items[1].Weight() > items[2].Weight() {
			isOrientedEquality = true
		}
	}
	return isNegated, isEquality, isOrientedEquality
}

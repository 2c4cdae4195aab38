// Package kb is the knowledge base: the set of stored assertions, the
// path index over them, the supporter→dependent dependency graph, and
// the priority-ordered eviction structure, all guarded by a single
// reader-writer lock so that commit and retract serialize against each
// other exactly as the dependency-soundness property requires.
package kb

import (
	"github.com/sirupsen/logrus"

	"github.com/gitrdm/kifreasoner/pkg/term"
)

// Assertion is an immutable, stored, ground term with metadata. It is
// never mutated after construction; retraction and eviction destroy it
// by removing it from the KB's state, not by altering its fields.
type Assertion struct {
	ID                 string
	Kif                *term.List
	Priority           float64
	Timestamp          int64
	SourceNoteID       string // empty means "none"
	Support            map[string]struct{}
	IsEquality         bool
	IsOrientedEquality bool
	IsNegated          bool

	// kifHash/effHash are term.ContentHash pre-filters computed once at
	// commit time, used by the exact-match and subsumption fast paths to
	// rule out non-matching candidates with an integer comparison before
	// paying for a full Equal/Match structural walk. The *OK flags are
	// false when hashing failed (vanishingly rare), in which case callers
	// must skip the pre-filter and fall straight through to the real
	// comparison.
	kifHash   uint64
	kifHashOK bool
	effHash   uint64
	effHashOK bool
}

// EffectiveTerm returns the inner list of a negated assertion, or Kif
// itself otherwise — the form used for pattern matching that ignores
// polarity.
func (a *Assertion) EffectiveTerm() *term.List {
	if a.IsNegated {
		if inner, ok := term.NegatedList(a.Kif); ok {
			return inner
		}
	}
	return a.Kif
}

// Fields renders the assertion as structured logging context.
func (a *Assertion) Fields() logrus.Fields {
	return logrus.Fields{
		"assertion_id": a.ID,
		"kif":          a.Kif.String(),
		"priority":     a.Priority,
		"support_size": len(a.Support),
	}
}

// Rule is an immutable `(=>|<=> antecedent consequent)` form whose
// antecedent clauses are lists or `(not list)`, registered once and
// removed by exact form equality.
type Rule struct {
	ID                string
	Form              *term.List
	Antecedent        term.Term
	Consequent        term.Term
	Priority          float64
	AntecedentClauses []term.Term
}

// Fields renders the rule as structured logging context.
func (r *Rule) Fields() logrus.Fields {
	return logrus.Fields{
		"rule_id":  r.ID,
		"form":     r.Form.String(),
		"priority": r.Priority,
	}
}

// PotentialAssertion is a candidate carrying the same fields as Assertion
// minus ID and Timestamp; two potential assertions are equal by Kif.
type PotentialAssertion struct {
	Kif                *term.List
	Priority           float64
	Support            map[string]struct{}
	SourceID           string
	SourceNoteID       string
	IsEquality         bool
	IsOrientedEquality bool
	IsNegated          bool
}

// EffectiveTerm mirrors Assertion.EffectiveTerm for a not-yet-committed
// candidate.
func (p *PotentialAssertion) EffectiveTerm() *term.List {
	if p.IsNegated {
		if inner, ok := term.NegatedList(p.Kif); ok {
			return inner
		}
	}
	return p.Kif
}

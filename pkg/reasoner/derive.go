package reasoner

import (
	"math"

	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

// processDerived simplifies a raw derivation to a fixed point and submits
// its conjuncts (or itself, if the top-level operator is not "and") as
// individual derived terms.
func (e *Engine) processDerived(raw term.Term, support map[string]struct{}, sourceID string) {
	simplified := simplify(raw, e.cfg.MaxSimplifyDepth)
	if lst, ok := simplified.(*term.List); ok {
		if op, hasOp := lst.Operator(); hasOp && op == "and" {
			for _, conjunct := range lst.Items()[1:] {
				e.submitDerivedTerm(conjunct, support, sourceID)
			}
			return
		}
	}
	e.submitDerivedTerm(simplified, support, sourceID)
}

// submitDerivedTerm applies the discard/weight-bound checks the design
// calls for and, if the term survives, enqueues it for commit.
func (e *Engine) submitDerivedTerm(t term.Term, support map[string]struct{}, sourceID string) {
	if t.ContainsVariable() {
		diag.Log(diag.Validation, "derived term discarded: non-ground", diag.Fields{"term": t.String()})
		return
	}
	lst, ok := t.(*term.List)
	if !ok {
		diag.Log(diag.Validation, "derived term discarded: not a list", diag.Fields{"term": t.String()})
		return
	}
	if term.IsTrivial(lst) {
		return
	}
	if lst.Weight() > e.cfg.MaxDerivedWeight {
		diag.Log(diag.Validation, "derived term discarded: exceeds weight bound", diag.Fields{
			"term":   lst.String(),
			"weight": lst.Weight(),
			"bound":  e.cfg.MaxDerivedWeight,
		})
		return
	}

	isNegated, isEquality, isOrientedEquality := deriveFlags(lst)
	pa := &kb.PotentialAssertion{
		Kif:                lst,
		Priority:           e.minSupporterPriority(support) * e.cfg.PriorityDecay,
		Support:            support,
		SourceID:           sourceID,
		SourceNoteID:       e.commonSourceNoteID(support),
		IsEquality:         isEquality,
		IsOrientedEquality: isOrientedEquality,
		IsNegated:          isNegated,
	}
	e.enqueueCommit(pa)
}

// minSupporterPriority returns the lowest priority among the currently
// stored assertions named in support, or 0 if none resolve (should not
// happen for a well-formed support set).
func (e *Engine) minSupporterPriority(support map[string]struct{}) float64 {
	min := math.Inf(1)
	found := false
	for id := range support {
		if a, ok := e.kb.Get(id); ok {
			found = true
			if a.Priority < min {
				min = a.Priority
			}
		}
	}
	if !found {
		return 0
	}
	return min
}

// commonSourceNoteID returns the unique source-note id reachable by BFS
// over support and each supporter's own support, or "" if zero or more
// than one distinct value is found.
func (e *Engine) commonSourceNoteID(support map[string]struct{}) string {
	visited := make(map[string]struct{})
	queue := make([]string, 0, len(support))
	for id := range support {
		queue = append(queue, id)
	}
	found := make(map[string]struct{})
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		a, ok := e.kb.Get(id)
		if !ok {
			continue
		}
		if a.SourceNoteID != "" {
			found[a.SourceNoteID] = struct{}{}
		}
		for s := range a.Support {
			queue = append(queue, s)
		}
	}
	if len(found) == 1 {
		for id := range found {
			return id
		}
	}
	return ""
}

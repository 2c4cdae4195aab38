package kb

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gitrdm/kifreasoner/pkg/index"
	"github.com/gitrdm/kifreasoner/pkg/term"
	"github.com/gitrdm/kifreasoner/pkg/unify"
)

// EventSink receives notifications of KB state changes. The reasoner
// wires an *events.Dispatcher here; the KB never depends on the events
// package itself, only on this narrow interface, so ownership of
// assertions/index stays exclusively with the KB as specified.
type EventSink interface {
	AssertAdded(a *Assertion)
	AssertRetracted(a *Assertion)
	Evicted(a *Assertion)
}

// Options configures a KnowledgeBase. Capacity is ordinarily populated from
// internal/config.Tunables.KBCapacity by the caller that constructs the
// reasoner, keeping this package free of a config import; EvictionEnabled
// is set directly by that caller (Tunables has no eviction flag).
type Options struct {
	Capacity        int
	EvictionEnabled bool
	Sink            EventSink
}

// KnowledgeBase owns the assertion store, path index, dependency graph,
// and eviction heap described in the design. All externally visible
// operations take mu appropriately: readers (queries, subsumption) use
// RLock, writers (commit, retract, clear) use Lock.
type KnowledgeBase struct {
	mu sync.RWMutex

	assertionsByID map[string]*Assertion
	index          *index.PathIndex
	depGraph       map[string]map[string]struct{} // supporter id -> dependent ids
	heap           *evictionHeap

	capacity        int
	evictionEnabled bool
	sink            EventSink
}

// New constructs an empty KnowledgeBase per opts.
func New(opts Options) *KnowledgeBase {
	return &KnowledgeBase{
		assertionsByID:  make(map[string]*Assertion),
		index:           index.New(),
		depGraph:        make(map[string]map[string]struct{}),
		heap:            newEvictionHeap(),
		capacity:        opts.Capacity,
		evictionEnabled: opts.EvictionEnabled,
		sink:            opts.Sink,
	}
}

// Get returns the assertion stored under id, if any.
func (kb *KnowledgeBase) Get(id string) (*Assertion, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	a, ok := kb.assertionsByID[id]
	return a, ok
}

// All returns every assertion currently stored, in no particular order.
// Used when a newly added rule must be matched against the entire
// existing assertion set.
func (kb *KnowledgeBase) All() []*Assertion {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	out := make([]*Assertion, 0, len(kb.assertionsByID))
	for _, a := range kb.assertionsByID {
		out = append(out, a)
	}
	return out
}

// Len returns the number of assertions currently stored.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.assertionsByID)
}

// Commit validates and inserts a potential assertion. It returns (nil,
// nil) when the candidate is silently rejected (trivial, an exact
// duplicate, or subsumed), and a non-nil error only for conditions the
// design calls diagnostics on: id collision, or capacity exhausted with
// eviction unable to free room.
func (kb *KnowledgeBase) Commit(pa *PotentialAssertion, newID string, timestamp int64) (*Assertion, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if term.IsTrivial(pa.Kif) {
		return nil, nil
	}
	if kb.findExactMatchLocked(pa.Kif) != nil {
		return nil, nil
	}
	if kb.isSubsumedLocked(pa) {
		return nil, nil
	}
	if _, exists := kb.assertionsByID[newID]; exists {
		return nil, errors.Errorf("kb: id collision committing %q", newID)
	}
	if len(kb.assertionsByID) >= kb.capacity {
		if !kb.evictionEnabled {
			return nil, errors.Errorf("kb: at capacity (%d) and eviction disabled", kb.capacity)
		}
		if err := kb.evictUntilUnderCapacityLocked(); err != nil {
			return nil, errors.Wrap(err, "kb: commit rejected")
		}
	}

	support := make(map[string]struct{}, len(pa.Support))
	for s := range pa.Support {
		support[s] = struct{}{}
	}

	a := &Assertion{
		ID:                 newID,
		Kif:                pa.Kif,
		Priority:           pa.Priority,
		Timestamp:          timestamp,
		SourceNoteID:       pa.SourceNoteID,
		Support:            support,
		IsEquality:         pa.IsEquality,
		IsOrientedEquality: pa.IsOrientedEquality,
		IsNegated:          pa.IsNegated,
	}
	a.kifHash, a.kifHashOK = hashOf(a.Kif)
	a.effHash, a.effHashOK = hashOf(a.EffectiveTerm())

	kb.assertionsByID[newID] = a
	kb.index.Add(newID, a.Kif)
	kb.heap.Insert(newID, a.Priority)
	for s := range support {
		if kb.depGraph[s] == nil {
			kb.depGraph[s] = make(map[string]struct{})
		}
		kb.depGraph[s][newID] = struct{}{}
	}

	if kb.sink != nil {
		kb.sink.AssertAdded(a)
	}
	return a, nil
}

// evictUntilUnderCapacityLocked pops the lowest-priority assertion and
// cascade-retracts it, repeating until the KB is below capacity. Must be
// called with mu held for writing.
func (kb *KnowledgeBase) evictUntilUnderCapacityLocked() error {
	for len(kb.assertionsByID) >= kb.capacity {
		id, ok := kb.heap.PopLowest()
		if !ok {
			return errors.New("eviction heap empty, cannot free capacity")
		}
		removed := kb.cascadeRemove(id)
		for i, a := range removed {
			if kb.sink == nil {
				continue
			}
			if i == 0 {
				kb.sink.Evicted(a)
			} else {
				kb.sink.AssertRetracted(a)
			}
		}
	}
	return nil
}

// Retract cascade-retracts id and everything that transitively depends on
// it, returning the requested assertion (or nil if it was already gone —
// retract is idempotent).
func (kb *KnowledgeBase) Retract(id string) *Assertion {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	removed := kb.cascadeRemove(id)
	for _, a := range removed {
		if kb.sink != nil {
			kb.sink.AssertRetracted(a)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	return removed[0]
}

// cascadeRemove removes id and every transitive dependent from all KB
// state (store, index, heap, dependency graph) without emitting events,
// returning every removed assertion in removal order (id first). Callers
// decide which event each removal deserves.
func (kb *KnowledgeBase) cascadeRemove(id string) []*Assertion {
	a, ok := kb.assertionsByID[id]
	if !ok {
		return nil
	}
	delete(kb.assertionsByID, id)
	kb.index.Remove(id, a.Kif)
	kb.heap.Remove(id)

	for s := range a.Support {
		if deps, ok := kb.depGraph[s]; ok {
			delete(deps, id)
			if len(deps) == 0 {
				delete(kb.depGraph, s)
			}
		}
	}

	dependents := kb.depGraph[id]
	delete(kb.depGraph, id)

	result := []*Assertion{a}
	for depID := range dependents {
		result = append(result, kb.cascadeRemove(depID)...)
	}
	return result
}

// Clear removes every assertion, dependency edge, and index entry.
func (kb *KnowledgeBase) Clear() {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.assertionsByID = make(map[string]*Assertion)
	kb.index = index.New()
	kb.depGraph = make(map[string]map[string]struct{})
	kb.heap = newEvictionHeap()
}

func effectiveAndPolarity(t term.Term) (negated bool, effective term.Term) {
	if lst, ok := t.(*term.List); ok {
		if inner, ok2 := term.NegatedList(lst); ok2 {
			return true, inner
		}
	}
	return false, t
}

// FindUnifiable returns the assertions whose effective term unifies with
// query's effective term and whose polarity matches query's, verified by
// real Unify against the index's candidate superset.
func (kb *KnowledgeBase) FindUnifiable(query term.Term) []*Assertion {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.filterCandidates(kb.index.FindUnifiable(query), query, func(pattern, candidate term.Term) bool {
		_, ok := unify.Unify(pattern, candidate, unify.New())
		return ok
	})
}

// FindInstances returns the assertions that are ground instances of
// query, treated as a pattern.
func (kb *KnowledgeBase) FindInstances(query term.Term) []*Assertion {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.filterCandidates(kb.index.FindInstances(query), query, func(pattern, candidate term.Term) bool {
		_, ok := unify.Match(pattern, candidate, unify.New())
		return ok
	})
}

// FindGeneralizations returns the assertions that might generalize query
// — the dual of FindInstances, used for subsumption.
func (kb *KnowledgeBase) FindGeneralizations(query term.Term) []*Assertion {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.filterCandidates(kb.index.FindGeneralizations(query), query, func(pattern, candidate term.Term) bool {
		_, ok := unify.Match(candidate, pattern, unify.New())
		return ok
	})
}

func (kb *KnowledgeBase) filterCandidates(ids map[string]struct{}, query term.Term, verify func(pattern, candidate term.Term) bool) []*Assertion {
	qNeg, qEff := effectiveAndPolarity(query)
	var out []*Assertion
	for id := range ids {
		a, ok := kb.assertionsByID[id]
		if !ok || a.IsNegated != qNeg {
			continue
		}
		if verify(qEff, a.EffectiveTerm()) {
			out = append(out, a)
		}
	}
	return out
}

// FindExactMatch returns the assertion whose Kif is structurally equal to
// groundKif, if any.
func (kb *KnowledgeBase) FindExactMatch(groundKif *term.List) (*Assertion, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	a := kb.findExactMatchLocked(groundKif)
	return a, a != nil
}

func (kb *KnowledgeBase) findExactMatchLocked(kif *term.List) *Assertion {
	queryHash, queryOK := hashOf(kif)
	for id := range kb.index.FindGeneralizations(kif) {
		a := kb.assertionsByID[id]
		if a == nil {
			continue
		}
		if a.kifHashOK && queryOK && a.kifHash != queryHash {
			continue
		}
		if a.Kif.Equal(kif) {
			return a
		}
	}
	return nil
}

// hashOf computes term.ContentHash for t, reporting false when hashing
// failed so callers know to skip the pre-filter rather than treat a zero
// hash as meaningful.
func hashOf(t term.Term) (uint64, bool) {
	h, err := term.ContentHash(t)
	if err != nil {
		return 0, false
	}
	return h, true
}

// IsSubsumed reports whether some existing assertion with matching
// polarity generalizes pa, per the subsumption definition in the design.
func (kb *KnowledgeBase) IsSubsumed(pa *PotentialAssertion) bool {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.isSubsumedLocked(pa)
}

func (kb *KnowledgeBase) isSubsumedLocked(pa *PotentialAssertion) bool {
	_, qEff := effectiveAndPolarity(pa.Kif)
	queryHash, queryOK := hashOf(qEff)
	for id := range kb.index.FindGeneralizations(pa.Kif) {
		a := kb.assertionsByID[id]
		if a == nil || a.IsNegated != pa.IsNegated {
			continue
		}
		// Every stored and submitted kif is ground (enforced at
		// SubmitInput), so Match between a.EffectiveTerm() and qEff can
		// only succeed when the two terms are structurally identical;
		// a hash mismatch rules that out without the full Match walk.
		if a.effHashOK && queryOK && a.effHash != queryHash {
			continue
		}
		if _, ok := unify.Match(a.EffectiveTerm(), qEff, unify.New()); ok {
			return true
		}
	}
	return false
}

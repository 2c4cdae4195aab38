// Package index provides a path index over symbolic terms: a trie keyed by
// head symbol (or a wildcard/list marker) at each position, used by the
// knowledge base to discover *candidate* assertions quickly without a full
// table scan. Every query here returns a conservative superset; callers
// must always re-verify candidates with real unification or matching
// before treating them as answers — the index itself never performs
// unification.
package index

import (
	"strconv"
	"sync"

	"github.com/gitrdm/kifreasoner/pkg/term"
)

const wildcardKey = "var"

// node is one position in the trie. ids is the set of assertion ids whose
// indexed term passes through this node; children dispatches on the key
// computed for the term occupying this position; args, present only for
// list-keyed children, holds one independent sub-trie root per argument
// position of that list shape, so that a wildcard at one argument never
// has to reason about how many tokens a sibling argument's subtree
// occupies (each argument is its own self-contained trie).
type node struct {
	ids      map[string]struct{}
	children map[string]*node
	args     []*node
}

func newNode() *node {
	return &node{ids: make(map[string]struct{}), children: make(map[string]*node)}
}

// PathIndex is the concurrency-safe trie described above. The zero value
// is not usable; construct with New.
type PathIndex struct {
	mu   sync.RWMutex
	root *node
}

// New returns an empty PathIndex.
func New() *PathIndex {
	return &PathIndex{root: newNode()}
}

func computeKey(t term.Term) string {
	switch v := t.(type) {
	case *term.Atom:
		return "atom:" + v.Value()
	case *term.Variable:
		return wildcardKey
	case *term.List:
		arity := v.Len()
		if op, ok := v.Operator(); ok {
			return "list:" + op + ":" + strconv.Itoa(arity)
		}
		return "list::" + strconv.Itoa(arity)
	default:
		return "unknown"
	}
}

// Add records id as reaching every node along t's path, creating nodes and
// per-argument sub-tries as needed.
func (idx *PathIndex) Add(id string, t term.Term) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.root.ids[id] = struct{}{}
	insert(idx.root, id, t)
}

func insert(n *node, id string, t term.Term) {
	key := computeKey(t)
	child, ok := n.children[key]
	if !ok {
		child = newNode()
		n.children[key] = child
	}
	child.ids[id] = struct{}{}

	if lst, ok := t.(*term.List); ok {
		if child.args == nil {
			child.args = make([]*node, lst.Len())
			for i := range child.args {
				child.args[i] = newNode()
			}
		}
		for i, item := range lst.Items() {
			child.args[i].ids[id] = struct{}{}
			insert(child.args[i], id, item)
		}
	}
}

// Remove undoes a prior Add for id/t, pruning any subtree that no longer
// has any id passing through it.
func (idx *PathIndex) Remove(id string, t term.Term) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.root.ids, id)
	remove(idx.root, id, t)
}

func remove(n *node, id string, t term.Term) {
	key := computeKey(t)
	child, ok := n.children[key]
	if !ok {
		return
	}
	delete(child.ids, id)

	if lst, ok2 := t.(*term.List); ok2 && child.args != nil {
		for i, item := range lst.Items() {
			if i >= len(child.args) {
				continue
			}
			delete(child.args[i].ids, id)
			remove(child.args[i], id, item)
		}
	}

	if len(child.ids) == 0 {
		delete(n.children, key)
	}
}

// FindUnifiable returns a superset of the ids of assertions whose term
// might unify with query: both wildcard children (an index position that
// was, hypothetically, a variable) and key-matching children contribute
// candidates.
func (idx *PathIndex) FindUnifiable(query term.Term) map[string]struct{} {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return search(idx.root, query)
}

// FindInstances returns a superset of the ids of assertions that are
// ground instances of the pattern query: a variable in query collects
// everything reachable from the current node, exactly as in FindUnifiable.
//
// Per the reasoner's contract for this index, all three query methods
// return the same conservative superset and rely on the caller's
// subsequent real match/unify to discard false positives; FindInstances
// and FindGeneralizations exist as distinct, intention-revealing entry
// points (and a natural seam to sharpen independently later) even though
// today they share FindUnifiable's traversal.
func (idx *PathIndex) FindInstances(query term.Term) map[string]struct{} {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return search(idx.root, query)
}

// FindGeneralizations returns a superset of the ids of assertions that
// might generalize query — the dual of FindInstances, used by subsumption
// checks. See FindInstances for the shared-traversal note.
func (idx *PathIndex) FindGeneralizations(query term.Term) map[string]struct{} {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return search(idx.root, query)
}

func search(n *node, q term.Term) map[string]struct{} {
	if _, ok := q.(*term.Variable); ok {
		return copySet(n.ids)
	}

	result := make(map[string]struct{})
	if vchild, ok := n.children[wildcardKey]; ok {
		unionInto(result, vchild.ids)
	}

	key := computeKey(q)
	child, ok := n.children[key]
	if !ok {
		return result
	}

	if lst, ok := q.(*term.List); ok && child.args != nil {
		sub := child.ids
		for i, item := range lst.Items() {
			if i >= len(child.args) {
				break
			}
			sub = intersect(sub, search(child.args[i], item))
		}
		unionInto(result, sub)
	} else {
		unionInto(result, child.ids)
	}
	return result
}

func copySet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func unionInto(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for k := range small {
		if _, ok := large[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

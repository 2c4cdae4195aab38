package term

// reflexivePredicates is the fixed set of predicate symbols that make
// (op x x) and (not (op x x)) trivially true/false and therefore
// worthless to store.
var reflexivePredicates = map[string]struct{}{
	"instance":    {},
	"subclass":    {},
	"subrelation": {},
	"equivalent":  {},
	"same":        {},
	"equal":       {},
	"domain":      {},
	"range":       {},
	"=":           {},
}

// IsTrivial reports whether l is trivial: (op x x) for op in the reflexive
// predicate set (plus "="), or (not (op x x)) for the same set.
func IsTrivial(l *List) bool {
	if isReflexivePair(l) {
		return true
	}
	if inner, ok := NegatedList(l); ok {
		return isReflexivePair(inner)
	}
	return false
}

// isReflexivePair reports whether l is exactly (op x x) with op a
// reflexive predicate.
func isReflexivePair(l *List) bool {
	if l.Len() != 3 {
		return false
	}
	op, ok := l.Operator()
	if !ok {
		return false
	}
	if _, ok := reflexivePredicates[op]; !ok {
		return false
	}
	return l.Items()[1].Equal(l.Items()[2])
}

// NegatedList reports whether l is (not x) with x a list, returning x.
// This is the "effective term" unwrap used throughout the KB and reasoner
// to compare assertions ignoring polarity.
func NegatedList(l *List) (*List, bool) {
	if l.Len() != 2 {
		return nil, false
	}
	op, ok := l.Operator()
	if !ok || op != "not" {
		return nil, false
	}
	inner, ok := l.Items()[1].(*List)
	return inner, ok
}

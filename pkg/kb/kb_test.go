package kb

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/kifreasoner/pkg/term"
)

func mustKif(t *testing.T, src string) *term.List {
	t.Helper()
	terms, _, err := term.Parse(src)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	lst, ok := terms[0].(*term.List)
	require.True(t, ok)
	return lst
}

func pa(t *testing.T, src string, priority float64, support ...string) *PotentialAssertion {
	kif := mustKif(t, src)
	sup := make(map[string]struct{}, len(support))
	for _, s := range support {
		sup[s] = struct{}{}
	}
	isNeg := false
	if _, ok := term.NegatedList(kif); ok {
		isNeg = true
	}
	isEq := false
	if op, ok := kif.Operator(); ok && op == "=" && kif.Len() == 3 {
		isEq = true
	}
	return &PotentialAssertion{Kif: kif, Priority: priority, Support: sup, IsNegated: isNeg, IsEquality: isEq}
}

func TestCommitAndGet(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	a, err := k.Commit(pa(t, "(color red apple)", 1.0), "fact-1", 1)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, "fact-1", a.ID)

	got, ok := k.Get("fact-1")
	require.True(t, ok)
	require.Same(t, a, got)
}

func TestCommitRejectsTrivial(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	a, err := k.Commit(pa(t, "(= x x)", 1.0), "fact-1", 1)
	require.NoError(t, err)
	require.Nil(t, a)
	require.Equal(t, 0, k.Len())
}

func TestCommitRejectsExactDuplicate(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	_, err := k.Commit(pa(t, "(color red)", 1.0), "fact-1", 1)
	require.NoError(t, err)

	a2, err := k.Commit(pa(t, "(color red)", 2.0), "fact-2", 2)
	require.NoError(t, err)
	require.Nil(t, a2)
	require.Equal(t, 1, k.Len())

	a3, err := k.Commit(pa(t, "(not (color red))", 3.0), "fact-3", 3)
	require.NoError(t, err)
	require.NotNil(t, a3)
	require.Equal(t, 2, k.Len())
}

func TestCommitRejectsSubsumed(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	_, err := k.Commit(pa(t, "(color red apple)", 1.0), "fact-1", 1)
	require.NoError(t, err)

	a2, err := k.Commit(pa(t, "(color red apple)", 2.0), "fact-2", 2)
	require.NoError(t, err)
	require.Nil(t, a2)
	require.Equal(t, 1, k.Len())
}

func TestCommitIDCollision(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	_, err := k.Commit(pa(t, "(color red)", 1.0), "fact-1", 1)
	require.NoError(t, err)

	_, err = k.Commit(pa(t, "(color blue)", 1.0), "fact-1", 2)
	require.Error(t, err)
}

func TestRetractCascades(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	_, err := k.Commit(pa(t, "(human socrates)", 10.0), "fact-1", 1)
	require.NoError(t, err)
	_, err = k.Commit(pa(t, "(mortal socrates)", 9.5, "fact-1"), "fact-2", 2)
	require.NoError(t, err)

	require.Equal(t, 2, k.Len())
	removed := k.Retract("fact-1")
	require.NotNil(t, removed)
	require.Equal(t, 0, k.Len())

	_, ok := k.Get("fact-2")
	require.False(t, ok, "dependent should have cascade-retracted")
}

func TestRetractIsIdempotent(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	_, err := k.Commit(pa(t, "(color red)", 1.0), "fact-1", 1)
	require.NoError(t, err)

	require.NotNil(t, k.Retract("fact-1"))
	require.Nil(t, k.Retract("fact-1"))
}

func TestEvictionPopsLowestPriority(t *testing.T) {
	k := New(Options{Capacity: 3, EvictionEnabled: true})
	var evicted []*Assertion
	k.sink = recordingSink{onEvict: func(a *Assertion) { evicted = append(evicted, a) }}

	for i, p := range []float64{1.0, 2.0, 3.0} {
		_, err := k.Commit(pa(t, fmt.Sprintf("(f a%d)", i), p), fmt.Sprintf("fact-%d", i), int64(i))
		require.NoError(t, err)
	}
	require.Equal(t, 3, k.Len())

	_, err := k.Commit(pa(t, "(f a3)", 4.0), "fact-3", 3)
	require.NoError(t, err)

	require.Equal(t, 3, k.Len())
	require.Len(t, evicted, 1)
	require.Equal(t, 1.0, evicted[0].Priority)
}

type recordingSink struct {
	onAdd     func(*Assertion)
	onRetract func(*Assertion)
	onEvict   func(*Assertion)
}

func (r recordingSink) AssertAdded(a *Assertion) {
	if r.onAdd != nil {
		r.onAdd(a)
	}
}

func (r recordingSink) AssertRetracted(a *Assertion) {
	if r.onRetract != nil {
		r.onRetract(a)
	}
}

func (r recordingSink) Evicted(a *Assertion) {
	if r.onEvict != nil {
		r.onEvict(a)
	}
}

func TestFindUnifiableFiltersByPolarityAndVerifies(t *testing.T) {
	k := New(Options{Capacity: 10, EvictionEnabled: true})
	_, err := k.Commit(pa(t, "(color red apple)", 1.0), "fact-1", 1)
	require.NoError(t, err)
	_, err = k.Commit(pa(t, "(not (color red apple))", 1.0), "fact-2", 2)
	require.NoError(t, err)

	query := mustKif(t, "(color ?x apple)")
	got := k.FindUnifiable(query)
	require.Len(t, got, 1)
	require.Equal(t, "fact-1", got[0].ID)
}

func TestConcurrentCommitAndRetract(t *testing.T) {
	k := New(Options{Capacity: 1000, EvictionEnabled: true})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("fact-%d", i)
			_, err := k.Commit(pa(t, fmt.Sprintf("(p a%d)", i), float64(i)), id, int64(i))
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 50, k.Len())

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k.Retract(fmt.Sprintf("fact-%d", i))
		}(i)
	}
	wg.Wait()
	require.Equal(t, 0, k.Len())
}

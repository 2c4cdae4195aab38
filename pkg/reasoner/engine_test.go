package reasoner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/kifreasoner/internal/config"
	"github.com/gitrdm/kifreasoner/pkg/events"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

func mustTerm(t *testing.T, src string) term.Term {
	t.Helper()
	terms, _, err := term.Parse(src)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	return terms[0]
}

func newTestEngine(t *testing.T, capacity int) (*Engine, *events.Dispatcher) {
	t.Helper()
	cfg := config.Default()
	cfg.KBCapacity = capacity
	disp := events.New()
	store := kb.New(kb.Options{Capacity: cfg.KBCapacity, EvictionEnabled: true, Sink: disp})
	eng := New(Options{Config: cfg, KB: store, Dispatcher: disp})
	ctx := context.Background()
	require.NoError(t, eng.Start(ctx))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = eng.Stop(stopCtx)
	})
	return eng, disp
}

func findAssertion(eng *Engine, kif string) (*kb.Assertion, bool) {
	terms, _, err := term.Parse(kif)
	if err != nil || len(terms) != 1 {
		panic("findAssertion: bad kif literal " + kif)
	}
	q := terms[0]
	for _, a := range eng.KB().All() {
		if a.Kif.Equal(q) {
			return a, true
		}
	}
	return nil, false
}

func TestModusPonens(t *testing.T) {
	eng, _ := newTestEngine(t, 100)
	require.NoError(t, eng.SubmitRule(mustTerm(t, "(=> (human ?x) (mortal ?x))").(*term.List)))
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(human socrates)"), 10, ""))

	var derived *kb.Assertion
	require.Eventually(t, func() bool {
		a, ok := findAssertion(eng, "(mortal socrates)")
		derived = a
		return ok
	}, time.Second, 5*time.Millisecond)

	require.InDelta(t, 9.5, derived.Priority, 1e-9)

	human, ok := findAssertion(eng, "(human socrates)")
	require.True(t, ok)
	_, hasSupport := derived.Support[human.ID]
	require.True(t, hasSupport)

	require.True(t, eng.RetractByID(human.ID))
	require.Eventually(t, func() bool {
		_, ok := eng.KB().Get(derived.ID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestOrientedRewrite(t *testing.T) {
	eng, _ := newTestEngine(t, 100)
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(= (f a) b)"), 10, ""))
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(P (f a))"), 10, ""))

	require.Eventually(t, func() bool {
		_, ok := findAssertion(eng, "(P b)")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestBiconditional(t *testing.T) {
	eng, _ := newTestEngine(t, 100)
	require.NoError(t, eng.SubmitRule(mustTerm(t, "(<=> (p ?x) (q ?x))").(*term.List)))
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(p c)"), 10, ""))

	require.Eventually(t, func() bool {
		_, ok := findAssertion(eng, "(q c)")
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, eng.SubmitInput(mustTerm(t, "(q d)"), 10, ""))
	require.Eventually(t, func() bool {
		_, ok := findAssertion(eng, "(p d)")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestSubsumptionRejection(t *testing.T) {
	eng, _ := newTestEngine(t, 100)
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(color red)"), 5, ""))
	require.Eventually(t, func() bool {
		_, ok := findAssertion(eng, "(color red)")
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, eng.SubmitInput(mustTerm(t, "(color red)"), 5, ""))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, eng.KB().Len())

	require.NoError(t, eng.SubmitInput(mustTerm(t, "(not (color red))"), 5, ""))
	require.Eventually(t, func() bool {
		return eng.KB().Len() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestTrivialitySubmissionsRejected(t *testing.T) {
	eng, _ := newTestEngine(t, 100)
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(= x x)"), 1, ""))
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(instance foo foo)"), 1, ""))
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(not (= y y))"), 1, ""))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, eng.KB().Len())
}

func TestEvictionUnderCapacity(t *testing.T) {
	eng, disp := newTestEngine(t, 3)
	var evicted string
	disp.Subscribe(events.Evict, func(n events.Notification) {
		evicted = n.Assertion.ID
	})

	require.NoError(t, eng.SubmitInput(mustTerm(t, "(fact a)"), 1.0, ""))
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(fact b)"), 2.0, ""))
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(fact c)"), 3.0, ""))
	require.Eventually(t, func() bool { return eng.KB().Len() == 3 }, time.Second, 5*time.Millisecond)

	lowest, ok := findAssertion(eng, "(fact a)")
	require.True(t, ok)

	require.NoError(t, eng.SubmitInput(mustTerm(t, "(fact d)"), 4.0, ""))
	require.Eventually(t, func() bool {
		_, stillThere := eng.KB().Get(lowest.ID)
		return !stillThere
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 3, eng.KB().Len())
	require.Equal(t, lowest.ID, evicted)
}

func TestExistsSkolemizesBoundVariables(t *testing.T) {
	eng, _ := newTestEngine(t, 100)
	require.NoError(t, eng.SubmitInput(mustTerm(t, "(exists (?x) (likes bob ?x))"), 1, ""))

	require.Eventually(t, func() bool {
		for _, a := range eng.KB().All() {
			if op, ok := a.Kif.Operator(); ok && op == "likes" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

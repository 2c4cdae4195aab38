package events

import (
	"testing"

	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

func mustKif(t *testing.T, src string) *term.List {
	t.Helper()
	terms, _, err := term.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	lst, ok := terms[0].(*term.List)
	if !ok {
		t.Fatalf("parse %q: not a list", src)
	}
	return lst
}

func TestAssertAddedTracksNoteIndex(t *testing.T) {
	d := New()
	a := &kb.Assertion{ID: "fact-1", Kif: mustKif(t, "(color red)"), SourceNoteID: "note-1"}
	d.AssertAdded(a)

	ids := d.AssertionsForNote("note-1")
	if len(ids) != 1 || ids[0] != "fact-1" {
		t.Fatalf("expected [fact-1], got %v", ids)
	}

	d.AssertRetracted(a)
	if ids := d.AssertionsForNote("note-1"); len(ids) != 0 {
		t.Fatalf("expected empty after retraction, got %v", ids)
	}
}

func TestPatternCallbackOnlyFiresOnMatch(t *testing.T) {
	d := New()
	var fired []map[string]term.Term
	d.RegisterCallback(mustKif(t, "(color ?x)"), func(n Notification) {
		fired = append(fired, n.Bindings)
	})

	d.AssertAdded(&kb.Assertion{ID: "fact-1", Kif: mustKif(t, "(color red)")})
	d.AssertAdded(&kb.Assertion{ID: "fact-2", Kif: mustKif(t, "(size big)")})

	if len(fired) != 1 {
		t.Fatalf("expected exactly one callback firing, got %d", len(fired))
	}
	bound, ok := fired[0]["?x"]
	if !ok || bound.String() != "red" {
		t.Fatalf("expected ?x bound to red, got %v", fired[0])
	}
}

func TestSubscriberReceivesAllEventKinds(t *testing.T) {
	d := New()
	var kinds []Event
	d.Subscribe(AssertAdded, func(n Notification) { kinds = append(kinds, n.Kind) })
	d.Subscribe(Evict, func(n Notification) { kinds = append(kinds, n.Kind) })

	a := &kb.Assertion{ID: "fact-1", Kif: mustKif(t, "(color red)")}
	d.AssertAdded(a)
	d.Evicted(a)

	if len(kinds) != 2 || kinds[0] != AssertAdded || kinds[1] != Evict {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
}

func TestCallbackPanicIsIsolated(t *testing.T) {
	d := New()
	d.RegisterCallback(mustKif(t, "(color ?x)"), func(n Notification) { panic("boom") })

	var secondFired bool
	d.RegisterCallback(mustKif(t, "(color ?x)"), func(n Notification) { secondFired = true })

	d.AssertAdded(&kb.Assertion{ID: "fact-1", Kif: mustKif(t, "(color red)")})

	if !secondFired {
		t.Fatalf("a panicking callback should not prevent a later one from running")
	}
}

package reasoner

import (
	"testing"

	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/term"
)

func newBareEngine() *Engine {
	return &Engine{ids: newIDGenerator(), rules: map[string]*kb.Rule{}, orientedEq: map[string]*kb.Assertion{}}
}

func TestExpandQuantifierSkolemizesExists(t *testing.T) {
	e := newBareEngine()
	in := parseOne(t, "(exists (?x) (likes bob ?x))")
	result, asRule, handled := e.expandQuantifier(in)
	if !handled || asRule {
		t.Fatalf("expected handled=true, asRule=false, got handled=%v asRule=%v", handled, asRule)
	}
	lst, ok := result.(*term.List)
	if !ok || lst.ContainsVariable() {
		t.Fatalf("expected a ground result, got %v", result)
	}
	if op, _ := lst.Operator(); op != "likes" {
		t.Fatalf("expected operator likes, got %s", op)
	}
}

func TestExpandQuantifierForallRule(t *testing.T) {
	e := newBareEngine()
	in := parseOne(t, "(forall (?x) (=> (human ?x) (mortal ?x)))")
	result, asRule, handled := e.expandQuantifier(in)
	if !handled || !asRule {
		t.Fatalf("expected handled=true, asRule=true, got handled=%v asRule=%v", handled, asRule)
	}
	if !result.Equal(parseOne(t, "(=> (human ?x) (mortal ?x))")) {
		t.Fatalf("unexpected inner rule form: %s", result)
	}
}

func TestExpandQuantifierUnsupportedForallShape(t *testing.T) {
	e := newBareEngine()
	in := parseOne(t, "(forall (?x) (human ?x))")
	result, _, handled := e.expandQuantifier(in)
	if !handled || result != nil {
		t.Fatalf("expected handled=true with nil result, got handled=%v result=%v", handled, result)
	}
}

func TestExpandQuantifierPassesThroughOrdinaryTerms(t *testing.T) {
	e := newBareEngine()
	in := parseOne(t, "(human socrates)")
	_, _, handled := e.expandQuantifier(in)
	if handled {
		t.Fatal("expected an ordinary term to be unhandled")
	}
}

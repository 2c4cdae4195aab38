package reasoner

import (
	"testing"

	"github.com/gitrdm/kifreasoner/pkg/term"
)

func mustList(t *testing.T, src string) *term.List {
	t.Helper()
	tm := parseOne(t, src)
	lst, ok := tm.(*term.List)
	if !ok {
		t.Fatalf("%q did not parse to a list", src)
	}
	return lst
}

func TestParseRuleFormsImplication(t *testing.T) {
	gen := newIDGenerator()
	rules, err := parseRuleForms(gen, mustList(t, "(=> (human ?x) (mortal ?x))"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if len(rules[0].AntecedentClauses) != 1 {
		t.Fatalf("expected 1 antecedent clause, got %d", len(rules[0].AntecedentClauses))
	}
}

func TestParseRuleFormsBiconditionalProducesTwoDirections(t *testing.T) {
	gen := newIDGenerator()
	form := mustList(t, "(<=> (p ?x) (q ?x))")
	rules, err := parseRuleForms(gen, form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	for _, r := range rules {
		if !r.Form.Equal(form) {
			t.Fatalf("direction rule Form diverged from the original <=> form")
		}
	}
	if !rules[0].Consequent.Equal(mustList(t, "(q ?x)")) {
		t.Fatalf("forward rule consequent = %s, want (q ?x)", rules[0].Consequent)
	}
	if !rules[1].Consequent.Equal(mustList(t, "(p ?x)")) {
		t.Fatalf("backward rule consequent = %s, want (p ?x)", rules[1].Consequent)
	}
}

func TestParseRuleFormsAndAntecedentSplitsClauses(t *testing.T) {
	gen := newIDGenerator()
	rules, err := parseRuleForms(gen, mustList(t, "(=> (and (p ?x) (not (q ?x))) (r ?x))"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules[0].AntecedentClauses) != 2 {
		t.Fatalf("expected 2 antecedent clauses, got %d", len(rules[0].AntecedentClauses))
	}
}

func TestParseRuleFormsRejectsWrongArity(t *testing.T) {
	gen := newIDGenerator()
	_, err := parseRuleForms(gen, mustList(t, "(=> (p ?x))"))
	if err == nil {
		t.Fatal("expected an error for a 2-element rule form")
	}
}

func TestParseRuleFormsRejectsNonListClause(t *testing.T) {
	gen := newIDGenerator()
	_, err := parseRuleForms(gen, mustList(t, "(=> foo (mortal ?x))"))
	if err == nil {
		t.Fatal("expected an error when an antecedent clause is not a list")
	}
}

func TestParseRuleFormsRejectsMalformedNegatedClause(t *testing.T) {
	gen := newIDGenerator()
	_, err := parseRuleForms(gen, mustList(t, "(=> (not foo bar) (mortal ?x))"))
	if err == nil {
		t.Fatal("expected an error for a negated clause not wrapping a single list")
	}
}

package reasoner

import (
	"testing"

	"github.com/gitrdm/kifreasoner/pkg/term"
)

func parseOne(t *testing.T, src string) term.Term {
	t.Helper()
	terms, _, err := term.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	if len(terms) != 1 {
		t.Fatalf("expected exactly one term, got %d", len(terms))
	}
	return terms[0]
}

func TestSimplifyAndXXCollapses(t *testing.T) {
	in := parseOne(t, "(and (p a) (p a))")
	want := parseOne(t, "(p a)")
	got := simplify(in, maxSimplifyDepth)
	if !got.Equal(want) {
		t.Fatalf("simplify(%s) = %s, want %s", in, got, want)
	}
}

func TestSimplifyAndDifferentArgsUnchanged(t *testing.T) {
	in := parseOne(t, "(and (p a) (p b))")
	got := simplify(in, maxSimplifyDepth)
	if !got.Equal(in) {
		t.Fatalf("simplify(%s) = %s, want unchanged", in, got)
	}
}

func TestSimplifyDoubleNegation(t *testing.T) {
	in := parseOne(t, "(not (not (p a)))")
	want := parseOne(t, "(p a)")
	got := simplify(in, maxSimplifyDepth)
	if !got.Equal(want) {
		t.Fatalf("simplify(%s) = %s, want %s", in, got, want)
	}
}

func TestSimplifyRecursesIntoChildren(t *testing.T) {
	in := parseOne(t, "(wrap (and (p a) (p a)))")
	want := parseOne(t, "(wrap (p a))")
	got := simplify(in, maxSimplifyDepth)
	if !got.Equal(want) {
		t.Fatalf("simplify(%s) = %s, want %s", in, got, want)
	}
}

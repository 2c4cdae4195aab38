package reasoner

import (
	"fmt"
	"sync/atomic"
)

// idGenerator produces the id scheme named in the design: rule ids
// prefixed "rule-"; derived fact ids "fact-" with "-eq"/"-not" infixes as
// applicable; input assertion ids "input-"; skolem constants "skolem_";
// grounding entity atoms "entity_". Uniqueness comes from a single
// monotonic counter shared across every prefix.
type idGenerator struct {
	counter int64
}

func newIDGenerator() *idGenerator {
	return &idGenerator{}
}

func (g *idGenerator) next() int64 {
	return atomic.AddInt64(&g.counter, 1)
}

func (g *idGenerator) ruleID() string {
	return fmt.Sprintf("rule-%d", g.next())
}

func (g *idGenerator) inputID() string {
	return fmt.Sprintf("input-%d", g.next())
}

func (g *idGenerator) factID(isEquality, isNegated bool) string {
	id := fmt.Sprintf("fact-%d", g.next())
	if isEquality {
		id += "-eq"
	}
	if isNegated {
		id += "-not"
	}
	return id
}

// skolemName builds a skolem constant name from a variable's name
// (leading "?", if present, is stripped so the constant reads as a plain
// atom: "?x" -> "skolem_x_3").
func (g *idGenerator) skolemName(varName string) string {
	if len(varName) > 0 && varName[0] == '?' {
		varName = varName[1:]
	}
	return fmt.Sprintf("skolem_%s_%d", varName, g.next())
}

func (g *idGenerator) entityName() string {
	return fmt.Sprintf("entity_%d", g.next())
}

package term

import "github.com/mitchellh/hashstructure"

// hashable is the canonical, hashstructure-friendly shape of a term: a kind
// tag plus either a scalar value or a slice of child hashes. Hashing the
// children's hashes rather than the children themselves keeps the cost of
// hashing a list linear in its size instead of quadratic.
type hashable struct {
	Kind     uint8
	Value    string
	Children []uint64
}

const (
	kindAtom uint8 = iota
	kindVariable
	kindList
)

// ContentHash computes a structural content hash for t, suitable as a cheap
// pre-filter before a full Equal/unify comparison. Two structurally equal
// terms always hash equal; the converse is not guaranteed (hash
// collisions are possible and must be resolved by the caller falling back
// to Equal or match).
func ContentHash(t Term) (uint64, error) {
	switch v := t.(type) {
	case *Atom:
		return hashstructure.Hash(hashable{Kind: kindAtom, Value: v.value}, nil)
	case *Variable:
		return hashstructure.Hash(hashable{Kind: kindVariable, Value: v.name}, nil)
	case *List:
		children := make([]uint64, len(v.items))
		for i, it := range v.items {
			h, err := ContentHash(it)
			if err != nil {
				return 0, err
			}
			children[i] = h
		}
		return hashstructure.Hash(hashable{Kind: kindList, Children: children}, nil)
	default:
		return hashstructure.Hash(t.String(), nil)
	}
}

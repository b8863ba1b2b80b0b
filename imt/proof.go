package imt

import (
	"math/big"

	"github.com/privacypool/client-sdk/field"
	"github.com/privacypool/client-sdk/types"
)

// Proof is a Lean-IMT inclusion proof. Siblings holds one entry per level
// from the leaf upward, with a nil entry at any level where the node had
// no sibling (single-child propagation) instead of a fixed zero leaf —
// mirroring the tree's own convention so a proof can be checked against a
// Root without access to the tree itself. Index's bit at position L says
// whether the node was the left (0) or right (1) child at level L.
type Proof struct {
	Root     *big.Int
	Depth    int
	Siblings []*big.Int
	Index    int
}

// GenProof builds an inclusion proof for the leaf at index. It returns an
// error if index is out of range.
func (t *Tree) GenProof(index int) (*Proof, error) {
	if index < 0 || index >= t.Size() {
		return nil, types.NewError(types.KindInvalidKey, "imt: index out of range", nil)
	}

	depth := t.Depth()
	siblings := make([]*big.Int, depth)

	idx := index
	for level := 0; level < depth; level++ {
		levelNodes := t.nodes[level]
		if idx%2 == 1 {
			siblings[level] = levelNodes[idx-1]
		} else if idx+1 < len(levelNodes) {
			siblings[level] = levelNodes[idx+1]
		}
		// else: no sibling at this level, leave nil (propagation).
		idx /= 2
	}

	return &Proof{
		Root:     t.Root(),
		Depth:    depth,
		Siblings: siblings,
		Index:    index,
	}, nil
}

// CheckProof recomputes the root from leaf and p's siblings and reports
// whether it matches p.Root.
func CheckProof(leaf *big.Int, p *Proof) (bool, error) {
	node := field.ModP(leaf)
	idx := p.Index

	for level := 0; level < p.Depth; level++ {
		sib := p.Siblings[level]
		bit := idx & 1
		if sib != nil {
			var err error
			if bit == 0 {
				node, err = field.Poseidon2(node, sib)
			} else {
				node, err = field.Poseidon2(sib, node)
			}
			if err != nil {
				return false, err
			}
		}
		idx >>= 1
	}

	if p.Root == nil {
		return false, nil
	}
	return node.Cmp(p.Root) == 0, nil
}

// Package imt implements the Lean Incremental Merkle Tree (C3): an
// append-only binary tree over Poseidon-2 where an unpaired node at any
// level propagates to the level above unchanged, rather than being padded
// against a fixed zero leaf. This convention — not classical zero-padded
// fixed-depth trees — is what the on-chain circuit verifier expects; a
// tree built the classical way produces roots the circuit will never
// accept.
package imt

import (
	"math/big"
	"math/bits"

	"github.com/privacypool/client-sdk/field"
)

// Tree is a Lean-IMT. Level 0 holds the leaves in insertion order; level i
// holds the parents of level i-1. Build one with New or NewFromLeaves;
// the zero value has no leaf level and is not usable.
type Tree struct {
	nodes [][]*big.Int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: [][]*big.Int{{}}}
}

// NewFromLeaves builds a tree by inserting leaves in order.
func NewFromLeaves(leaves []*big.Int) (*Tree, error) {
	t := New()
	for _, l := range leaves {
		if err := t.Insert(l); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Size returns the current leaf count.
func (t *Tree) Size() int {
	return len(t.nodes[0])
}

// Depth returns ceil(log2(size)), or 0 when size is 0 or 1.
func (t *Tree) Depth() int {
	return depthForSize(t.Size())
}

func depthForSize(size int) int {
	if size <= 1 {
		return 0
	}
	return bits.Len(uint(size - 1))
}

// Root returns the current root. Calling it on an empty tree is the
// caller's error; the result is unspecified and must never be used.
func (t *Tree) Root() *big.Int {
	d := t.Depth()
	if d >= len(t.nodes) || len(t.nodes[d]) == 0 {
		return nil
	}
	return t.nodes[d][0]
}

// Insert appends a new leaf and recomputes the rightmost path up to the
// root. Amortized O(log n): only nodes on the path from the new leaf to
// the root are touched.
func (t *Tree) Insert(leaf *big.Int) error {
	t.nodes[0] = append(t.nodes[0], field.ModP(leaf))

	node := t.nodes[0][len(t.nodes[0])-1]
	idx := len(t.nodes[0]) - 1

	newDepth := t.Depth()
	for len(t.nodes) <= newDepth {
		t.nodes = append(t.nodes, nil)
	}

	for level := 0; level < newDepth; level++ {
		var parent *big.Int
		if idx%2 == 1 {
			sibling := t.nodes[level][idx-1]
			h, err := field.Poseidon2(sibling, node)
			if err != nil {
				return err
			}
			parent = h
		} else {
			// No right sibling yet: single-child propagation.
			parent = node
		}

		parentIdx := idx / 2
		if parentIdx < len(t.nodes[level+1]) {
			t.nodes[level+1][parentIdx] = parent
		} else {
			t.nodes[level+1] = append(t.nodes[level+1], parent)
		}

		node = parent
		idx = parentIdx
	}

	return nil
}

// IndexOf returns the position of leaf in the tree, or -1 if absent.
// Leaves are compared by field-element equality.
func (t *Tree) IndexOf(leaf *big.Int) int {
	for i, l := range t.nodes[0] {
		if l.Cmp(leaf) == 0 {
			return i
		}
	}
	return -1
}

// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package merkle

import (
	"errors"
	"fmt"

	"github.com/joe-rlo/ShardNFTs/common"
)

// ErrEmptyTree is returned when building a tree without any leaves.
var ErrEmptyTree = errors.New("tree must contain at least one leaf")

// Tree is a complete in-memory sorted-pair Merkle tree, as maintained by an
// off-chain indexer mirroring all leaves. It produces the roots and proofs
// that are checked on-chain by Verify.
//
// Levels are built bottom-up by combining neighbours. If a level has an odd
// number of nodes, the last node is promoted to the next level unchanged.
type Tree struct {
	levels [][]common.Hash // < levels[0] are the leaves, the last level is the root
}

// NewTree builds a tree over the given leaf digests.
func NewTree(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)
	res := &Tree{levels: [][]common.Hash{level}}
	for len(level) > 1 {
		next := make([]common.Hash, (len(level)+1)/2)
		for i := range next {
			next[i] = combineAt(level, 2*i)
		}
		res.levels = append(res.levels, next)
		level = next
	}
	return res, nil
}

func combineAt(level []common.Hash, left int) common.Hash {
	if left+1 >= len(level) {
		return level[left]
	}
	return Combine(level[left], level[left+1])
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Root returns the root digest of the tree.
func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// Leaf returns the digest of the leaf at the given index.
func (t *Tree) Leaf(index int) (common.Hash, error) {
	if err := t.checkIndex(index); err != nil {
		return common.Hash{}, err
	}
	return t.levels[0][index], nil
}

// Proof produces the sibling path of the leaf at the given index. Levels on
// which the node has no sibling are skipped.
func (t *Tree) Proof(index int) (Proof, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	var res Proof
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			position := Right
			if sibling < index {
				position = Left
			}
			res = append(res, Step{Sibling: level[sibling], Position: position})
		}
		index /= 2
	}
	return res, nil
}

// Update replaces the leaf at the given index and recomputes its path.
func (t *Tree) Update(index int, leaf common.Hash) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.levels[0][index] = leaf
	for i := 1; i < len(t.levels); i++ {
		index /= 2
		t.levels[i][index] = combineAt(t.levels[i-1], 2*index)
	}
	return nil
}

func (t *Tree) checkIndex(index int) error {
	if index < 0 || index >= t.Len() {
		return fmt.Errorf("leaf index %d out of range [0,%d)", index, t.Len())
	}
	return nil
}

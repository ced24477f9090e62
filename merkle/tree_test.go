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
	"testing"

	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/stretchr/testify/require"
)

func TestTree_Empty_IsRejected(t *testing.T) {
	_, err := NewTree(nil)
	require.ErrorIs(t, err, ErrEmptyTree)
}

func TestTree_SingleLeaf_RootIsLeaf(t *testing.T) {
	leaves := makeLeaves(1)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	require.Equal(t, leaves[0], tree.Root())
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	require.Empty(t, proof)
}

func TestTree_TwoLeaves_RootIsCombination(t *testing.T) {
	leaves := makeLeaves(2)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	require.Equal(t, Combine(leaves[0], leaves[1]), tree.Root())

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	require.Equal(t, Proof{{Sibling: leaves[1], Position: Right}}, proof)
	proof, err = tree.Proof(1)
	require.NoError(t, err)
	require.Equal(t, Proof{{Sibling: leaves[0], Position: Left}}, proof)
}

func TestTree_OddNodesArePromoted(t *testing.T) {
	leaves := makeLeaves(3)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	want := Combine(Combine(leaves[0], leaves[1]), leaves[2])
	require.Equal(t, want, tree.Root())

	proof, err := tree.Proof(2)
	require.NoError(t, err)
	require.Len(t, proof, 1)
}

func TestTree_InputSliceIsCopied(t *testing.T) {
	leaves := makeLeaves(4)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	root := tree.Root()
	leaves[0] = common.Hash{}
	require.Equal(t, root, tree.Root())
}

func TestTree_OutOfRangeIndexesAreRejected(t *testing.T) {
	tree, err := NewTree(makeLeaves(4))
	require.NoError(t, err)
	for _, i := range []int{-1, 4, 100} {
		_, err := tree.Proof(i)
		require.Error(t, err)
		_, err = tree.Leaf(i)
		require.Error(t, err)
		require.Error(t, tree.Update(i, common.Hash{}))
	}
}

func TestTree_Update_MatchesRebuild(t *testing.T) {
	for size := 1; size <= 17; size++ {
		leaves := makeLeaves(size)
		tree, err := NewTree(leaves)
		require.NoError(t, err)
		for i := range leaves {
			leaves[i] = common.Sha256(leaves[i][:])
			require.NoError(t, tree.Update(i, leaves[i]))

			rebuilt, err := NewTree(leaves)
			require.NoError(t, err)
			require.Equal(t, rebuilt.Root(), tree.Root(), "size %d, index %d", size, i)

			got, err := tree.Leaf(i)
			require.NoError(t, err)
			require.Equal(t, leaves[i], got)
		}
	}
}

func TestTree_FoldingNewLeafThroughOldProof_GivesUpdatedRoot(t *testing.T) {
	leaves := makeLeaves(11)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	for i := range leaves {
		proof, err := tree.Proof(i)
		require.NoError(t, err)
		updated := common.Sha256([]byte("updated"), leaves[i][:])
		require.NoError(t, tree.Update(i, updated))
		require.Equal(t, tree.Root(), Fold(updated, proof))
	}
}

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
	"bytes"
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/stretchr/testify/require"
)

func makeLeaves(n int) []common.Hash {
	res := make([]common.Hash, n)
	for i := range res {
		res[i] = common.Sha256([]byte(fmt.Sprintf("leaf-%d", i)))
	}
	return res
}

func TestCombine_MatchesSortedPairRule(t *testing.T) {
	a := common.Hash{0xff}
	b := common.Hash{0x01}

	// The smaller digest is always hashed first.
	want := sha256.Sum256(append(bytes.Clone(b[:]), a[:]...))
	require.Equal(t, common.Hash(want), Combine(a, b))
	require.Equal(t, common.Hash(want), Combine(b, a))
}

func TestCombine_IsOrderInvariant(t *testing.T) {
	leaves := makeLeaves(20)
	for i := range leaves {
		for j := range leaves {
			require.Equal(t, Combine(leaves[i], leaves[j]), Combine(leaves[j], leaves[i]))
		}
	}
}

func TestCombine_KnownAnswer(t *testing.T) {
	// Pinned value; if this changes, every outstanding proof breaks.
	want, err := common.HashFromHex("0xcb592844121d926f1ca3ad4e1d6fb9d8e260ed6e3216361f7732e975a0e8bbf6")
	require.NoError(t, err)
	require.Equal(t, want, Combine(common.Hash{0x01}, common.Hash{}))
}

func TestVerify_EmptyProof_AcceptsOnlyLeafEqualToRoot(t *testing.T) {
	leaf := common.Sha256([]byte("single"))
	require.True(t, Verify(leaf, nil, leaf))
	require.True(t, Verify(leaf, Proof{}, leaf))
	require.False(t, Verify(leaf, nil, common.Hash{}))
}

func TestVerify_AllProofsOfBuiltTreesAreAccepted(t *testing.T) {
	for size := 1; size <= 33; size++ {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			leaves := makeLeaves(size)
			tree, err := NewTree(leaves)
			require.NoError(t, err)
			for i, leaf := range leaves {
				proof, err := tree.Proof(i)
				require.NoError(t, err)
				require.NoError(t, Check(leaf, proof, tree.Root()))
				require.True(t, Verify(leaf, proof, tree.Root()))
			}
		})
	}
}

func TestVerify_SingleBitFlipsAreDetected(t *testing.T) {
	leaves := makeLeaves(8)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	proof, err := tree.Proof(3)
	require.NoError(t, err)
	root := tree.Root()
	leaf := leaves[3]

	flip := func(h common.Hash, bit int) common.Hash {
		h[bit/8] ^= 1 << (bit % 8)
		return h
	}

	for bit := 0; bit < 8*common.HashSize; bit++ {
		require.False(t, Verify(flip(leaf, bit), proof, root), "leaf bit %d", bit)
		require.False(t, Verify(leaf, proof, flip(root, bit)), "root bit %d", bit)
		for i := range proof {
			tampered := append(Proof{}, proof...)
			tampered[i].Sibling = flip(tampered[i].Sibling, bit)
			require.False(t, Verify(leaf, tampered, root), "sibling %d bit %d", i, bit)
		}
	}
}

func TestVerify_PositionHintsDoNotAffectResult(t *testing.T) {
	leaves := makeLeaves(5)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	proof, err := tree.Proof(2)
	require.NoError(t, err)

	for i := range proof {
		proof[i].Position = Unknown
	}
	require.True(t, Verify(leaves[2], proof, tree.Root()))
}

func TestCheck_DistinguishesFailureCauses(t *testing.T) {
	leaves := makeLeaves(4)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	proof, err := tree.Proof(0)
	require.NoError(t, err)

	err = Check(leaves[1], proof, tree.Root())
	require.ErrorIs(t, err, ErrRootMismatch)

	proof[0].Position = Position(7)
	err = Check(leaves[0], proof, tree.Root())
	require.ErrorIs(t, err, ErrMalformedProof)
	require.False(t, Verify(leaves[0], proof, tree.Root()))
}

func TestParseProof_RejectsWrongLengthEntries(t *testing.T) {
	good := make([]byte, 32)
	for _, bad := range [][]byte{nil, {1, 2, 3}, make([]byte, 31), make([]byte, 33)} {
		_, err := ParseProof([][]byte{good, bad})
		require.ErrorIs(t, err, ErrMalformedProof)
	}
	proof, err := ParseProof([][]byte{good, good})
	require.NoError(t, err)
	require.Len(t, proof, 2)
}

func TestParseProof_PreservesOrder(t *testing.T) {
	leaves := makeLeaves(3)
	raw := [][]byte{leaves[0][:], leaves[1][:], leaves[2][:]}
	proof, err := ParseProof(raw)
	require.NoError(t, err)
	require.Equal(t, leaves, proof.Siblings())
}

func TestPosition_String(t *testing.T) {
	require.Equal(t, "unknown", Unknown.String())
	require.Equal(t, "left", Left.String())
	require.Equal(t, "right", Right.String())
	require.Equal(t, "invalid(9)", Position(9).String())
}

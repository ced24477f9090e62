// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package merkle implements the sorted-pair SHA-256 Merkle scheme used to
// authenticate compressed NFT leaves.
//
// Two sibling digests a and b are combined into their parent as
//
//	SHA256(min(a,b) || max(a,b))
//
// where min and max use lexicographic byte order. Because the pair is sorted
// before hashing, a proof does not need to state on which side a sibling is
// located. This rule is shared with every off-chain proof generator; changing
// it invalidates all outstanding proofs.
package merkle

import (
	"errors"
	"fmt"

	"github.com/joe-rlo/ShardNFTs/common"
)

var (
	// ErrMalformedProof is returned for proofs with entries that can not be
	// interpreted, e.g. siblings that are not 32 bytes long.
	ErrMalformedProof = errors.New("malformed proof")
	// ErrRootMismatch is returned if a well-formed proof does not fold up to
	// the expected root.
	ErrRootMismatch = errors.New("proof does not match root")
)

// Combine folds two sibling digests into their parent digest.
func Combine(a, b common.Hash) common.Hash {
	if a.Compare(&b) > 0 {
		a, b = b, a
	}
	return common.Sha256(a[:], b[:])
}

// Position is a hint on which side of the path a sibling is located. It is
// carried on the wire for compatibility with proof generators listing
// left/right positions, but it never influences the folding.
type Position byte

const (
	Unknown Position = iota
	Left
	Right
)

func (p Position) String() string {
	switch p {
	case Unknown:
		return "unknown"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("invalid(%d)", byte(p))
}

func (p Position) isValid() bool {
	return p <= Right
}

// Step is a single entry of a proof.
type Step struct {
	Sibling  common.Hash `json:"data"`
	Position Position    `json:"position"`
}

// Proof is the ordered list of siblings on the path from a leaf to the root.
// The first step is the sibling of the leaf itself.
type Proof []Step

// ParseProof builds a proof from raw sibling digests, as submitted by callers.
// Entries that are not exactly 32 bytes long are rejected.
func ParseProof(siblings [][]byte) (Proof, error) {
	res := make(Proof, 0, len(siblings))
	for i, sibling := range siblings {
		hash, err := common.HashFromBytes(sibling)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedProof, i, err)
		}
		res = append(res, Step{Sibling: hash})
	}
	return res, nil
}

// Siblings returns the sibling digests of the proof in order.
func (p Proof) Siblings() []common.Hash {
	res := make([]common.Hash, len(p))
	for i, step := range p {
		res[i] = step.Sibling
	}
	return res
}

// Fold computes the root obtained by combining the leaf with all siblings of
// the proof. Position hints are ignored.
func Fold(leaf common.Hash, proof Proof) common.Hash {
	current := leaf
	for _, step := range proof {
		current = Combine(current, step.Sibling)
	}
	return current
}

// Check verifies that the leaf folds through the proof to the given root. An
// empty proof is only valid for single-leaf trees, where leaf and root are the
// same digest.
func Check(leaf common.Hash, proof Proof, root common.Hash) error {
	for i, step := range proof {
		if !step.Position.isValid() {
			return fmt.Errorf("%w: entry %d has position %v", ErrMalformedProof, i, step.Position)
		}
	}
	if got := Fold(leaf, proof); got != root {
		return fmt.Errorf("%w: got %v, want %v", ErrRootMismatch, got, root)
	}
	return nil
}

// Verify is the boolean form of Check. Malformed proofs and mismatching roots
// are both reported as false; callers needing the cause must use Check.
func Verify(leaf common.Hash, proof Proof, root common.Hash) bool {
	return Check(leaf, proof, root) == nil
}

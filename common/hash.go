// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashSize is the number of bytes of every digest handled by this module.
const HashSize = 32

// Hash is a SHA-256 digest. It is used for leaf digests, inner nodes of the
// Merkle tree, and the commitments persisted by the ledger.
type Hash [HashSize]byte

// Sha256 computes the SHA-256 digest of the concatenation of the given slices.
func Sha256(data ...[]byte) Hash {
	hasher := sha256.New()
	for _, d := range data {
		hasher.Write(d)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}

// HashFromBytes converts a byte slice into a Hash. The slice must be exactly
// HashSize bytes long.
func HashFromBytes(data []byte) (Hash, error) {
	var res Hash
	if len(data) != HashSize {
		return res, fmt.Errorf("invalid hash length %d, expected %d", len(data), HashSize)
	}
	copy(res[:], data)
	return res, nil
}

// HashFromHex parses a 0x-prefixed hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	var res Hash
	err := res.UnmarshalText([]byte(s))
	return res, err
}

// Compare orders hashes lexicographically by their bytes.
func (h *Hash) Compare(other *Hash) int {
	return bytes.Compare(h[:], other[:])
}

// IsZero reports whether all bytes of the hash are zero. The zero hash is
// never a valid commitment.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h[:]).MarshalText()
}

func (h *Hash) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Hash", input, h[:])
}

// Account is an opaque reference to an identity supplied by the host
// environment, e.g. a NEAR-style account id.
type Account string

func (a Account) IsEmpty() bool {
	return len(a) == 0
}

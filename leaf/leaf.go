// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package leaf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/joe-rlo/ShardNFTs/common"
)

// encodingVersion prefixes every encoded leaf. Changing the layout requires a
// new version since digests of all outstanding leaves depend on it.
const encodingVersion = byte(0x01)

// lengthSize is the size of the big-endian length prefix of each field.
const lengthSize = 4

var (
	// ErrMissingField is returned when a leaf lacks its item id or owner.
	ErrMissingField = errors.New("leaf is missing a required field")
	// ErrFieldTooLarge is returned for fields exceeding the length prefix.
	ErrFieldTooLarge = errors.New("leaf field too large")
)

// maxFieldSize is the largest field length representable by the prefix.
var maxFieldSize uint64 = math.MaxUint32

// Leaf is the record of a single compressed NFT. Leaves are not stored by the
// ledger; only their digests are folded into commitments.
type Leaf struct {
	ItemId   string         `json:"nft_id"`
	Owner    common.Account `json:"owner"`
	Metadata string         `json:"metadata"`
}

// WithOwner returns a copy of the leaf owned by the given account.
func (l Leaf) WithOwner(owner common.Account) Leaf {
	l.Owner = owner
	return l
}

// Check verifies that all required fields are present.
func (l Leaf) Check() error {
	if len(l.ItemId) == 0 {
		return fmt.Errorf("%w: item id", ErrMissingField)
	}
	if l.Owner.IsEmpty() {
		return fmt.Errorf("%w: owner of %q", ErrMissingField, l.ItemId)
	}
	return nil
}

// Encode produces the canonical byte representation of a leaf:
//
//	version || len(id) || id || len(owner) || owner || len(metadata) || metadata
//
// with 4-byte big-endian lengths. Fields are written in this fixed order, so
// the encoding is deterministic, and the length prefixes make it injective.
func Encode(l Leaf) ([]byte, error) {
	if err := l.Check(); err != nil {
		return nil, err
	}
	fields := [...]string{l.ItemId, string(l.Owner), l.Metadata}
	size := 1
	for i, f := range fields {
		if uint64(len(f)) > maxFieldSize {
			return nil, fmt.Errorf("%w: field %d has %d bytes", ErrFieldTooLarge, i, len(f))
		}
		size += lengthSize + len(f)
	}
	res := make([]byte, 0, size)
	res = append(res, encodingVersion)
	for _, f := range fields {
		res = binary.BigEndian.AppendUint32(res, uint32(len(f)))
		res = append(res, f...)
	}
	return res, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Leaf, error) {
	if len(data) == 0 || data[0] != encodingVersion {
		return Leaf{}, fmt.Errorf("unsupported leaf encoding")
	}
	data = data[1:]
	var fields [3]string
	for i := range fields {
		if len(data) < lengthSize {
			return Leaf{}, fmt.Errorf("truncated leaf encoding at field %d", i)
		}
		length := binary.BigEndian.Uint32(data)
		data = data[lengthSize:]
		if uint64(len(data)) < uint64(length) {
			return Leaf{}, fmt.Errorf("truncated leaf encoding at field %d", i)
		}
		fields[i] = string(data[:length])
		data = data[length:]
	}
	if len(data) != 0 {
		return Leaf{}, fmt.Errorf("%d trailing bytes in leaf encoding", len(data))
	}
	res := Leaf{ItemId: fields[0], Owner: common.Account(fields[1]), Metadata: fields[2]}
	return res, res.Check()
}

// Digest computes the SHA-256 hash of the canonical encoding of the leaf.
func Digest(l Leaf) (common.Hash, error) {
	data, err := Encode(l)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Sha256(data), nil
}

// MustDigest is like Digest but panics on incomplete leaves. It is intended
// for leaves constructed by trusted code.
func MustDigest(l Leaf) common.Hash {
	res, err := Digest(l)
	if err != nil {
		panic(err)
	}
	return res
}

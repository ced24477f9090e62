// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/joe-rlo/ShardNFTs/common"
	"golang.org/x/exp/maps"
)

// Mode selects how commitments are kept.
type Mode byte

const (
	// PerItem keeps one commitment per transferred item, falling back to the
	// global root for items not transferred since the root was last set. A
	// root update starts a new epoch, discarding all item commitments.
	PerItem Mode = iota
	// Global keeps a single root for all items. Every transfer replaces it.
	Global
)

func (m Mode) String() string {
	switch m {
	case PerItem:
		return "per-item"
	case Global:
		return "global"
	}
	return fmt.Sprintf("unknown(%d)", byte(m))
}

func (m Mode) isValid() bool {
	return m == PerItem || m == Global
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for _, mode := range []Mode{PerItem, Global} {
		if mode.String() == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown commitment mode %q", s)
}

// state is the contract state set up at initialization: the owner, the
// authorization set, the commitment mode, the leaf cache flag, and the
// global root. Per-item commitments are kept under their own keys.
type state struct {
	owner       common.Account
	authorized  map[common.Account]struct{} // < excluding the owner
	mode        Mode
	root        common.Hash
	epoch       uint64 // < incremented by every root update
	cacheLeaves bool
}

func newState(owner common.Account, mode Mode, root common.Hash) *state {
	return &state{
		owner:      owner,
		authorized: map[common.Account]struct{}{},
		mode:       mode,
		root:       root,
	}
}

func (s *state) isAuthorized(account common.Account) bool {
	if account == s.owner {
		return true
	}
	_, found := s.authorized[account]
	return found
}

// accounts lists the owner followed by all delegates in sorted order.
func (s *state) accounts() []common.Account {
	delegates := maps.Keys(s.authorized)
	slices.Sort(delegates)
	return append([]common.Account{s.owner}, delegates...)
}

func (s *state) clone() *state {
	res := *s
	res.authorized = maps.Clone(s.authorized)
	return &res
}

// stateVersion prefixes the encoded state.
const stateVersion = byte(0x01)

// flagCacheLeaves marks ledgers retaining the leaves of transferred items.
const flagCacheLeaves = byte(0x01)

// encode serializes the state as
//
//	version || mode || flags || root || epoch || owner || #delegates || delegates...
//
// with accounts written as 4-byte big-endian length followed by the bytes.
// Delegates are sorted, so the encoding is deterministic.
func (s *state) encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(stateVersion)
	buf.WriteByte(byte(s.mode))
	var flags byte
	if s.cacheLeaves {
		flags |= flagCacheLeaves
	}
	buf.WriteByte(flags)
	buf.Write(s.root[:])
	binary.Write(&buf, binary.BigEndian, s.epoch)
	accounts := s.accounts()
	writeAccount(&buf, accounts[0])
	binary.Write(&buf, binary.BigEndian, uint32(len(accounts)-1))
	for _, account := range accounts[1:] {
		writeAccount(&buf, account)
	}
	return buf.Bytes()
}

func decodeState(data []byte) (*state, error) {
	r := bytes.NewReader(data)
	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("invalid state encoding: %w", err)
	}
	if header[0] != stateVersion {
		return nil, fmt.Errorf("unsupported state version %d", header[0])
	}
	res := &state{
		mode:        Mode(header[1]),
		cacheLeaves: header[2]&flagCacheLeaves != 0,
		authorized:  map[common.Account]struct{}{},
	}
	if !res.mode.isValid() {
		return nil, fmt.Errorf("invalid state encoding: unknown commitment mode %d", header[1])
	}
	if header[2]&^flagCacheLeaves != 0 {
		return nil, fmt.Errorf("invalid state encoding: unknown flags 0x%02x", header[2])
	}
	if _, err := io.ReadFull(r, res.root[:]); err != nil {
		return nil, fmt.Errorf("invalid state encoding: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &res.epoch); err != nil {
		return nil, fmt.Errorf("invalid state encoding: %w", err)
	}
	owner, err := readAccount(r)
	if err != nil {
		return nil, err
	}
	res.owner = owner
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("invalid state encoding: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		account, err := readAccount(r)
		if err != nil {
			return nil, err
		}
		res.authorized[account] = struct{}{}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("invalid state encoding: %d trailing bytes", r.Len())
	}
	return res, nil
}

func writeAccount(buf *bytes.Buffer, account common.Account) {
	binary.Write(buf, binary.BigEndian, uint32(len(account)))
	buf.WriteString(string(account))
}

func readAccount(r *bytes.Reader) (common.Account, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", fmt.Errorf("invalid state encoding: %w", err)
	}
	if int64(length) > int64(r.Len()) {
		return "", fmt.Errorf("invalid state encoding: account of %d bytes exceeds input", length)
	}
	res := make([]byte, length)
	if _, err := io.ReadFull(r, res); err != nil {
		return "", fmt.Errorf("invalid state encoding: %w", err)
	}
	return common.Account(res), nil
}

// itemEntry is the record of an item transferred in a PerItem ledger. It is
// persisted as a single value, such that the commitment and the cached leaf
// are always updated together.
type itemEntry struct {
	epoch      uint64      // < epoch the commitment was recorded in
	commitment common.Hash // < commitment after the last transfer
	leaf       []byte      // < encoded leaf after the last transfer, empty if not cached
}

const itemEntryHeaderSize = 8 + common.HashSize

func (e *itemEntry) encode() []byte {
	res := make([]byte, 0, itemEntryHeaderSize+len(e.leaf))
	res = binary.BigEndian.AppendUint64(res, e.epoch)
	res = append(res, e.commitment[:]...)
	return append(res, e.leaf...)
}

func decodeItemEntry(data []byte) (*itemEntry, error) {
	if len(data) < itemEntryHeaderSize {
		return nil, fmt.Errorf("invalid entry length %d", len(data))
	}
	res := &itemEntry{epoch: binary.BigEndian.Uint64(data)}
	copy(res.commitment[:], data[8:itemEntryHeaderSize])
	if len(data) > itemEntryHeaderSize {
		res.leaf = data[itemEntryHeaderSize:]
	}
	return res, nil
}

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
	"testing"

	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/stretchr/testify/require"
)

func TestMode_ParseAndPrint(t *testing.T) {
	for _, mode := range []Mode{PerItem, Global} {
		got, err := ParseMode(mode.String())
		require.NoError(t, err)
		require.Equal(t, mode, got)
	}
	_, err := ParseMode("sharded")
	require.Error(t, err)
	require.Equal(t, "unknown(7)", Mode(7).String())
}

func TestState_EncodingCanBeDecoded(t *testing.T) {
	st := newState("owner", PerItem, common.Hash{1, 2, 3})
	st.epoch = 7
	st.cacheLeaves = true
	st.authorized["b"] = struct{}{}
	st.authorized["a"] = struct{}{}

	restored, err := decodeState(st.encode())
	require.NoError(t, err)
	require.Equal(t, st, restored)
	require.Equal(t, []common.Account{"owner", "a", "b"}, restored.accounts())
}

func TestState_EncodingIsIndependentOfInsertionOrder(t *testing.T) {
	a := newState("owner", PerItem, common.Hash{1})
	b := newState("owner", PerItem, common.Hash{1})
	for _, account := range []common.Account{"x", "y", "z"} {
		a.authorized[account] = struct{}{}
	}
	for _, account := range []common.Account{"z", "x", "y"} {
		b.authorized[account] = struct{}{}
	}
	require.Equal(t, a.encode(), b.encode())
}

func TestState_DecodeDetectsCorruptedInput(t *testing.T) {
	st := newState("owner", PerItem, common.Hash{1})
	st.authorized["delegate"] = struct{}{}
	encoded := st.encode()

	for i := 0; i < len(encoded); i++ {
		_, err := decodeState(encoded[:i])
		require.Error(t, err, "truncated to %d bytes", i)
	}

	_, err := decodeState(append(encoded, 0))
	require.ErrorContains(t, err, "trailing")

	wrongVersion := append([]byte{}, encoded...)
	wrongVersion[0] = 0x02
	_, err = decodeState(wrongVersion)
	require.ErrorContains(t, err, "unsupported state version")

	wrongMode := append([]byte{}, encoded...)
	wrongMode[1] = 7
	_, err = decodeState(wrongMode)
	require.ErrorContains(t, err, "unknown commitment mode 7")

	wrongFlags := append([]byte{}, encoded...)
	wrongFlags[2] = 0x82
	_, err = decodeState(wrongFlags)
	require.ErrorContains(t, err, "unknown flags")
}

func TestItemEntry_EncodingCanBeDecoded(t *testing.T) {
	tests := map[string]*itemEntry{
		"without leaf": {epoch: 3, commitment: common.Hash{4}},
		"with leaf":    {epoch: 1 << 40, commitment: common.Hash{5}, leaf: []byte{1, 2, 3}},
	}
	for name, entry := range tests {
		t.Run(name, func(t *testing.T) {
			restored, err := decodeItemEntry(entry.encode())
			require.NoError(t, err)
			require.Equal(t, entry, restored)
		})
	}

	_, err := decodeItemEntry(make([]byte, itemEntryHeaderSize-1))
	require.ErrorContains(t, err, "invalid entry length")
}

func TestState_CloneIsIndependent(t *testing.T) {
	st := newState("owner", PerItem, common.Hash{1})
	clone := st.clone()
	clone.authorized["delegate"] = struct{}{}
	clone.root = common.Hash{2}
	clone.cacheLeaves = true

	require.False(t, st.isAuthorized("delegate"))
	require.True(t, clone.isAuthorized("delegate"))
	require.Equal(t, common.Hash{1}, st.root)
	require.False(t, st.cacheLeaves)
}

func TestMode_OnlyKnownModesAreValid(t *testing.T) {
	require.True(t, PerItem.isValid())
	require.True(t, Global.isValid())
	require.False(t, Mode(2).isValid())
	require.False(t, Mode(7).isValid())
}

func TestEvent_String(t *testing.T) {
	transfer := Event{Kind: EventTransferred, ItemId: "7", From: "alice", To: "bob"}
	require.Contains(t, transfer.String(), "7 alice -> bob")
	revoke := Event{Kind: EventAccountRevoked, Caller: "owner", Account: "bob"}
	require.Equal(t, "account_revoked: bob by owner", revoke.String())
}

// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend_test

import (
	"fmt"
	"testing"

	"github.com/joe-rlo/ShardNFTs/backend"
	"github.com/joe-rlo/ShardNFTs/backend/file"
	"github.com/joe-rlo/ShardNFTs/backend/ldb"
	"github.com/joe-rlo/ShardNFTs/backend/memory"
	"github.com/stretchr/testify/require"

	_ "github.com/joe-rlo/ShardNFTs/backend/all"
)

func openStore(t *testing.T, variant backend.Variant, dir string) backend.Store {
	t.Helper()
	store, err := backend.Open(variant, dir)
	require.NoError(t, err, "failed to open %s store", variant)
	return store
}

func TestStore_AllVariantsAreRegistered(t *testing.T) {
	require.Equal(t,
		[]backend.Variant{file.Variant, ldb.Variant, memory.Variant},
		backend.Variants(),
	)
}

func TestStore_UnknownVariantIsRejected(t *testing.T) {
	_, err := backend.Open("unknown", t.TempDir())
	require.ErrorContains(t, err, "unknown store variant")
}

func TestStore_DuplicateRegistrationPanics(t *testing.T) {
	require.Panics(t, func() {
		backend.RegisterFactory(memory.Variant, nil)
	})
}

func TestStore_MissingKeysAreReportedAsNotFound(t *testing.T) {
	for _, variant := range backend.Variants() {
		t.Run(string(variant), func(t *testing.T) {
			store := openStore(t, variant, t.TempDir())
			defer func() { require.NoError(t, store.Close()) }()

			_, err := store.Get([]byte("missing"))
			require.ErrorIs(t, err, backend.ErrNotFound)
		})
	}
}

func TestStore_AppliedBatchesAreVisible(t *testing.T) {
	for _, variant := range backend.Variants() {
		t.Run(string(variant), func(t *testing.T) {
			store := openStore(t, variant, t.TempDir())
			defer func() { require.NoError(t, store.Close()) }()

			var batch backend.Batch
			for i := range 10 {
				batch.Put([]byte(fmt.Sprintf("key-%d", i)), []byte(fmt.Sprintf("value-%d", i)))
			}
			require.NoError(t, store.Apply(batch))

			for i := range 10 {
				value, err := store.Get([]byte(fmt.Sprintf("key-%d", i)))
				require.NoError(t, err)
				require.Equal(t, []byte(fmt.Sprintf("value-%d", i)), value)
			}
		})
	}
}

func TestStore_ReturnedValuesAreCopies(t *testing.T) {
	for _, variant := range backend.Variants() {
		t.Run(string(variant), func(t *testing.T) {
			store := openStore(t, variant, t.TempDir())
			defer func() { require.NoError(t, store.Close()) }()

			var batch backend.Batch
			batch.Put([]byte("key"), []byte{1, 2, 3})
			require.NoError(t, store.Apply(batch))

			value, err := store.Get([]byte("key"))
			require.NoError(t, err)
			value[0] = 42

			value, err = store.Get([]byte("key"))
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, value)
		})
	}
}

func TestStore_LaterWritesInBatchWin(t *testing.T) {
	for _, variant := range backend.Variants() {
		t.Run(string(variant), func(t *testing.T) {
			store := openStore(t, variant, t.TempDir())
			defer func() { require.NoError(t, store.Close()) }()

			var batch backend.Batch
			batch.Put([]byte("a"), []byte("1"))
			batch.Put([]byte("a"), []byte("2"))
			batch.Put([]byte("b"), []byte("3"))
			batch.Delete([]byte("b"))
			require.NoError(t, store.Apply(batch))

			value, err := store.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("2"), value)
			_, err = store.Get([]byte("b"))
			require.ErrorIs(t, err, backend.ErrNotFound)
		})
	}
}

func TestStore_EmptyValuesAreNotDeletions(t *testing.T) {
	for _, variant := range backend.Variants() {
		t.Run(string(variant), func(t *testing.T) {
			store := openStore(t, variant, t.TempDir())
			defer func() { require.NoError(t, store.Close()) }()

			var batch backend.Batch
			batch.Put([]byte("a"), nil)
			require.NoError(t, store.Apply(batch))

			value, err := store.Get([]byte("a"))
			require.NoError(t, err)
			require.Empty(t, value)
		})
	}
}

func TestStore_DiskVariantsPersistAcrossReopen(t *testing.T) {
	for _, variant := range []backend.Variant{file.Variant, ldb.Variant} {
		t.Run(string(variant), func(t *testing.T) {
			dir := t.TempDir()
			store := openStore(t, variant, dir)
			var batch backend.Batch
			batch.Put([]byte("root"), []byte{1, 2, 3})
			require.NoError(t, store.Apply(batch))
			require.NoError(t, store.Flush())
			require.NoError(t, store.Close())

			store = openStore(t, variant, dir)
			defer func() { require.NoError(t, store.Close()) }()
			value, err := store.Get([]byte("root"))
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, value)
		})
	}
}

func TestMemoryStore_ContentIsCopied(t *testing.T) {
	store := memory.NewStore()
	value := []byte{1}
	var batch backend.Batch
	batch.Put([]byte("k"), value)
	require.NoError(t, store.Apply(batch))
	value[0] = 2

	got, err := store.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, got)
	require.Equal(t, 1, store.Len())
}

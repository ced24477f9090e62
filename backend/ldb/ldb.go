// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/joe-rlo/ShardNFTs/backend"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Variant is the name under which the LevelDB store is registered.
const Variant backend.Variant = "ldb"

func init() {
	backend.RegisterFactory(Variant, func(directory string) (backend.Store, error) {
		return OpenStore(directory)
	})
}

// Store is a LevelDB based backend.Store implementation. Batches are mapped
// to LevelDB write batches, which are applied atomically.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens or creates a LevelDB database in the given directory.
func OpenStore(directory string) (*Store, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb in %s: %w", directory, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, backend.ErrNotFound
	}
	return value, err
}

func (s *Store) Apply(batch backend.Batch) error {
	ldbBatch := new(leveldb.Batch)
	for _, write := range batch {
		if write.Value == nil {
			ldbBatch.Delete(write.Key)
		} else {
			ldbBatch.Put(write.Key, write.Value)
		}
	}
	return s.db.Write(ldbBatch, &opt.WriteOptions{Sync: true})
}

// Flush is a no-op since LevelDB persists every batch through its journal.
func (s *Store) Flush() error {
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

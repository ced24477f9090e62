// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"slices"
	"sync"

	"github.com/joe-rlo/ShardNFTs/backend"
)

// Variant is the name under which the in-memory store is registered.
const Variant backend.Variant = "memory"

func init() {
	backend.RegisterFactory(Variant, func(string) (backend.Store, error) {
		return NewStore(), nil
	})
}

// Store is an in-memory backend.Store implementation. Its content is lost on
// Close.
type Store struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: map[string][]byte{}}
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	value, found := s.data[string(key)]
	if !found {
		return nil, backend.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (s *Store) Apply(batch backend.Batch) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, write := range batch {
		if write.Value == nil {
			delete(s.data, string(write.Key))
			continue
		}
		value := make([]byte, len(write.Value))
		copy(value, write.Value)
		s.data[string(write.Key)] = value
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Flush is a no-op for the in-memory store.
func (s *Store) Flush() error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

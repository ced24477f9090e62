// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package indexer

//go:generate mockgen -source store.go -destination store_mocks.go -package indexer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joe-rlo/ShardNFTs/leaf"
)

// ErrNotFound is returned for items unknown to the indexer.
var ErrNotFound = errors.New("item not found")

// Store retains the leaves of all minted items in mint order.
type Store interface {
	// Append adds the leaf of a newly minted item. Item ids must be unique.
	Append(l leaf.Leaf) error
	// Update replaces the leaf of a known item, keeping its position.
	Update(l leaf.Leaf) error
	// Leaves lists all leaves in mint order.
	Leaves() ([]leaf.Leaf, error)
	// Close releases the store.
	Close() error
}

// memoryStore is a Store keeping leaves in memory.
type memoryStore struct {
	leaves    []leaf.Leaf
	positions map[string]int
	mutex     sync.Mutex
}

// NewMemoryStore creates an empty in-memory leaf store.
func NewMemoryStore() Store {
	return &memoryStore{positions: map[string]int{}}
}

func (s *memoryStore) Append(l leaf.Leaf) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, found := s.positions[l.ItemId]; found {
		return fmt.Errorf("item %q already present", l.ItemId)
	}
	s.positions[l.ItemId] = len(s.leaves)
	s.leaves = append(s.leaves, l)
	return nil
}

func (s *memoryStore) Update(l leaf.Leaf) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	pos, found := s.positions[l.ItemId]
	if !found {
		return fmt.Errorf("%w: %q", ErrNotFound, l.ItemId)
	}
	s.leaves[pos] = l
	return nil
}

func (s *memoryStore) Leaves() ([]leaf.Leaf, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]leaf.Leaf(nil), s.leaves...), nil
}

func (s *memoryStore) Close() error {
	return nil
}

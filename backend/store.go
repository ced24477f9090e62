// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

//go:generate mockgen -source store.go -destination store_mocks.go -package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrNotFound is returned by Store.Get for keys without a value.
var ErrNotFound = errors.New("key not found")

// Store is a flat key-value store persisting the ledger state. It plays the
// role of the native storage of the execution environment.
type Store interface {
	// Get returns the value stored for the key or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Apply writes all entries of the batch atomically. Either all or none
	// of the updates become visible.
	Apply(batch Batch) error
	// Flush persists all applied batches to the underlying medium.
	Flush() error
	// Close flushes and releases the store.
	Close() error
}

// Write is a single update in a batch. A nil Value deletes the key.
type Write struct {
	Key   []byte
	Value []byte
}

// Batch is an ordered list of writes applied as a unit.
type Batch []Write

// Put appends an insert or update of the given key.
func (b *Batch) Put(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	*b = append(*b, Write{Key: key, Value: value})
}

// Delete appends a removal of the given key.
func (b *Batch) Delete(key []byte) {
	*b = append(*b, Write{Key: key})
}

// Variant names a Store implementation.
type Variant string

// Factory opens a store of a given variant in the given directory. Variants
// keeping their data in memory ignore the directory.
type Factory func(directory string) (Store, error)

var (
	factories      = map[Variant]Factory{}
	factoriesMutex sync.Mutex
)

// RegisterFactory makes a store variant available through Open. Registering
// the same variant twice panics.
func RegisterFactory(variant Variant, factory Factory) {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()
	if _, found := factories[variant]; found {
		panic(fmt.Sprintf("store variant %q registered twice", variant))
	}
	factories[variant] = factory
}

// Open creates a store of the given variant.
func Open(variant Variant, directory string) (Store, error) {
	factoriesMutex.Lock()
	factory, found := factories[variant]
	factoriesMutex.Unlock()
	if !found {
		return nil, fmt.Errorf("unknown store variant %q, available: %v", variant, Variants())
	}
	return factory(directory)
}

// Variants lists all registered variants in sorted order.
func Variants() []Variant {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()
	res := make([]Variant, 0, len(factories))
	for variant := range factories {
		res = append(res, variant)
	}
	slices.Sort(res)
	return res
}

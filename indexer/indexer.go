// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package indexer maintains the off-chain view of all minted items: their
// leaves in mint order and the Merkle tree over them. It produces the roots
// published to the ledger and the proofs owners need for transfers.
package indexer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/joe-rlo/ShardNFTs/leaf"
	"github.com/joe-rlo/ShardNFTs/merkle"
)

// ErrEmpty is returned by Root if no item has been minted yet.
var ErrEmpty = errors.New("no items minted")

// Indexer tracks all minted items. It is safe for concurrent use.
type Indexer struct {
	store Store
	log   log.Logger
	newId func() string

	mutex     sync.Mutex
	leaves    []leaf.Leaf
	digests   []common.Hash
	positions map[string]int
	tree      *merkle.Tree // < nil while empty
}

// New creates an indexer on top of the given store, restoring all leaves
// retained by it. The indexer takes ownership of the store.
func New(store Store, logger log.Logger) (*Indexer, error) {
	if logger == nil {
		logger = log.Root()
	}
	leaves, err := store.Leaves()
	if err != nil {
		return nil, fmt.Errorf("failed to load leaves: %w", err)
	}
	res := &Indexer{
		store:     store,
		log:       logger.With("component", "indexer"),
		newId:     uuid.NewString,
		positions: make(map[string]int, len(leaves)),
	}
	for _, l := range leaves {
		digest, err := leaf.Digest(l)
		if err != nil {
			return nil, fmt.Errorf("invalid leaf of item %q: %w", l.ItemId, err)
		}
		if _, found := res.positions[l.ItemId]; found {
			return nil, fmt.Errorf("duplicate item %q", l.ItemId)
		}
		res.positions[l.ItemId] = len(res.leaves)
		res.leaves = append(res.leaves, l)
		res.digests = append(res.digests, digest)
	}
	if err := res.rebuild(); err != nil {
		return nil, err
	}
	return res, nil
}

// Mint registers a new item owned by the given account and returns its leaf.
// The item id is a freshly generated UUID.
func (i *Indexer) Mint(owner common.Account, metadata string) (leaf.Leaf, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	item := leaf.Leaf{ItemId: i.newId(), Owner: owner, Metadata: metadata}
	digest, err := leaf.Digest(item)
	if err != nil {
		return leaf.Leaf{}, err
	}
	if _, found := i.positions[item.ItemId]; found {
		return leaf.Leaf{}, fmt.Errorf("item id %q already in use", item.ItemId)
	}
	if err := i.store.Append(item); err != nil {
		return leaf.Leaf{}, fmt.Errorf("failed to store item %q: %w", item.ItemId, err)
	}
	i.positions[item.ItemId] = len(i.leaves)
	i.leaves = append(i.leaves, item)
	i.digests = append(i.digests, digest)
	if err := i.rebuild(); err != nil {
		return leaf.Leaf{}, err
	}
	i.log.Info("Item minted", "item", item.ItemId, "owner", owner, "root", i.tree.Root())
	return item, nil
}

// ApplyTransfer records a transfer accepted by the ledger and returns the
// updated root.
func (i *Indexer) ApplyTransfer(itemId string, newOwner common.Account) (common.Hash, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	pos, err := i.position(itemId)
	if err != nil {
		return common.Hash{}, err
	}
	updated := i.leaves[pos].WithOwner(newOwner)
	digest, err := leaf.Digest(updated)
	if err != nil {
		return common.Hash{}, err
	}
	if err := i.store.Update(updated); err != nil {
		return common.Hash{}, fmt.Errorf("failed to update item %q: %w", itemId, err)
	}
	if err := i.tree.Update(pos, digest); err != nil {
		return common.Hash{}, err
	}
	i.leaves[pos] = updated
	i.digests[pos] = digest
	i.log.Debug("Transfer applied", "item", itemId, "owner", newOwner, "root", i.tree.Root())
	return i.tree.Root(), nil
}

// Root returns the root over all minted items.
func (i *Indexer) Root() (common.Hash, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.tree == nil {
		return common.Hash{}, ErrEmpty
	}
	return i.tree.Root(), nil
}

// Leaf returns the current leaf of the given item.
func (i *Indexer) Leaf(itemId string) (leaf.Leaf, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	pos, err := i.position(itemId)
	if err != nil {
		return leaf.Leaf{}, err
	}
	return i.leaves[pos], nil
}

// Proof returns the proof of the current leaf of the given item against the
// current root.
func (i *Indexer) Proof(itemId string) (merkle.Proof, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	pos, err := i.position(itemId)
	if err != nil {
		return nil, err
	}
	return i.tree.Proof(pos)
}

// Len returns the number of minted items.
func (i *Indexer) Len() int {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return len(i.leaves)
}

// Close closes the underlying store.
func (i *Indexer) Close() error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.store.Close()
}

func (i *Indexer) position(itemId string) (int, error) {
	pos, found := i.positions[itemId]
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, itemId)
	}
	return pos, nil
}

func (i *Indexer) rebuild() error {
	if len(i.digests) == 0 {
		i.tree = nil
		return nil
	}
	tree, err := merkle.NewTree(i.digests)
	if err != nil {
		return err
	}
	i.tree = tree
	return nil
}

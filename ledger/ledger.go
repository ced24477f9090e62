// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ledger implements the authenticated ownership record of compressed
// NFTs. Only commitments are persisted; every transfer has to be backed by a
// Merkle proof checked against the current commitment of the item.
//
// A Ledger is a contract instance bound to an Environment providing the
// caller identity and storage. It holds no mutable state of its own: the
// contract state is read from the environment at the beginning of every
// operation, modified as a copy, and persisted only after all checks passed.
package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/joe-rlo/ShardNFTs/leaf"
	"github.com/joe-rlo/ShardNFTs/merkle"
)

// Storage keys used by the ledger.
const (
	stateKey            = "ledger/state"
	commitmentKeyPrefix = "ledger/commitment/"
)

func commitmentKey(itemId string) string {
	return commitmentKeyPrefix + itemId
}

// Config customizes a Ledger.
type Config struct {
	// Mode is the commitment mode fixed by Initialize. Ledgers initialized
	// before keep their persisted mode.
	Mode Mode
	// CacheLeaves makes the ledger persist the latest leaf of every
	// transferred item, so that follow-up transfers may omit it. Like Mode,
	// it is fixed by Initialize. It is only supported in PerItem mode.
	CacheLeaves bool
	// Logger receives diagnostics on rejected calls. Defaults to the root
	// logger.
	Logger log.Logger
}

// Ledger is the update protocol of the compressed NFT ownership record.
type Ledger struct {
	env    Environment
	config Config
	log    log.Logger
}

// New binds a ledger to the given environment.
func New(env Environment, config Config) *Ledger {
	logger := config.Logger
	if logger == nil {
		logger = log.Root()
	}
	return &Ledger{
		env:    env,
		config: config,
		log:    logger.With("component", "ledger"),
	}
}

// Initialize establishes the owner and the initial root. It may only be
// called once per ledger.
func (l *Ledger) Initialize(owner common.Account, initialRoot common.Hash) error {
	if owner.IsEmpty() {
		return fmt.Errorf("%w: empty owner", ErrInvalidInput)
	}
	if initialRoot.IsZero() {
		return fmt.Errorf("%w: empty initial root", ErrInvalidInput)
	}
	if !l.config.Mode.isValid() {
		return fmt.Errorf("%w: commitment mode %v", ErrInvalidInput, l.config.Mode)
	}
	if l.config.CacheLeaves && l.config.Mode != PerItem {
		return fmt.Errorf("%w: leaf cache requires %v mode", ErrInvalidInput, PerItem)
	}
	_, found, err := l.env.Read(stateKey)
	if err != nil {
		return err
	}
	if found {
		return ErrAlreadyInitialized
	}
	st := newState(owner, l.config.Mode, initialRoot)
	st.cacheLeaves = l.config.CacheLeaves
	if err := l.writeState(st); err != nil {
		return err
	}
	l.env.Emit(Event{
		Kind:       EventInitialized,
		Caller:     l.env.CurrentCaller(),
		Account:    owner,
		Commitment: initialRoot,
	})
	return nil
}

// UpdateRoot replaces the global root by a root computed off-chain, e.g.
// after the indexer minted new items. The new root is not verified: this
// operation checkpoints the indexer's state and trusts its computation. In
// PerItem mode, item commitments recorded before the update are superseded by
// the new root. It requires the caller to be the owner or an authorized
// account.
func (l *Ledger) UpdateRoot(newRoot common.Hash) error {
	caller := l.env.CurrentCaller()
	st, err := l.readState()
	if err != nil {
		return err
	}
	if !st.isAuthorized(caller) {
		l.log.Debug("Root update rejected", "caller", caller)
		return fmt.Errorf("%w: %s may not update the root", ErrUnauthorized, caller)
	}
	previous := st.root
	next := st.clone()
	next.epoch++
	if err := l.writeRoot(next, newRoot); err != nil {
		return err
	}
	l.env.Emit(Event{
		Kind:       EventRootUpdated,
		Caller:     caller,
		Previous:   previous,
		Commitment: newRoot,
	})
	return nil
}

// Transfer moves an item to a new owner. The current leaf of the item is
// either supplied by the caller or, if nil, taken from the leaf cache. The
// caller must own the item, and the proof must fold the leaf's digest up to
// the item's current commitment. The new commitment is obtained by folding
// the digest of the updated leaf through the same proof, since no other leaf
// changes.
func (l *Ledger) Transfer(itemId string, newOwner common.Account, current *leaf.Leaf, proof merkle.Proof) error {
	caller := l.env.CurrentCaller()
	if len(itemId) == 0 {
		return fmt.Errorf("%w: empty item id", ErrInvalidInput)
	}
	if newOwner.IsEmpty() {
		return fmt.Errorf("%w: empty receiver", ErrInvalidInput)
	}
	st, err := l.readState()
	if err != nil {
		return err
	}

	entry, err := l.readEntry(st, itemId)
	if err != nil {
		return err
	}
	item, err := resolveLeaf(itemId, current, entry)
	if err != nil {
		return err
	}
	if caller != item.Owner {
		l.log.Debug("Transfer rejected", "item", itemId, "caller", caller, "owner", item.Owner)
		return fmt.Errorf("%w: %s does not own item %q", ErrUnauthorized, caller, itemId)
	}

	digest, err := leaf.Digest(item)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	previous := l.commitment(st, entry)
	if err := merkle.Check(digest, proof, previous); err != nil {
		l.log.Debug("Transfer proof rejected", "item", itemId, "err", err)
		if errors.Is(err, merkle.ErrMalformedProof) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return fmt.Errorf("%w: item %q: %w", ErrProofMismatch, itemId, err)
	}

	updated := item.WithOwner(newOwner)
	encoded, err := leaf.Encode(updated)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	next := merkle.Fold(common.Sha256(encoded), proof)
	if st.mode == Global {
		err = l.writeRoot(st.clone(), next)
	} else {
		record := &itemEntry{epoch: st.epoch, commitment: next}
		if st.cacheLeaves {
			record.leaf = encoded
		}
		err = l.writeEntry(itemId, record)
	}
	if err != nil {
		return err
	}
	l.env.Emit(Event{
		Kind:       EventTransferred,
		Caller:     caller,
		ItemId:     itemId,
		From:       item.Owner,
		To:         newOwner,
		Previous:   previous,
		Commitment: next,
	})
	return nil
}

func resolveLeaf(itemId string, current *leaf.Leaf, entry *itemEntry) (leaf.Leaf, error) {
	if current != nil {
		if current.ItemId != itemId {
			return leaf.Leaf{}, fmt.Errorf("%w: leaf of item %q supplied for item %q", ErrInvalidInput, current.ItemId, itemId)
		}
		if err := current.Check(); err != nil {
			return leaf.Leaf{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return *current, nil
	}
	return cachedLeaf(itemId, entry)
}

// AddAuthorizedAccount grants the given account the right to update the
// root. Only the owner may call it. Adding an account that is already
// authorized, including the owner, is a no-op.
func (l *Ledger) AddAuthorizedAccount(account common.Account) error {
	return l.editAuthorization(account, true)
}

// RemoveAuthorizedAccount revokes the right of the given account to update
// the root. Only the owner may call it. Removing an account that is not
// authorized is a no-op. The owner can not be removed.
func (l *Ledger) RemoveAuthorizedAccount(account common.Account) error {
	return l.editAuthorization(account, false)
}

func (l *Ledger) editAuthorization(account common.Account, add bool) error {
	caller := l.env.CurrentCaller()
	if account.IsEmpty() {
		return fmt.Errorf("%w: empty account", ErrInvalidInput)
	}
	st, err := l.readState()
	if err != nil {
		return err
	}
	if caller != st.owner {
		l.log.Debug("Authorization change rejected", "caller", caller, "account", account)
		return fmt.Errorf("%w: only the owner may change authorizations", ErrUnauthorized)
	}
	if account == st.owner {
		if add {
			return nil
		}
		return fmt.Errorf("%w: the owner can not be removed", ErrInvalidInput)
	}
	_, present := st.authorized[account]
	if present == add {
		return nil
	}
	next := st.clone()
	kind := EventAccountAuthorized
	if add {
		next.authorized[account] = struct{}{}
	} else {
		delete(next.authorized, account)
		kind = EventAccountRevoked
	}
	if err := l.writeState(next); err != nil {
		return err
	}
	l.env.Emit(Event{Kind: kind, Caller: caller, Account: account})
	return nil
}

// --- Readers ---

// Root returns the global root.
func (l *Ledger) Root() (common.Hash, error) {
	st, err := l.readState()
	if err != nil {
		return common.Hash{}, err
	}
	return st.root, nil
}

// Commitment returns the digest the proof of the given item has to fold up
// to. In Global mode this is the global root. In PerItem mode it is the
// commitment recorded by the last transfer of the item, unless the root was
// updated since.
func (l *Ledger) Commitment(itemId string) (common.Hash, error) {
	st, err := l.readState()
	if err != nil {
		return common.Hash{}, err
	}
	entry, err := l.readEntry(st, itemId)
	if err != nil {
		return common.Hash{}, err
	}
	return l.commitment(st, entry), nil
}

func (l *Ledger) commitment(st *state, entry *itemEntry) common.Hash {
	if entry == nil || entry.epoch != st.epoch {
		return st.root
	}
	return entry.commitment
}

// Mode returns the commitment mode of the ledger.
func (l *Ledger) Mode() (Mode, error) {
	st, err := l.readState()
	if err != nil {
		return 0, err
	}
	return st.mode, nil
}

// Owner returns the owner of the ledger.
func (l *Ledger) Owner() (common.Account, error) {
	st, err := l.readState()
	if err != nil {
		return "", err
	}
	return st.owner, nil
}

// IsAuthorized reports whether the account may update the root.
func (l *Ledger) IsAuthorized(account common.Account) (bool, error) {
	st, err := l.readState()
	if err != nil {
		return false, err
	}
	return st.isAuthorized(account), nil
}

// AuthorizedAccounts lists the owner followed by all delegates in sorted
// order.
func (l *Ledger) AuthorizedAccounts() ([]common.Account, error) {
	st, err := l.readState()
	if err != nil {
		return nil, err
	}
	return st.accounts(), nil
}

// CachedLeaf returns the latest leaf of an item recorded by a transfer. It
// fails with ErrNotFound if leaf caching is disabled or the item was not
// transferred yet.
func (l *Ledger) CachedLeaf(itemId string) (leaf.Leaf, error) {
	st, err := l.readState()
	if err != nil {
		return leaf.Leaf{}, err
	}
	entry, err := l.readEntry(st, itemId)
	if err != nil {
		return leaf.Leaf{}, err
	}
	return cachedLeaf(itemId, entry)
}

func cachedLeaf(itemId string, entry *itemEntry) (leaf.Leaf, error) {
	if entry == nil || len(entry.leaf) == 0 {
		return leaf.Leaf{}, fmt.Errorf("%w: no leaf known for item %q", ErrNotFound, itemId)
	}
	res, err := leaf.Decode(entry.leaf)
	if err != nil {
		return leaf.Leaf{}, fmt.Errorf("corrupted leaf of item %q: %w", itemId, err)
	}
	return res, nil
}

// CachesLeaves reports whether the ledger retains the leaves of transferred
// items.
func (l *Ledger) CachesLeaves() (bool, error) {
	st, err := l.readState()
	if err != nil {
		return false, err
	}
	return st.cacheLeaves, nil
}

// --- Root store ---

func (l *Ledger) readState() (*state, error) {
	data, found, err := l.env.Read(stateKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInitialized
	}
	return decodeState(data)
}

func (l *Ledger) writeState(st *state) error {
	return l.env.Persist(stateKey, st.encode())
}

// writeRoot replaces the global root of the given state and persists it.
func (l *Ledger) writeRoot(st *state, root common.Hash) error {
	if root.IsZero() {
		return fmt.Errorf("%w: empty root", ErrInvalidInput)
	}
	st.root = root
	return l.writeState(st)
}

// readEntry fetches the record of an item in PerItem mode. It returns nil
// for Global ledgers and for items without a record.
func (l *Ledger) readEntry(st *state, itemId string) (*itemEntry, error) {
	if st.mode == Global {
		return nil, nil
	}
	data, found, err := l.env.Read(commitmentKey(itemId))
	if err != nil || !found {
		return nil, err
	}
	res, err := decodeItemEntry(data)
	if err != nil {
		return nil, fmt.Errorf("corrupted commitment of item %q: %w", itemId, err)
	}
	return res, nil
}

func (l *Ledger) writeEntry(itemId string, entry *itemEntry) error {
	if entry.commitment.IsZero() {
		return fmt.Errorf("%w: empty commitment", ErrInvalidInput)
	}
	return l.env.Persist(commitmentKey(itemId), entry.encode())
}

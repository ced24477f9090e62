// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package host

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/joe-rlo/ShardNFTs/backend"
	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/joe-rlo/ShardNFTs/ledger"
	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/maps"

	_ "github.com/joe-rlo/ShardNFTs/backend/all"
)

// ErrNoActiveCall is returned for writes attempted outside of Call.
var ErrNoActiveCall = errors.New("no active call")

// keyNamespace prefixes all logical keys before they are hashed into storage
// keys, such that the ledger may share a store with other data.
const keyNamespace = "shardnfts/ledger/"

// Runtime hosts a single ledger on a key-value store. It serializes calls,
// provides the caller identity to the ledger and commits the writes of a
// call atomically, if and only if the call succeeds.
//
// Runtime implements ledger.Environment. The environment methods are meant to
// be used by the hosted ledger only, during the execution of Call or View.
type Runtime struct {
	store  backend.Store
	ledger *ledger.Ledger
	log    log.Logger

	mutex  sync.Mutex
	call   *call          // < nil outside of Call
	events []ledger.Event // < events of all committed calls
}

// call is the per-call overlay of staged writes and events.
type call struct {
	caller common.Account
	writes map[string][]byte
	events []ledger.Event
}

var _ ledger.Environment = (*Runtime)(nil)

// Open creates a runtime for a ledger on a store described by the given
// parameters.
func Open(params ledger.Parameters, logger log.Logger) (*Runtime, error) {
	store, err := backend.Open(params.Variant, params.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", params.Variant, err)
	}
	return New(store, ledger.Config{
		Mode:        params.Mode,
		CacheLeaves: params.CacheLeaves,
		Logger:      logger,
	}), nil
}

// New creates a runtime hosting a ledger on the given store. The runtime
// takes ownership of the store.
func New(store backend.Store, config ledger.Config) *Runtime {
	if config.Logger == nil {
		config.Logger = log.Root()
	}
	res := &Runtime{
		store: store,
		log:   config.Logger.With("component", "host"),
	}
	res.ledger = ledger.New(res, config)
	return res
}

// Call runs fn on behalf of the given caller. Writes and events produced by fn
// only take effect if it returns nil. Calls are executed one at a time.
func (r *Runtime) Call(caller common.Account, fn func(*ledger.Ledger) error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	current := &call{caller: caller, writes: map[string][]byte{}}
	r.call = current
	defer func() { r.call = nil }()

	if err := fn(r.ledger); err != nil {
		r.log.Debug("Call reverted", "caller", caller, "writes", len(current.writes), "err", err)
		return err
	}

	if len(current.writes) > 0 {
		keys := maps.Keys(current.writes)
		slices.Sort(keys)
		batch := make(backend.Batch, 0, len(keys))
		for _, key := range keys {
			batch.Put(storageKey(key), current.writes[key])
		}
		if err := r.store.Apply(batch); err != nil {
			return fmt.Errorf("failed to commit call of %s: %w", caller, err)
		}
	}

	for _, event := range current.events {
		r.log.Info("Ledger event",
			"kind", event.Kind,
			"caller", event.Caller,
			"item", event.ItemId,
			"account", event.Account,
			"commitment", event.Commitment,
		)
	}
	r.events = append(r.events, current.events...)
	return nil
}

// View runs fn without a caller. Any attempt to write fails with
// ErrNoActiveCall.
func (r *Runtime) View(fn func(*ledger.Ledger) error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return fn(r.ledger)
}

// Events returns the events of all committed calls in order.
func (r *Runtime) Events() []ledger.Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return slices.Clone(r.events)
}

// Flush persists all committed calls.
func (r *Runtime) Flush() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.store.Flush()
}

// Close flushes and closes the underlying store.
func (r *Runtime) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.store.Close()
}

// --- ledger.Environment ---

func (r *Runtime) CurrentCaller() common.Account {
	if r.call == nil {
		return ""
	}
	return r.call.caller
}

func (r *Runtime) Read(key string) ([]byte, bool, error) {
	if r.call != nil {
		if value, found := r.call.writes[key]; found {
			return slices.Clone(value), true, nil
		}
	}
	value, err := r.store.Get(storageKey(key))
	if errors.Is(err, backend.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Runtime) Persist(key string, value []byte) error {
	if r.call == nil {
		return fmt.Errorf("%w: write of %q", ErrNoActiveCall, key)
	}
	r.call.writes[key] = slices.Clone(value)
	return nil
}

func (r *Runtime) Emit(event ledger.Event) {
	if r.call == nil {
		r.log.Warn("Event outside of call dropped", "event", event)
		return
	}
	r.call.events = append(r.call.events, event)
}

// storageKey derives the store key of a logical ledger key.
func storageKey(key string) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(keyNamespace))
	hasher.Write([]byte(key))
	return hasher.Sum(nil)
}

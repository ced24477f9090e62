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

//go:generate mockgen -source environment.go -destination environment_mocks.go -package ledger

import (
	"github.com/joe-rlo/ShardNFTs/common"
)

// Environment is the capability interface of the execution environment
// hosting a ledger. It provides the identity of the current caller and access
// to the environment's key-value storage.
//
// The environment is expected to deliver one call at a time. The ledger
// persists at most one value per mutation, and only after all checks of the
// mutation passed, so a failed call never leaves a partial update behind.
type Environment interface {
	// CurrentCaller returns the account that issued the current call.
	CurrentCaller() common.Account
	// Read returns the value persisted under the given key, if any.
	Read(key string) (value []byte, found bool, err error)
	// Persist stores a value under the given key. Writes are visible to
	// subsequent reads immediately.
	Persist(key string, value []byte) error
	// Emit publishes an auditable record of a successful mutation.
	Emit(event Event)
}

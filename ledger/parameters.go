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

import "github.com/joe-rlo/ShardNFTs/backend"

// Parameters describe a ledger hosted on a persistent key-value store.
type Parameters struct {
	// Directory holds the store files. Ignored by in-memory variants.
	Directory string
	// Variant selects the store implementation.
	Variant backend.Variant
	// Mode is the commitment mode used when the ledger gets initialized.
	Mode Mode
	// CacheLeaves enables the persistent leaf cache when the ledger gets
	// initialized, see Config.
	CacheLeaves bool
}

// DefaultParameters returns parameters for an in-memory ledger in per-item
// mode.
func DefaultParameters() Parameters {
	return Parameters{
		Variant: "memory",
		Mode:    PerItem,
	}
}

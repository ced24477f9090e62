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

import (
	"fmt"

	"github.com/joe-rlo/ShardNFTs/common"
)

// EventKind identifies the operation an Event records.
type EventKind string

const (
	EventInitialized       EventKind = "initialized"
	EventRootUpdated       EventKind = "root_updated"
	EventTransferred       EventKind = "transferred"
	EventAccountAuthorized EventKind = "account_authorized"
	EventAccountRevoked    EventKind = "account_revoked"
)

// Event is the auditable record of a state change of the ledger.
type Event struct {
	Kind   EventKind      `json:"kind"`
	Caller common.Account `json:"caller"`

	// ItemId is set for transfers.
	ItemId string `json:"item_id,omitempty"`
	// From and To are set for transfers.
	From common.Account `json:"from,omitempty"`
	To   common.Account `json:"to,omitempty"`
	// Account is the subject of authorization changes.
	Account common.Account `json:"account,omitempty"`

	// Previous and Commitment are the commitment before and after the change.
	// Both are zero for authorization changes.
	Previous   common.Hash `json:"previous"`
	Commitment common.Hash `json:"commitment"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventTransferred:
		return fmt.Sprintf("%s: %s %s -> %s, %v -> %v", e.Kind, e.ItemId, e.From, e.To, e.Previous, e.Commitment)
	case EventAccountAuthorized, EventAccountRevoked:
		return fmt.Sprintf("%s: %s by %s", e.Kind, e.Account, e.Caller)
	}
	return fmt.Sprintf("%s: %v -> %v by %s", e.Kind, e.Previous, e.Commitment, e.Caller)
}

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

import "errors"

// The error taxonomy of the ledger. All operations fail atomically; a
// returned error always means that no state was modified.
var (
	// ErrUnauthorized is returned if the caller is not permitted to perform
	// the requested mutation.
	ErrUnauthorized = errors.New("caller is not authorized")
	// ErrInvalidInput is returned for empty or malformed arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProofMismatch is returned if a proof does not fold up to the current
	// commitment. The caller may be entitled, but the evidence is stale or wrong.
	ErrProofMismatch = errors.New("proof does not match commitment")
	// ErrNotFound is returned for items without a known leaf or commitment.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	// ErrNotInitialized is returned by operations on a ledger that has not
	// been initialized yet.
	ErrNotInitialized = errors.New("ledger not initialized")
)

// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/joe-rlo/ShardNFTs/leaf"
	"github.com/joe-rlo/ShardNFTs/ledger"
	"github.com/joe-rlo/ShardNFTs/merkle"
	"github.com/stretchr/testify/require"
)

func TestAllCommands_Run(t *testing.T) {
	for _, cmd := range commands {
		t.Run(cmd.Name, func(t *testing.T) {
			os.Args = []string{"tool", cmd.Name, "--help"}
			main() // ensure commands can be invoked without error
		})
	}
}

// runTool runs the tool with the given arguments on a ledger in dir and
// returns its standard output.
func runTool(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	base := []string{"tool", "--db", dir, "--variant", "file", "--verbosity", "8"}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func TestTool_LedgerLifecycle(t *testing.T) {
	dir := t.TempDir()
	items := []leaf.Leaf{
		{ItemId: "1", Owner: "alice", Metadata: "ipfs://1"},
		{ItemId: "2", Owner: "bob", Metadata: "ipfs://2"},
		{ItemId: "3", Owner: "alice", Metadata: "ipfs://3"},
	}
	digests := make([]common.Hash, 0, len(items))
	for _, item := range items {
		digests = append(digests, leaf.MustDigest(item))
	}
	tree, err := merkle.NewTree(digests)
	require.NoError(t, err)
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	proofArgs := []string{}
	for _, sibling := range proof.Siblings() {
		proofArgs = append(proofArgs, "--proof", sibling.String())
	}

	_, err = runTool(t, dir, "--caller", "operator", "init", "--owner", "operator", "--root", tree.Root().String())
	require.NoError(t, err)

	_, err = runTool(t, dir, "--caller", "operator", "authorize", "--account", "indexer")
	require.NoError(t, err)

	out, err := runTool(t, dir, "info")
	require.NoError(t, err)
	require.Contains(t, out, "Owner:      operator")
	require.Contains(t, out, "Authorized: indexer")
	require.Contains(t, out, "Mode:       per-item")
	require.Contains(t, out, "Leaf cache: disabled")
	require.Contains(t, out, tree.Root().String())

	args := append([]string{"--caller", "alice", "transfer", "--item", "1", "--to", "carol",
		"--leaf-owner", "alice", "--metadata", "ipfs://1"}, proofArgs...)
	out, err = runTool(t, dir, args...)
	require.NoError(t, err)
	require.Contains(t, out, string(ledger.EventTransferred))

	out, err = runTool(t, dir, "commitment", "1")
	require.NoError(t, err)
	want := merkle.Fold(leaf.MustDigest(items[0].WithOwner("carol")), proof)
	require.Equal(t, want.String(), strings.TrimSpace(out))

	// Replaying the transfer is rejected.
	_, err = runTool(t, dir, args...)
	require.ErrorIs(t, err, ledger.ErrProofMismatch)

	_, err = runTool(t, dir, "--caller", "mallory", "update-root", "--root", want.String())
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = runTool(t, dir, "--caller", "indexer", "update-root", "--root", want.String())
	require.NoError(t, err)

	_, err = runTool(t, dir, "--caller", "operator", "revoke", "--account", "indexer")
	require.NoError(t, err)
	_, err = runTool(t, dir, "--caller", "indexer", "update-root", "--root", tree.Root().String())
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestTool_LeafCacheIsFixedWhenInitializing(t *testing.T) {
	dir := t.TempDir()
	root := common.Hash{1}.String()
	_, err := runTool(t, dir, "--caller", "operator", "--mode", "global", "--cache-leaves",
		"init", "--owner", "operator", "--root", root)
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = runTool(t, dir, "--caller", "operator", "--cache-leaves", "init", "--owner", "operator", "--root", root)
	require.NoError(t, err)

	// Later runs keep the persisted setting.
	out, err := runTool(t, dir, "info")
	require.NoError(t, err)
	require.Contains(t, out, "Leaf cache: enabled")
}

func TestTool_CallsRequireCaller(t *testing.T) {
	_, err := runTool(t, t.TempDir(), "init", "--owner", "operator", "--root", common.Hash{1}.String())
	require.ErrorContains(t, err, "missing --caller")
}

func TestTool_RejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	_, err := runTool(t, dir, "--caller", "operator", "init", "--owner", "operator", "--root", "0x1234")
	require.Error(t, err)

	_, err = runTool(t, dir, "--mode", "sharded", "info")
	require.ErrorContains(t, err, "unknown commitment mode")

	_, err = runTool(t, dir, "commitment")
	require.ErrorContains(t, err, "missing item id")

	_, err = runTool(t, dir, "info")
	require.ErrorIs(t, err, ledger.ErrNotInitialized)
}

func TestTool_TransferWithMalformedProofIsRejected(t *testing.T) {
	dir := t.TempDir()
	_, err := runTool(t, dir, "--caller", "operator", "init", "--owner", "operator", "--root", common.Hash{1}.String())
	require.NoError(t, err)
	_, err = runTool(t, dir, "--caller", "alice", "transfer", "--item", "1", "--to", "bob",
		"--leaf-owner", "alice", "--proof", "0x0102")
	require.ErrorIs(t, err, merkle.ErrMalformedProof)
}

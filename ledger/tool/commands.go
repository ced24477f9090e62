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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/joe-rlo/ShardNFTs/backend"
	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/joe-rlo/ShardNFTs/host"
	"github.com/joe-rlo/ShardNFTs/leaf"
	"github.com/joe-rlo/ShardNFTs/ledger"
	"github.com/joe-rlo/ShardNFTs/merkle"
	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"
)

var (
	dbFlag = cli.StringFlag{
		Name:  "db",
		Usage: "directory of the ledger store",
		Value: "ledger-db",
	}
	variantFlag = cli.StringFlag{
		Name:  "variant",
		Usage: fmt.Sprintf("store variant, one of %v", backend.Variants()),
		Value: "ldb",
	}
	modeFlag = cli.StringFlag{
		Name:  "mode",
		Usage: "commitment mode used when initializing the ledger, per-item or global",
		Value: ledger.PerItem.String(),
	}
	cacheLeavesFlag = cli.BoolFlag{
		Name:  "cache-leaves",
		Usage: "retain the leaves of transferred items, applied when initializing a per-item ledger and kept for its lifetime",
	}
	callerFlag = cli.StringFlag{
		Name:  "caller",
		Usage: "account issuing the call",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level, from -8 (trace) to 12 (crit)",
		Value: int(log.LevelInfo),
	}

	rootFlag = cli.StringFlag{
		Name:     "root",
		Usage:    "hex encoded 32-byte root",
		Required: true,
	}
	ownerFlag = cli.StringFlag{
		Name:     "owner",
		Usage:    "owner account of the ledger",
		Required: true,
	}
	itemFlag = cli.StringFlag{
		Name:     "item",
		Usage:    "id of the item",
		Required: true,
	}
	toFlag = cli.StringFlag{
		Name:     "to",
		Usage:    "account receiving the item",
		Required: true,
	}
	leafOwnerFlag = cli.StringFlag{
		Name:  "leaf-owner",
		Usage: "current owner recorded in the leaf, omit to use the cached leaf",
	}
	metadataFlag = cli.StringFlag{
		Name:  "metadata",
		Usage: "metadata recorded in the leaf",
	}
	proofFlag = cli.StringSliceFlag{
		Name:  "proof",
		Usage: "hex encoded sibling digests from the leaf level upwards",
	}
	accountFlag = cli.StringFlag{
		Name:     "account",
		Usage:    "account to authorize or revoke",
		Required: true,
	}
)

var InitCmd = cli.Command{
	Action: diagnosticFlags.Wrap(doInit),
	Name:   "init",
	Usage:  "initializes a new ledger with its owner and initial root",
	Flags:  []cli.Flag{&ownerFlag, &rootFlag},
}

var UpdateRootCmd = cli.Command{
	Action: diagnosticFlags.Wrap(doUpdateRoot),
	Name:   "update-root",
	Usage:  "replaces the global root, requires an authorized caller",
	Flags:  []cli.Flag{&rootFlag},
}

var TransferCmd = cli.Command{
	Action: diagnosticFlags.Wrap(doTransfer),
	Name:   "transfer",
	Usage:  "transfers an item owned by the caller",
	Flags:  []cli.Flag{&itemFlag, &toFlag, &leafOwnerFlag, &metadataFlag, &proofFlag},
}

var AuthorizeCmd = cli.Command{
	Action: diagnosticFlags.Wrap(doAuthorize),
	Name:   "authorize",
	Usage:  "permits an account to update the root, requires the owner as caller",
	Flags:  []cli.Flag{&accountFlag},
}

var RevokeCmd = cli.Command{
	Action: diagnosticFlags.Wrap(doRevoke),
	Name:   "revoke",
	Usage:  "revokes the permission of an account to update the root",
	Flags:  []cli.Flag{&accountFlag},
}

var CommitmentCmd = cli.Command{
	Action:    diagnosticFlags.Wrap(doCommitment),
	Name:      "commitment",
	Usage:     "prints the commitment proofs of an item have to match",
	ArgsUsage: "<item id>",
}

var InfoCmd = cli.Command{
	Action: diagnosticFlags.Wrap(doInfo),
	Name:   "info",
	Usage:  "prints a summary of the ledger",
}

func doInit(context *cli.Context) error {
	root, err := common.HashFromHex(context.String(rootFlag.Name))
	if err != nil {
		return err
	}
	owner := common.Account(context.String(ownerFlag.Name))
	return call(context, func(l *ledger.Ledger) error {
		return l.Initialize(owner, root)
	})
}

func doUpdateRoot(context *cli.Context) error {
	root, err := common.HashFromHex(context.String(rootFlag.Name))
	if err != nil {
		return err
	}
	return call(context, func(l *ledger.Ledger) error {
		return l.UpdateRoot(root)
	})
}

func doTransfer(context *cli.Context) error {
	itemId := context.String(itemFlag.Name)
	var current *leaf.Leaf
	if owner := context.String(leafOwnerFlag.Name); owner != "" {
		current = &leaf.Leaf{
			ItemId:   itemId,
			Owner:    common.Account(owner),
			Metadata: context.String(metadataFlag.Name),
		}
	}
	proof, err := parseProof(context.StringSlice(proofFlag.Name))
	if err != nil {
		return err
	}
	receiver := common.Account(context.String(toFlag.Name))
	return call(context, func(l *ledger.Ledger) error {
		return l.Transfer(itemId, receiver, current, proof)
	})
}

func doAuthorize(context *cli.Context) error {
	account := common.Account(context.String(accountFlag.Name))
	return call(context, func(l *ledger.Ledger) error {
		return l.AddAuthorizedAccount(account)
	})
}

func doRevoke(context *cli.Context) error {
	account := common.Account(context.String(accountFlag.Name))
	return call(context, func(l *ledger.Ledger) error {
		return l.RemoveAuthorizedAccount(account)
	})
}

func doCommitment(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing item id parameter")
	}
	itemId := context.Args().Get(0)
	return view(context, func(l *ledger.Ledger) error {
		commitment, err := l.Commitment(itemId)
		if err != nil {
			return err
		}
		fmt.Fprintln(context.App.Writer, commitment)
		return nil
	})
}

func doInfo(context *cli.Context) error {
	out := context.App.Writer
	return view(context, func(l *ledger.Ledger) error {
		mode, err := l.Mode()
		if err != nil {
			return err
		}
		root, err := l.Root()
		if err != nil {
			return err
		}
		accounts, err := l.AuthorizedAccounts()
		if err != nil {
			return err
		}
		cache := "disabled"
		if enabled, err := l.CachesLeaves(); err != nil {
			return err
		} else if enabled {
			cache = "enabled"
		}
		fmt.Fprintf(out, "Store:      %s (%s)\n", context.String(dbFlag.Name), context.String(variantFlag.Name))
		fmt.Fprintf(out, "Mode:       %v\n", mode)
		fmt.Fprintf(out, "Leaf cache: %s\n", cache)
		fmt.Fprintf(out, "Root:       %v\n", root)
		fmt.Fprintf(out, "Owner:      %s\n", accounts[0])
		fmt.Fprintf(out, "Authorized: %s\n", joinAccounts(accounts[1:]))
		fmt.Fprintf(out, "Memory:     %d MiB free of %d MiB\n", memory.FreeMemory()>>20, memory.TotalMemory()>>20)
		return nil
	})
}

// call runs fn as a single call of the configured caller on the ledger.
func call(context *cli.Context, fn func(*ledger.Ledger) error) error {
	caller := common.Account(context.String(callerFlag.Name))
	if caller.IsEmpty() {
		return fmt.Errorf("missing --%s", callerFlag.Name)
	}
	return withRuntime(context, func(runtime *host.Runtime) error {
		if err := runtime.Call(caller, fn); err != nil {
			return err
		}
		for _, event := range runtime.Events() {
			fmt.Fprintln(context.App.Writer, event)
		}
		return nil
	})
}

func view(context *cli.Context, fn func(*ledger.Ledger) error) error {
	return withRuntime(context, func(runtime *host.Runtime) error {
		return runtime.View(fn)
	})
}

func withRuntime(context *cli.Context, fn func(*host.Runtime) error) (err error) {
	params, err := parameters(context)
	if err != nil {
		return err
	}
	runtime, err := host.Open(params, newLogger(context))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, runtime.Close())
	}()
	return fn(runtime)
}

func parameters(context *cli.Context) (ledger.Parameters, error) {
	mode, err := ledger.ParseMode(context.String(modeFlag.Name))
	if err != nil {
		return ledger.Parameters{}, err
	}
	return ledger.Parameters{
		Directory:   context.String(dbFlag.Name),
		Variant:     backend.Variant(context.String(variantFlag.Name)),
		Mode:        mode,
		CacheLeaves: context.Bool(cacheLeavesFlag.Name),
	}, nil
}

func newLogger(context *cli.Context) log.Logger {
	level := slog.Level(context.Int(verbosityFlag.Name))
	return log.NewLogger(log.NewTerminalHandlerWithLevel(context.App.ErrWriter, level, false))
}

func parseProof(entries []string) (merkle.Proof, error) {
	siblings := make([][]byte, 0, len(entries))
	for i, entry := range entries {
		sibling, err := hexutil.Decode(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid proof entry %d: %w", i, err)
		}
		siblings = append(siblings, sibling)
	}
	return merkle.ParseProof(siblings)
}

func joinAccounts(accounts []common.Account) string {
	if len(accounts) == 0 {
		return "-"
	}
	names := make([]string, 0, len(accounts))
	for _, account := range accounts {
		names = append(names, string(account))
	}
	return strings.Join(names, ", ")
}

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
	"fmt"
	"os"

	"github.com/joe-rlo/ShardNFTs/common/diagnostics"
	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./ledger/tool <flags> <command> <command flags>

var diagnosticFlags = diagnostics.DefaultFlags()

var commands = []*cli.Command{
	&InitCmd,
	&UpdateRootCmd,
	&TransferCmd,
	&AuthorizeCmd,
	&RevokeCmd,
	&CommitmentCmd,
	&InfoCmd,
}

func newApp() *cli.App {
	flags := []cli.Flag{
		&dbFlag,
		&variantFlag,
		&modeFlag,
		&cacheLeavesFlag,
		&callerFlag,
		&verbosityFlag,
	}
	return &cli.App{
		Name:      "tool",
		Usage:     "compressed NFT ledger toolbox",
		Copyright: "(c) 2025 Sonic Operations Ltd",
		Flags:     append(flags, diagnosticFlags.All()...),
		Commands:  commands,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

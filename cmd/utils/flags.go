// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// This file is derived from cmd/utils/flags.go's "one package-level Flag var
// per CLI flag" convention, narrowed from a full node's flag surface to the
// load generator's (spec.md §6).

package utils

import (
	"github.com/klaytn/loadgen/params"
	"github.com/urfave/cli/v2"
)

var (
	JSONRPCFlag = &cli.StringFlag{
		Name:     "json-rpc",
		Aliases:  []string{"u"},
		Usage:    "JSON-RPC endpoint URL of the target node",
		Required: true,
	}
	MnemonicFlag = &cli.StringFlag{
		Name:    "mnemonic",
		Aliases: []string{"m"},
		Usage:   "BIP-39 mnemonic seed the funder and sub-accounts are derived from",
	}
	SubAccountsFlag = &cli.Uint64Flag{
		Name:    "sub-accounts",
		Aliases: []string{"s"},
		Usage:   "number of sub-accounts to derive and fund",
		Value:   params.DefaultSubAccounts,
	}
	TransactionsFlag = &cli.IntFlag{
		Name:    "transactions",
		Aliases: []string{"t"},
		Usage:   "total number of transactions to construct and submit",
		Value:   params.DefaultTransactions,
	}
	BatchFlag = &cli.IntFlag{
		Name:    "batch",
		Aliases: []string{"b"},
		Usage:   "HTTP batch size for submission",
		Value:   params.DefaultBatchSize,
	}
	ConcurrencyFlag = &cli.IntFlag{
		Name:    "concurrency",
		Aliases: []string{"c"},
		Usage:   "worker cap for balance queries, funding, signing and submission",
		Value:   params.DefaultConcurrency,
	}
	ModeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "EOA|ERC20|ERC721|WITHDRAWAL|CLEAR_PENDING|GET_PENDING_COUNT",
		Value: "EOA",
	}
	FixedGasPriceFlag = &cli.BoolFlag{
		Name:  "fixed-gas-price",
		Usage: "force gas price to 1 gwei instead of querying the node",
	}
	MoatAddressFlag = &cli.StringFlag{
		Name:  "moat-address",
		Usage: "L2 moat contract address (WITHDRAWAL mode)",
	}
	TargetAddressFlag = &cli.StringFlag{
		Name:  "target-address",
		Usage: "base58check L1 withdrawal target address (WITHDRAWAL mode)",
	}
	NumAccountsFlag = &cli.Uint64Flag{
		Name:  "num-accounts",
		Usage: "size of the account range to scan (CLEAR_PENDING mode)",
	}
	StartIndexFlag = &cli.Uint64Flag{
		Name:  "start-index",
		Usage: "first account index of the scan range (CLEAR_PENDING mode)",
	}
	EndIndexFlag = &cli.Uint64Flag{
		Name:  "end-index",
		Usage: "account index one past the end of the scan range (CLEAR_PENDING mode)",
	}
	OutputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "path to write the StatCollector results JSON",
	}
	DBPathFlag = &cli.StringFlag{
		Name:  "db-path",
		Usage: "path to the reconciler's embedded SQLite file (WITHDRAWAL mode)",
		Value: "loadgen.db",
	}
)

// Flags is the full flag set registered on the CLI app, in the order
// spec.md §6 lists them.
var Flags = []cli.Flag{
	JSONRPCFlag,
	MnemonicFlag,
	SubAccountsFlag,
	TransactionsFlag,
	BatchFlag,
	ConcurrencyFlag,
	ModeFlag,
	FixedGasPriceFlag,
	MoatAddressFlag,
	TargetAddressFlag,
	NumAccountsFlag,
	StartIndexFlag,
	EndIndexFlag,
	OutputFlag,
	DBPathFlag,
}

// Copyright 2018 The klaytn Authors
// Copyright 2016 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from cmd/geth/main.go's app-wiring shape, narrowed
// from a node's lifecycle to a single CLI action that resolves a Config and
// runs the Run orchestrator (spec.md §2, §6).

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	cmdutils "github.com/klaytn/loadgen/cmd/utils"
	"github.com/klaytn/loadgen/client"
	"github.com/klaytn/loadgen/config"
	"github.com/klaytn/loadgen/l1addr"
	"github.com/klaytn/loadgen/reconcile"
	"github.com/klaytn/loadgen/storage/database"
	"github.com/klaytn/loadgen/work"
)

var logger = log.New("module", "cmd/loadgen")

var app = &cli.App{
	Name:  "loadgen",
	Usage: "stress-test load generator and cross-chain reconciler for EVM chains",
	Flags: cmdutils.Flags,
	Action: func(c *cli.Context) error {
		cfg, err := config.FromCLI(c)
		if err != nil {
			return err
		}
		return run(c.Context, cfg)
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		cmdutils.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Root().SetHandler(log.LvlFilterHandler(logLevel(cfg.LogLevel), log.StreamHandler(os.Stderr, log.TerminalFormat(false))))

	rpc, err := client.Dial(ctx, cfg.JSONRPCURL)
	if err != nil {
		return fmt.Errorf("loadgen: dial %s: %w", cfg.JSONRPCURL, err)
	}
	defer rpc.Close()

	params := work.RunParams{
		Mnemonic:      cfg.Mnemonic,
		SubAccounts:   cfg.SubAccounts,
		Transactions:  cfg.Transactions,
		BatchSize:     cfg.BatchSize,
		Concurrency:   cfg.Concurrency,
		Mode:          cfg.Mode,
		FixedGasPrice: cfg.FixedGasPrice,
		MoatAddress:   cfg.MoatAddress,
		TargetAddress: cfg.TargetAddress,
		StartIndex:    cfg.StartIndex,
		EndIndex:      cfg.EndIndex,
	}

	result, err := work.Run(ctx, rpc, params, withdrawalHook(ctx, cfg, rpc))
	if err != nil {
		return err
	}

	if err := writeResult(cfg.OutputPath, result); err != nil {
		return err
	}

	if cfg.Mode == work.ModeWithdrawal {
		logger.Info("loadgen: withdrawal submitted, reconciler running in background; press Ctrl+C to stop")
		<-ctx.Done()
	}
	return nil
}

// withdrawalHook launches the CrossChainReconciler as a background activity
// once the Withdrawal-mode transactions are built but before they are
// submitted, so no withdrawal event is missed (spec.md §2).
func withdrawalHook(ctx context.Context, cfg *config.Config, rpc *client.RpcClient) func(startHeight uint64) error {
	return func(startHeight uint64) error {
		target, err := l1addr.Decode(cfg.TargetAddress)
		if err != nil {
			return fmt.Errorf("loadgen: decode target address: %w", err)
		}
		db, err := database.NewDBManager(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("loadgen: open reconciler database: %w", err)
		}

		r := reconcile.New(cfg.ZMQEndpoint, target, rpc, cfg.MoatAddress, startHeight, db)
		go func() {
			defer db.Close()
			if err := r.Run(ctx, nil); err != nil {
				logger.Error("loadgen: reconciler stopped", "err", err)
			}
		}()
		return nil
	}
}

func writeResult(path string, result *work.RunResult) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("loadgen: create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func logLevel(s string) log.Lvl {
	switch s {
	case "TRACE":
		return log.LvlTrace
	case "DEBUG":
		return log.LvlDebug
	case "WARN":
		return log.LvlWarn
	case "ERROR":
		return log.LvlError
	case "CRIT":
		return log.LvlCrit
	default:
		return log.LvlInfo
	}
}

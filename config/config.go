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

// Package config resolves the CLI flags and environment variables into one
// run configuration, the way the teacher's node/config.go composes a node's
// Config from its own CLI context (spec.md §6).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/work"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	cmdutils "github.com/klaytn/loadgen/cmd/utils"
)

// Config is the fully resolved configuration for one run (spec.md §6).
type Config struct {
	JSONRPCURL string
	Mnemonic   string

	SubAccounts   uint64
	Transactions  int
	BatchSize     int
	Concurrency   int
	Mode          work.Mode
	FixedGasPrice bool

	MoatAddress   common.Address
	TargetAddress string

	NumAccounts uint64
	StartIndex  uint64
	EndIndex    uint64

	OutputPath string
	DBPath     string

	LogFilePath string
	LogLevel    string
	ZMQEndpoint string
}

// ErrMissingMnemonic signals a fatal configuration error: every mode but
// GET_PENDING_COUNT requires a mnemonic (spec.md §6).
var ErrMissingMnemonic = errors.New("config: --mnemonic is required except in GET_PENDING_COUNT mode")

// FromCLI resolves a Config from a urfave/cli context plus the environment
// variables spec.md §6 names.
func FromCLI(c *cli.Context) (*Config, error) {
	mode, err := parseMode(c.String(cmdutils.ModeFlag.Name))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		JSONRPCURL:    c.String(cmdutils.JSONRPCFlag.Name),
		Mnemonic:      c.String(cmdutils.MnemonicFlag.Name),
		SubAccounts:   c.Uint64(cmdutils.SubAccountsFlag.Name),
		Transactions:  c.Int(cmdutils.TransactionsFlag.Name),
		BatchSize:     c.Int(cmdutils.BatchFlag.Name),
		Concurrency:   c.Int(cmdutils.ConcurrencyFlag.Name),
		Mode:          mode,
		FixedGasPrice: c.Bool(cmdutils.FixedGasPriceFlag.Name),
		MoatAddress:   common.HexToAddress(c.String(cmdutils.MoatAddressFlag.Name)),
		TargetAddress: c.String(cmdutils.TargetAddressFlag.Name),
		NumAccounts:   c.Uint64(cmdutils.NumAccountsFlag.Name),
		StartIndex:    c.Uint64(cmdutils.StartIndexFlag.Name),
		EndIndex:      c.Uint64(cmdutils.EndIndexFlag.Name),
		OutputPath:    c.String(cmdutils.OutputFlag.Name),
		DBPath:        c.String(cmdutils.DBPathFlag.Name),
		LogFilePath:   os.Getenv("LOG_FILE_PATH"),
		LogLevel:      envOr("LOG_LEVEL", "INFO"),
		ZMQEndpoint:   os.Getenv("DOGE_ZMQ_ENDPOINT"),
	}

	if cfg.Mnemonic == "" && cfg.Mode != work.ModeGetPendingCount {
		return nil, ErrMissingMnemonic
	}
	if cfg.Mode == work.ModeClearPending && cfg.EndIndex == 0 {
		cfg.EndIndex = cfg.StartIndex + cfg.NumAccounts
	}
	return cfg, nil
}

func parseMode(s string) (work.Mode, error) {
	switch strings.ToUpper(s) {
	case "", "EOA":
		return work.ModeEOA, nil
	case "ERC20":
		return work.ModeERC20, nil
	case "ERC721":
		return work.ModeERC721, nil
	case "WITHDRAWAL":
		return work.ModeWithdrawal, nil
	case "CLEAR_PENDING":
		return work.ModeClearPending, nil
	case "GET_PENDING_COUNT":
		return work.ModeGetPendingCount, nil
	default:
		return 0, fmt.Errorf("config: unknown mode %q", s)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

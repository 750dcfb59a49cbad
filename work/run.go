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

// This file is derived from the teacher's cmd/kcn/main.go top-level wiring:
// a single orchestrator that resolves a mode and sequences the components
// built for it (spec.md §2).

package work

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/accounts"
	"github.com/klaytn/loadgen/contracts"
	"github.com/klaytn/loadgen/params"
)

// RunRPC is the full surface the orchestrator needs from client.RpcClient;
// every component-level RPC interface in this package is a subset of it.
type RunRPC interface {
	DistributorRPC
	TokenRuntimeRPC
	ClearPendingRPC
	StatCollectorRPC
	BatchSender
	ChainID(ctx context.Context) (*big.Int, error)
}

// RunParams is the resolved configuration for one orchestrator run,
// independent of how it was parsed (CLI flags, environment) (spec.md §6).
type RunParams struct {
	Mnemonic     string
	SubAccounts  uint64
	Transactions int
	BatchSize    int
	Concurrency  int
	Mode         Mode

	FixedGasPrice bool
	MoatAddress   common.Address
	TargetAddress string

	StartIndex uint64
	EndIndex   uint64
}

// RunResult is what the orchestrator hands back for serialization
// (spec.md §6's "Results JSON").
type RunResult struct {
	Stats          *Result              `json:"stats,omitempty"`
	ClearedResults []ClearPendingResult `json:"clearedResults,omitempty"`
	PendingCount   uint64               `json:"pendingCount,omitempty"`
}

// Run dispatches on Mode and sequences the components built for it
// (spec.md §2): transfer modes run Distributor -> (TokenRuntime) ->
// TxBuilder -> Signer -> Submitter -> StatCollector; WITHDRAWAL additionally
// launches the reconciler as a background activity via withdrawalHook;
// CLEAR_PENDING and GET_PENDING_COUNT bypass the pipeline entirely.
func Run(ctx context.Context, rpc RunRPC, p RunParams, withdrawalHook func(startHeight uint64) error) (*RunResult, error) {
	switch p.Mode {
	case ModeGetPendingCount:
		n, err := rpc.PendingTxCount(ctx)
		if err != nil {
			return nil, err
		}
		return &RunResult{PendingCount: n}, nil

	case ModeClearPending:
		return runClearPending(ctx, rpc, p)

	default:
		return runTransferMode(ctx, rpc, p, withdrawalHook)
	}
}

func runClearPending(ctx context.Context, rpc RunRPC, p RunParams) (*RunResult, error) {
	deriver, err := accounts.NewKeyDeriver(p.Mnemonic)
	if err != nil {
		return nil, err
	}
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	gasPrice, err := resolveGasPrice(ctx, rpc, p.FixedGasPrice)
	if err != nil {
		return nil, err
	}

	cp := NewClearPending(rpc, deriver, chainID, gasPrice, p.Concurrency)
	results, err := cp.Run(ctx, p.StartIndex, p.EndIndex)
	if err != nil {
		return nil, err
	}
	return &RunResult{ClearedResults: results}, nil
}

func runTransferMode(ctx context.Context, rpc RunRPC, p RunParams, withdrawalHook func(startHeight uint64) error) (*RunResult, error) {
	deriver, err := accounts.NewKeyDeriver(p.Mnemonic)
	if err != nil {
		return nil, err
	}
	funder, err := deriver.Derive(params.FunderIndex)
	if err != nil {
		return nil, err
	}
	// index 0 is the funder (spec.md §3); sub-accounts are indices [1, SubAccounts].
	subs, err := deriver.DeriveRange(p.SubAccounts + 1)
	if err != nil {
		return nil, err
	}
	candidates := subs[1:]

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	gasPrice, err := resolveGasPrice(ctx, rpc, p.FixedGasPrice)
	if err != nil {
		return nil, err
	}

	nonces := accounts.NewNonceBook()
	if err := seedNonce(ctx, rpc, nonces, funder.Address); err != nil {
		return nil, err
	}

	distributor := NewDistributor(rpc, nonces, p.Concurrency)
	readyIdx, err := distributor.Distribute(ctx, funder, candidates, p.Transactions, params.DefaultEOAValue(), chainID)
	if err != nil {
		return nil, err
	}
	if len(readyIdx) == 0 {
		return nil, fmt.Errorf("work: no ready accounts after distribution")
	}

	ready := make([]*accounts.Account, len(readyIdx))
	for i, idx := range readyIdx {
		ready[i] = candidates[idx]
		if err := seedNonce(ctx, rpc, nonces, ready[i].Address); err != nil {
			return nil, err
		}
	}

	var erc20, erc721, moat common.Address
	switch p.Mode {
	case ModeERC20:
		token := NewTokenRuntime(rpc, nonces, chainID)
		addr, err := token.Deploy(ctx, funder, contracts.ERC20InitCode, params.ERC20DeployGas, gasPrice)
		if err != nil {
			return nil, err
		}
		erc20 = addr
		token.TopUpERC20(ctx, funder, erc20, ready, p.Transactions, big.NewInt(params.ERC20TransferAmount), params.ERC20GasLimit, gasPrice, p.Concurrency)
	case ModeERC721:
		token := NewTokenRuntime(rpc, nonces, chainID)
		addr, err := token.Deploy(ctx, funder, contracts.ERC721InitCode, params.ERC721DeployGas, gasPrice)
		if err != nil {
			return nil, err
		}
		erc721 = addr
		token.TopUpERC721(ctx, funder, erc721, ready, params.ERC721GasLimit, gasPrice, p.Concurrency)
	case ModeWithdrawal:
		moat = p.MoatAddress
	}

	cfg := BuilderConfig{
		Mode:           p.Mode,
		NumTx:          p.Transactions,
		ChainID:        chainID,
		GasPrice:       gasPrice,
		EOAGasLimit:    params.EOAGasLimit,
		EOAValue:       params.DefaultEOAValue(),
		ERC20Contract:  erc20,
		ERC20GasLimit:  params.ERC20GasLimit,
		ERC721Contract: erc721,
		ERC721GasLimit: params.ERC721GasLimit,
		MoatContract:   moat,
		TargetL1Addr:   p.TargetAddress,
		MinValue:       params.WithdrawalMinValue(),
		WithdrawGas:    params.WithdrawGasLimit,
	}
	builder := NewTxBuilder(cfg, nonces)
	queues, err := builder.Build(ready)
	if err != nil {
		return nil, err
	}

	signer := NewSigner(privateKeysOf(ready), p.Concurrency)
	signedQueues, err := signer.Sign(queues)
	if err != nil {
		return nil, err
	}

	startHeight, err := startHeightFor(ctx, rpc)
	if err != nil {
		return nil, err
	}

	if p.Mode == ModeWithdrawal && withdrawalHook != nil {
		if err := withdrawalHook(startHeight); err != nil {
			logger.Warn("run: withdrawal reconciler failed to start", "err", err)
		}
	}

	submitter := NewSubmitter(rpc, p.BatchSize, p.Concurrency)
	results := submitter.Submit(ctx, signedQueues)

	hashes := make([]common.Hash, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			hashes = append(hashes, r.Hash)
		}
	}

	collector := NewStatCollector(rpc)
	stats, err := collector.Collect(ctx, hashes, startHeight)
	if err != nil {
		return nil, err
	}
	return &RunResult{Stats: stats}, nil
}

func privateKeysOf(accts []*accounts.Account) map[common.Address]*ecdsa.PrivateKey {
	m := make(map[common.Address]*ecdsa.PrivateKey, len(accts))
	for _, a := range accts {
		m[a.Address] = a.PrivateKey
	}
	return m
}

func resolveGasPrice(ctx context.Context, rpc RunRPC, fixed bool) (*big.Int, error) {
	if fixed {
		return big.NewInt(params.FixedGasPriceWei), nil
	}
	return rpc.GetGasPrice(ctx)
}

func seedNonce(ctx context.Context, rpc RunRPC, nonces *accounts.NonceBook, addr common.Address) error {
	n, err := rpc.GetTxCount(ctx, addr, "latest")
	if err != nil {
		return err
	}
	nonces.Seed(addr, n)
	return nil
}

func startHeightFor(ctx context.Context, rpc RunRPC) (uint64, error) {
	block, err := rpc.GetBlock(ctx, "latest")
	if err != nil {
		return 0, err
	}
	if block == nil {
		return 0, nil
	}
	return uint64(block.Number), nil
}

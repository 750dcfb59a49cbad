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

// This file is derived from the teacher's work/worker.go wave/channel
// orchestration style, adapted from block-sealing to concurrency-bounded
// balance discovery and top-up (spec.md §4.4).

package work

import (
	"container/heap"
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/klaytn/loadgen/accounts"
	"github.com/klaytn/loadgen/client"
)

// ErrNotEnoughFunds is fatal: the funder cannot cover even a single
// sub-account (spec.md §4.4, §7).
var ErrNotEnoughFunds = errors.New("distributor: funder cannot fund any account")

// DistributorRPC is the subset of client.RpcClient the Distributor needs.
type DistributorRPC interface {
	GetBalance(ctx context.Context, addr common.Address, tag string) (*big.Int, error)
	GetGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg client.CallMsg) (uint64, error)
	SendRaw(ctx context.Context, raw []byte) (common.Hash, error)
}

// Distributor tops up sub-accounts with native currency so at least R of
// them hold at least C = numTx*(gasPrice*baseGas+value) (spec.md §4.4).
type Distributor struct {
	rpc         DistributorRPC
	nonces      *accounts.NonceBook
	concurrency int
}

func NewDistributor(rpc DistributorRPC, nonces *accounts.NonceBook, concurrency int) *Distributor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Distributor{rpc: rpc, nonces: nonces, concurrency: concurrency}
}

type readinessStatus int

const (
	statusUnready readinessStatus = iota
	statusReady
	statusAssumedReady
	statusSkipped
)

// heapEntry orders candidates by missing funds, ascending (cheapest first).
type heapEntry struct {
	position int // index into the subAccounts slice passed to Distribute
	account  *accounts.Account
	missing  *big.Int
}

type minHeap []*heapEntry

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].missing.Cmp(h[j].missing) < 0 }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(*heapEntry)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Distribute implements spec.md §4.4's algorithm and returns the indices
// (into subAccounts) of accounts that were already ready, assumed ready
// after a balance-query timeout, or successfully funded, sorted back into
// the original request order.
func (d *Distributor) Distribute(ctx context.Context, funder *accounts.Account, subAccounts []*accounts.Account, numTx int, perTxValue *big.Int, chainID *big.Int) ([]int, error) {
	gasPrice, err := d.rpc.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	baseGas, err := d.estimateBaseGas(ctx, funder.Address, subAccounts[0].Address, perTxValue)
	if err != nil {
		return nil, err
	}

	txCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(baseGas))
	requiredBalance := new(big.Int).Mul(big.NewInt(int64(numTx)), new(big.Int).Add(txCost, perTxValue))

	statuses, balances := d.queryBalancesConcurrently(ctx, subAccounts, requiredBalance)

	h := &minHeap{}
	heap.Init(h)
	for i, acc := range subAccounts {
		if statuses[i] != statusUnready {
			continue
		}
		missing := new(big.Int).Sub(requiredBalance, balances[i])
		heap.Push(h, &heapEntry{position: i, account: acc, missing: missing})
	}

	funderBalance, err := d.rpc.GetBalance(ctx, funder.Address, "latest")
	if err != nil {
		return nil, err
	}
	if funderBalance.Cmp(requiredBalance) <= 0 {
		return nil, ErrNotEnoughFunds
	}

	var fundable []*heapEntry
	remaining := new(big.Int).Set(funderBalance)
	for h.Len() > 0 && remaining.Cmp(requiredBalance) > 0 {
		entry := heap.Pop(h).(*heapEntry)
		fundable = append(fundable, entry)
		remaining.Sub(remaining, requiredBalance)
	}

	readyIdx := make([]int, 0, len(subAccounts))
	for i, s := range statuses {
		if s == statusReady || s == statusAssumedReady {
			readyIdx = append(readyIdx, i)
		}
	}

	funded := d.fundInWaves(ctx, funder, fundable, chainID, gasPrice, baseGas)
	readyIdx = append(readyIdx, funded...)

	sort.Ints(readyIdx)
	return readyIdx, nil
}

func (d *Distributor) estimateBaseGas(ctx context.Context, from, to common.Address, value *big.Int) (uint64, error) {
	gas, err := d.rpc.EstimateGas(ctx, client.CallMsg{From: from, To: &to})
	if err != nil {
		return 21000, nil // fall back to the standard value-transfer cost
	}
	return gas, nil
}

// queryBalancesConcurrently queries balances for all requested accounts in
// waves of size concurrency. A timeout marks the account "assumed ready"
// (conservative, to avoid stalling the run); any other error marks it
// "skipped" (spec.md §4.4 step 2).
func (d *Distributor) queryBalancesConcurrently(ctx context.Context, subAccounts []*accounts.Account, required *big.Int) ([]readinessStatus, []*big.Int) {
	statuses := make([]readinessStatus, len(subAccounts))
	balances := make([]*big.Int, len(subAccounts))

	for _, wave := range waveIndices(len(subAccounts), d.concurrency) {
		var wg sync.WaitGroup
		for _, i := range wave {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bal, err := d.rpc.GetBalance(ctx, subAccounts[i].Address, "latest")
				if err != nil {
					var ce *client.Error
					if errors.As(err, &ce) && ce.Kind == client.KindTimeout {
						statuses[i] = statusAssumedReady
						balances[i] = big.NewInt(0)
						return
					}
					statuses[i] = statusSkipped
					balances[i] = big.NewInt(0)
					return
				}
				balances[i] = bal
				if bal.Cmp(required) >= 0 {
					statuses[i] = statusReady
				} else {
					statuses[i] = statusUnready
				}
			}(i)
		}
		wg.Wait()
	}
	return statuses, balances
}

// waveIndices splits [0, n) into contiguous waves of size concurrency.
func waveIndices(n, concurrency int) [][]int {
	var waves [][]int
	for start := 0; start < n; start += concurrency {
		end := start + concurrency
		if end > n {
			end = n
		}
		wave := make([]int, end-start)
		for i := range wave {
			wave[i] = start + i
		}
		waves = append(waves, wave)
	}
	return waves
}

// fundInWaves sends a top-up transfer to each fundable account in waves of
// size concurrency, using nonces reserved locally from the funder's current
// count: wave w uses nonces [base+w*concurrency, ...) (spec.md §4.4 step 5).
// A wave's partial failures do not abort the run (spec.md §7); it returns
// the positions (into the original subAccounts slice) that succeeded.
func (d *Distributor) fundInWaves(ctx context.Context, funder *accounts.Account, fundable []*heapEntry, chainID, gasPrice *big.Int, baseGas uint64) []int {
	if len(fundable) == 0 {
		return nil
	}

	nonces := d.nonces.Reserve(funder.Address, uint64(len(fundable)))

	var mu sync.Mutex
	var funded []int

	for _, wave := range waveIndices(len(fundable), d.concurrency) {
		var wg sync.WaitGroup
		for _, i := range wave {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				entry := fundable[i]
				_, err := d.sendTransfer(ctx, funder, entry.account.Address, entry.missing, nonces[i], gasPrice, baseGas, chainID)
				if err != nil {
					logger.Warn("distributor: funding transfer failed", "to", entry.account.Address, "err", err)
					return
				}
				mu.Lock()
				funded = append(funded, entry.position)
				mu.Unlock()
			}(i)
		}
		wg.Wait()
	}
	return funded
}

// sendTransfer builds, signs and sends a single native-currency transfer
// from funder, outside TxBuilder/Signer/Submitter: the Distributor's own
// nonce-allocation scheme is independent of the main tx pipeline.
func (d *Distributor) sendTransfer(ctx context.Context, funder *accounts.Account, to common.Address, value *big.Int, nonce uint64, gasPrice *big.Int, gasLimit uint64, chainID *big.Int) (common.Hash, error) {
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
	})

	signer := types.NewEIP155Signer(chainID)
	signedTx, err := types.SignTx(tx, signer, funder.PrivateKey)
	if err != nil {
		return common.Hash{}, err
	}
	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	return d.rpc.SendRaw(ctx, raw)
}

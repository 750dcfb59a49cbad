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

// This file reuses the Distributor's wave scheme to replace stuck
// transactions (spec.md §4.9) instead of funding new ones. Replacement
// nonces come straight from the node's latest/pending counts; no NonceBook
// is involved.

package work

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/klaytn/loadgen/accounts"
)

// ClearPendingRPC is the subset of client.RpcClient the utility needs.
type ClearPendingRPC interface {
	GetTxCount(ctx context.Context, addr common.Address, tag string) (uint64, error)
	SendRaw(ctx context.Context, raw []byte) (common.Hash, error)
}

// ClearPendingResult summarizes what was replaced for one address.
type ClearPendingResult struct {
	Address  common.Address
	Latest   uint64
	Pending  uint64
	Replaced int
	Errors   []error
}

// ClearPending scans [startIndex, endIndex) of a key-derived account range
// and, for any address whose pending nonce count exceeds its latest,
// replaces every stuck nonce with a self-transfer at an elevated gas price
// (spec.md §4.9). Waves of size concurrency; per-transaction errors are
// logged and never abort the scan.
type ClearPending struct {
	rpc         ClearPendingRPC
	deriver     *accounts.KeyDeriver
	chainID     *big.Int
	gasPrice    *big.Int
	concurrency int
}

func NewClearPending(rpc ClearPendingRPC, deriver *accounts.KeyDeriver, chainID, gasPrice *big.Int, concurrency int) *ClearPending {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ClearPending{rpc: rpc, deriver: deriver, chainID: chainID, gasPrice: gasPrice, concurrency: concurrency}
}

// Run scans account indices [startIndex, endIndex).
func (c *ClearPending) Run(ctx context.Context, startIndex, endIndex uint64) ([]ClearPendingResult, error) {
	if endIndex <= startIndex {
		return nil, nil
	}
	n := int(endIndex - startIndex)
	results := make([]ClearPendingResult, n)

	for _, wave := range waveIndices(n, c.concurrency) {
		var wg sync.WaitGroup
		for _, i := range wave {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				idx := startIndex + uint64(i)
				results[i] = c.clearOne(ctx, idx)
			}(i)
		}
		wg.Wait()
	}
	return results, nil
}

func (c *ClearPending) clearOne(ctx context.Context, index uint64) ClearPendingResult {
	account, err := c.deriver.Derive(index)
	if err != nil {
		return ClearPendingResult{Errors: []error{err}}
	}

	latest, err := c.rpc.GetTxCount(ctx, account.Address, "latest")
	if err != nil {
		return ClearPendingResult{Address: account.Address, Errors: []error{err}}
	}
	pending, err := c.rpc.GetTxCount(ctx, account.Address, "pending")
	if err != nil {
		return ClearPendingResult{Address: account.Address, Latest: latest, Errors: []error{err}}
	}

	result := ClearPendingResult{Address: account.Address, Latest: latest, Pending: pending}
	if pending <= latest {
		return result
	}

	elevated := new(big.Int).Mul(c.gasPrice, big.NewInt(2))
	for nonce := latest; nonce < pending; nonce++ {
		if _, err := c.replaceAt(ctx, account, nonce, elevated); err != nil {
			logger.Warn("clear-pending: replacement failed", "addr", account.Address, "nonce", nonce, "err", err)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Replaced++
	}
	return result
}

func (c *ClearPending) replaceAt(ctx context.Context, account *accounts.Account, nonce uint64, gasPrice *big.Int) (common.Hash, error) {
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &account.Address,
		Value:    big.NewInt(0),
		Gas:      21000,
		GasPrice: gasPrice,
	})
	signer := types.NewEIP155Signer(c.chainID)
	signedTx, err := types.SignTx(tx, signer, account.PrivateKey)
	if err != nil {
		return common.Hash{}, err
	}
	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	return c.rpc.SendRaw(ctx, raw)
}

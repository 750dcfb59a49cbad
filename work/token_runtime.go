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

// This file is derived from the Distributor's wave-funding scheme (spec.md
// §4.5): a freshly deployed token needs no balance scan, only a top-up pass
// reusing the same local-nonce bookkeeping.

package work

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/klaytn/loadgen/accounts"
	"github.com/klaytn/loadgen/client"
	"github.com/klaytn/loadgen/contracts"
	"github.com/klaytn/loadgen/params"
)

// TokenRuntimeRPC is the subset of client.RpcClient TokenRuntime needs.
type TokenRuntimeRPC interface {
	SendRaw(ctx context.Context, raw []byte) (common.Hash, error)
	GetReceipt(ctx context.Context, hash common.Hash) (*client.RPCReceipt, error)
}

// TokenRuntime deploys a fresh ERC-20/ERC-721 contract from the funder and
// tops up the ready set from it (spec.md §4.5).
type TokenRuntime struct {
	rpc     TokenRuntimeRPC
	nonces  *accounts.NonceBook
	chainID *big.Int
}

func NewTokenRuntime(rpc TokenRuntimeRPC, nonces *accounts.NonceBook, chainID *big.Int) *TokenRuntime {
	return &TokenRuntime{rpc: rpc, nonces: nonces, chainID: chainID}
}

// Deploy sends a contract-creation transaction from funder carrying
// initCode and waits (up to params.ConfirmWaitTimeout) for the resulting
// contract address.
func (t *TokenRuntime) Deploy(ctx context.Context, funder *accounts.Account, initCode []byte, gasLimit uint64, gasPrice *big.Int) (common.Address, error) {
	nonce := t.nonces.Reserve(funder.Address, 1)[0]

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       nil,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     initCode,
	})
	signer := types.NewEIP155Signer(t.chainID)
	signedTx, err := types.SignTx(tx, signer, funder.PrivateKey)
	if err != nil {
		return common.Address{}, err
	}
	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return common.Address{}, err
	}
	hash, err := t.rpc.SendRaw(ctx, raw)
	if err != nil {
		return common.Address{}, err
	}

	receipt, err := t.waitForReceipt(ctx, hash)
	if err != nil {
		return common.Address{}, err
	}
	if receipt.ContractAddress == nil {
		return common.Address{}, ErrDeployNoAddress
	}
	return *receipt.ContractAddress, nil
}

// ErrDeployNoAddress signals a deploy transaction mined without producing a
// contract address (e.g. it reverted).
var ErrDeployNoAddress = errDeployNoAddress{}

type errDeployNoAddress struct{}

func (errDeployNoAddress) Error() string { return "token runtime: deploy produced no contract address" }

func (t *TokenRuntime) waitForReceipt(ctx context.Context, hash common.Hash) (*client.RPCReceipt, error) {
	deadline := time.Now().Add(params.ConfirmWaitTimeout)
	for {
		receipt, err := t.rpc.GetReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrConfirmTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// ErrConfirmTimeout signals that a deploy transaction did not confirm
// within params.ConfirmWaitTimeout.
var ErrConfirmTimeout = errConfirmTimeout{}

type errConfirmTimeout struct{}

func (errConfirmTimeout) Error() string { return "token runtime: timed out waiting for confirmation" }

// TopUpERC20 transfers C_token = ceil(transferValue * numTx / |ready|) of
// the deployed ERC-20 token to each ready account, reusing the
// Distributor's local-nonce wave scheme (spec.md §4.5).
func (t *TokenRuntime) TopUpERC20(ctx context.Context, funder *accounts.Account, token common.Address, ready []*accounts.Account, numTx int, transferValue *big.Int, gasLimit uint64, gasPrice *big.Int, concurrency int) []int {
	perAccount := ceilDiv(new(big.Int).Mul(transferValue, big.NewInt(int64(numTx))), big.NewInt(int64(len(ready))))
	return t.topUp(ctx, funder, ready, concurrency, gasLimit, gasPrice, func(to common.Address) (common.Address, []byte, *big.Int) {
		return token, contracts.ERC20Transfer(to, perAccount), big.NewInt(0)
	})
}

// TopUpERC721 mints one token per ready account from the deployed
// collection, reusing the same wave scheme.
func (t *TokenRuntime) TopUpERC721(ctx context.Context, funder *accounts.Account, collection common.Address, ready []*accounts.Account, gasLimit uint64, gasPrice *big.Int, concurrency int) []int {
	return t.topUp(ctx, funder, ready, concurrency, gasLimit, gasPrice, func(to common.Address) (common.Address, []byte, *big.Int) {
		tokenID := new(big.Int).SetUint64(uint64(time.Now().UnixNano())) // unique per call
		return collection, contracts.ERC721Mint(to, tokenID), big.NewInt(0)
	})
}

func (t *TokenRuntime) topUp(ctx context.Context, funder *accounts.Account, ready []*accounts.Account, concurrency int, gasLimit uint64, gasPrice *big.Int, build func(to common.Address) (common.Address, []byte, *big.Int)) []int {
	if concurrency <= 0 {
		concurrency = 1
	}
	nonces := t.nonces.Reserve(funder.Address, uint64(len(ready)))

	funded := make([]int, 0, len(ready))
	for _, wave := range waveIndices(len(ready), concurrency) {
		type outcome struct {
			i   int
			err error
		}
		ch := make(chan outcome, len(wave))
		for _, i := range wave {
			go func(i int) {
				to, data, value := build(ready[i].Address)
				tx := types.NewTx(&types.LegacyTx{
					Nonce:    nonces[i],
					To:       &to,
					Value:    value,
					Gas:      gasLimit,
					GasPrice: gasPrice,
					Data:     data,
				})
				signer := types.NewEIP155Signer(t.chainID)
				signedTx, err := types.SignTx(tx, signer, funder.PrivateKey)
				if err != nil {
					ch <- outcome{i, err}
					return
				}
				raw, err := signedTx.MarshalBinary()
				if err != nil {
					ch <- outcome{i, err}
					return
				}
				_, err = t.rpc.SendRaw(ctx, raw)
				ch <- outcome{i, err}
			}(i)
		}
		for range wave {
			o := <-ch
			if o.err != nil {
				logger.Warn("token runtime: top-up transfer failed", "err", o.err)
				continue
			}
			funded = append(funded, o.i)
		}
	}
	return funded
}

func ceilDiv(a, b *big.Int) *big.Int {
	sum := new(big.Int).Add(a, new(big.Int).Sub(b, big.NewInt(1)))
	return sum.Div(sum, b)
}

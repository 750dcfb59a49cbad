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

// This file is derived from the teacher's node/sc/bridge_manager.go
// new-head-driven event pump, generalized to withdrawal-event following
// with reorg rollback (spec.md §4.11).

package reconcile

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/client"
	"github.com/klaytn/loadgen/contracts"
	"github.com/klaytn/loadgen/params"
	"github.com/klaytn/loadgen/storage/database"
)

// L2FollowerRPC is the subset of client.RpcClient the follower needs.
type L2FollowerRPC interface {
	GetBlockWithTxs(ctx context.Context, height uint64) (*client.RPCBlock, error)
	GetReceipt(ctx context.Context, hash common.Hash) (*client.RPCReceipt, error)
}

// L2Follower pumps L2 blocks sequentially starting from a fixed height,
// verifies chain continuity, and upserts withdrawal events into the txs
// join table (spec.md §4.11). newHeads delivers one notification per
// produced block; the pump also advances on a fallback ticker so a missed
// notification cannot stall it indefinitely.
type L2Follower struct {
	rpc      L2FollowerRPC
	db       database.DBManager
	moat     common.Address
	nextH    uint64
	lastHash common.Hash

	// pendingReorg is the height orphaned by the most recently detected
	// reorg, carried forward until the next successfully-applied block so
	// its rollback reaches ApplyL2Block instead of being discarded on the
	// detection step (spec.md §4.11).
	pendingReorg *uint64
}

func NewL2Follower(rpc L2FollowerRPC, db database.DBManager, moat common.Address, startHeight uint64) *L2Follower {
	return &L2Follower{rpc: rpc, db: db, moat: moat, nextH: startHeight}
}

// Run pumps blocks until ctx is cancelled. newHeads is a best-effort wakeup
// signal; a ticker provides a fallback cadence.
func (f *L2Follower) Run(ctx context.Context, newHeads <-chan struct{}) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-newHeads:
		case <-ticker.C:
		}

		for {
			advanced, err := f.step(ctx)
			if err != nil {
				logger.Warn("l2 follower: step failed", "height", f.nextH, "err", err)
				break
			}
			if !advanced {
				break
			}
		}
	}
}

// step processes at most one block; it returns advanced=false when the
// next block is not yet available.
func (f *L2Follower) step(ctx context.Context) (bool, error) {
	block, err := f.rpc.GetBlockWithTxs(ctx, f.nextH)
	if err != nil {
		return false, err
	}
	if block == nil {
		return false, nil
	}

	if f.nextH > 0 && f.lastHash != (common.Hash{}) && block.ParentHash != f.lastHash {
		orphaned := f.nextH - 1
		f.pendingReorg = &orphaned
		f.nextH = orphaned
		f.lastHash = common.Hash{}
		return true, nil
	}

	withdrawals, err := f.matchWithdrawals(ctx, block)
	if err != nil {
		return false, err
	}

	header := &database.L2Header{
		Height:    uint64(block.Number),
		Hash:      block.Hash.Hex(),
		Timestamp: uint64(block.Timestamp),
	}
	// reorgHeight (if any) was recorded by a prior detection step and must
	// ride along with the replacement block's own insert in the same
	// transaction (spec.md §4.11).
	reorgHeight := f.pendingReorg
	if err := f.db.ApplyL2Block(header, withdrawals, reorgHeight); err != nil {
		return false, err
	}
	f.pendingReorg = nil

	f.lastHash = block.Hash
	f.nextH++
	return true, nil
}

func (f *L2Follower) matchWithdrawals(ctx context.Context, block *client.RPCBlock) ([]database.L2Withdrawal, error) {
	var out []database.L2Withdrawal
	for _, tx := range block.FullTxs {
		if tx.To == nil || *tx.To != f.moat {
			continue
		}
		receipt, err := f.rpc.GetReceipt(ctx, tx.Hash)
		if err != nil {
			return nil, err
		}
		if receipt == nil {
			continue
		}
		for _, l := range receipt.Logs {
			if l.Address != f.moat || len(l.Topics) == 0 || l.Topics[0] != contracts.WithdrawalQueuedTopic0 {
				continue
			}
			amount := decodeEventAmount(l.Data)
			uid := new(big.Int).Div(amount, params.UIDDivisor).Uint64()
			out = append(out, database.L2Withdrawal{
				UID:         uid,
				L2TxHash:    tx.Hash.Hex(),
				L2Height:    uint64(block.Number),
				L2Timestamp: uint64(block.Timestamp),
			})
		}
	}
	return out, nil
}

// decodeEventAmount reads the 2nd non-indexed uint256 field (amount) from a
// WithdrawalQueued log's ABI-encoded data: each field occupies one 32-byte
// word, left-padded big-endian.
func decodeEventAmount(data []byte) *big.Int {
	const wordSize = 32
	if len(data) < 2*wordSize {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(data[wordSize : 2*wordSize])
}

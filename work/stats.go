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

// This file is derived from the teacher's block-subscription polling loop
// (node/sc/subbridge.go), generalized from cross-chain event following to
// a one-shot receipt-discovery scan across submitted hashes (spec.md §4.10).

package work

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/client"
	"github.com/klaytn/loadgen/params"
)

// StatCollectorRPC is the subset of client.RpcClient StatCollector needs.
type StatCollectorRPC interface {
	GetBlock(ctx context.Context, tag string) (*client.RPCBlock, error)
	PendingTxCount(ctx context.Context) (uint64, error)
}

// StatCollector scans blocks sequentially from a starting height, locating
// the block each submitted hash was mined in, then computes per-block and
// overall throughput (spec.md §4.10).
type StatCollector struct {
	rpc StatCollectorRPC
}

func NewStatCollector(rpc StatCollectorRPC) *StatCollector {
	return &StatCollector{rpc: rpc}
}

// Result is the StatCollector's final report (spec.md §6: "Results JSON":
// `{ tps: number, blocks: [...] }`).
type Result struct {
	TPS    float64            `json:"tps"`
	Blocks []client.BlockInfo `json:"blocks"`
}

// Collect scans blocks starting at startHeight until every hash in wanted
// has been located and the pending count is zero, or a block fails to
// appear for longer than params.BlockWaitTimeout.
func (s *StatCollector) Collect(ctx context.Context, wanted []common.Hash, startHeight uint64) (*Result, error) {
	remaining := make(map[common.Hash]bool, len(wanted))
	for _, h := range wanted {
		remaining[h] = true
	}

	txStats := make([]TxStat, 0, len(wanted))
	heightsSeen := map[uint64]bool{}

	height := startHeight
	var waitStart time.Time

	for {
		pendingCount, err := s.rpc.PendingTxCount(ctx)
		if err != nil {
			logger.Warn("stat collector: pending-count query failed", "err", err)
		} else if pendingCount == 0 && len(remaining) == 0 {
			break
		}

		block, err := s.rpc.GetBlock(ctx, hexHeight(height))
		if err != nil {
			return nil, err
		}
		if block == nil {
			if waitStart.IsZero() {
				waitStart = time.Now()
			} else if time.Since(waitStart) > params.BlockWaitTimeout {
				break
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		waitStart = time.Time{}

		for _, h := range block.Transactions {
			if remaining[h] {
				delete(remaining, h)
				txStats = append(txStats, TxStat{Hash: h, BlockHeight: height})
				heightsSeen[height] = true
			}
		}
		height++
	}

	return s.summarize(ctx, txStats, heightsSeen)
}

func (s *StatCollector) summarize(ctx context.Context, txStats []TxStat, heightsSeen map[uint64]bool) (*Result, error) {
	heights := make([]uint64, 0, len(heightsSeen))
	for h := range heightsSeen {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	countByHeight := map[uint64]int{}
	for _, ts := range txStats {
		countByHeight[ts.BlockHeight]++
	}

	var blocks []client.BlockInfo
	var prevTimestamp uint64
	var havePrev bool
	var totalTxs int
	var totalDeltaSeconds float64

	for _, h := range heights {
		block, err := s.rpc.GetBlock(ctx, hexHeight(h))
		if err != nil {
			return nil, err
		}
		if block == nil {
			continue
		}

		utilization := 0.0
		if block.GasLimit > 0 {
			utilization = math.Round(100*100*float64(block.GasUsed)/float64(block.GasLimit)) / 100
		}

		var tps float64
		if havePrev && uint64(block.Timestamp) > prevTimestamp {
			delta := float64(uint64(block.Timestamp) - prevTimestamp)
			tps = float64(countByHeight[h]) / delta
			totalDeltaSeconds += delta
		}

		blocks = append(blocks, client.BlockInfo{
			Height:         h,
			Timestamp:      uint64(block.Timestamp),
			TxCount:        countByHeight[h],
			GasUsed:        block.GasUsed,
			GasLimit:       block.GasLimit,
			GasUtilization: utilization,
			TPSVsPrev:      tps,
		})

		totalTxs += countByHeight[h]
		prevTimestamp = uint64(block.Timestamp)
		havePrev = true
	}

	overall := 0.0
	if totalDeltaSeconds > 0 {
		overall = math.Ceil(float64(totalTxs) / totalDeltaSeconds)
	}

	return &Result{TPS: overall, Blocks: blocks}, nil
}

func hexHeight(h uint64) string {
	return "0x" + strconv.FormatUint(h, 16)
}

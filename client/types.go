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

// Typed request/response records for the JSON-RPC surface this package
// consumes (spec.md §9: "dynamic-typed JSON-RPC payloads become strongly
// typed request/response records per method; numeric fields use
// arbitrary-precision integers").

package client

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RPCBlock is the eth_getBlockByNumber result shape, with transactions left
// as hashes unless requested with full objects.
type RPCBlock struct {
	Number       hexutil.Uint64
	Hash         common.Hash
	ParentHash   common.Hash
	Timestamp    hexutil.Uint64
	GasUsed      hexutil.Uint64
	GasLimit     hexutil.Uint64
	Transactions []common.Hash    // populated by GetBlock
	FullTxs      []RPCTransaction // populated by GetBlockWithTxs
}

// rpcBlockWire is the wire shape of eth_getBlockByNumber, kept separate from
// RPCBlock because the "transactions" field's shape depends on the request's
// "full transaction objects" flag, not on anything in the payload itself.
type rpcBlockWire struct {
	Number       hexutil.Uint64    `json:"number"`
	Hash         common.Hash       `json:"hash"`
	ParentHash   common.Hash       `json:"parentHash"`
	Timestamp    hexutil.Uint64    `json:"timestamp"`
	GasUsed      hexutil.Uint64    `json:"gasUsed"`
	GasLimit     hexutil.Uint64    `json:"gasLimit"`
	Transactions []json.RawMessage `json:"transactions"`
}

// RPCTransaction is the subset of eth_getBlockByNumber(full=true)
// transaction fields the reconciler's L2 follower needs.
type RPCTransaction struct {
	Hash  common.Hash     `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value hexutil.Big     `json:"value"`
}

// RPCReceipt is the eth_getTransactionReceipt result shape.
type RPCReceipt struct {
	TransactionHash common.Hash     `json:"transactionHash"`
	BlockNumber     hexutil.Uint64  `json:"blockNumber"`
	Status          hexutil.Uint64  `json:"status"`
	GasUsed         hexutil.Uint64  `json:"gasUsed"`
	ContractAddress *common.Address `json:"contractAddress"`
	Logs            []RPCLog        `json:"logs"`
}

// RPCLog is a single entry of a receipt's event log.
type RPCLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

// BlockInfo is the per-block statistic produced by StatCollector (spec.md
// §3, §6 "Results JSON"). GasUtilization is a percentage with two decimals.
// GasUsed/GasLimit marshal as hex strings (spec.md §6: "gasUsed(hex),
// gasLimit(hex)").
type BlockInfo struct {
	Height         uint64         `json:"height"`
	Timestamp      uint64         `json:"timestamp"`
	TxCount        int            `json:"numTxs"`
	GasUsed        hexutil.Uint64 `json:"gasUsed"`
	GasLimit       hexutil.Uint64 `json:"gasLimit"`
	GasUtilization float64        `json:"utilization"`
	TPSVsPrev      float64        `json:"tps"`
}

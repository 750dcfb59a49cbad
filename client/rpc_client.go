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

// This file is derived from the teacher's client/bridge_client.go (a thin
// typed wrapper over *rpc.Client's CallContext), generalized to expose
// batched sends as well (spec.md §4.2).

package client

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	ethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/klaytn/loadgen/params"
)

var logger = log.New("module", "client")

// RpcClient is the sole collaborator every other package uses to talk to
// the node. Every method applies its own timeout per spec.md §4.2/§5.
type RpcClient struct {
	raw *ethrpc.Client
	url string
}

// Dial connects to the node's JSON-RPC endpoint.
func Dial(ctx context.Context, url string) (*RpcClient, error) {
	raw, err := ethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, classify("dial", err)
	}
	return &RpcClient{raw: raw, url: url}, nil
}

// Close releases the underlying transport.
func (c *RpcClient) Close() { c.raw.Close() }

// Call issues a single JSON-RPC call with the quick-read timeout. Long
// running operations (send, confirm-wait) use their own dedicated methods
// below instead, each with its own timeout budget.
func (c *RpcClient) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()
	return classify(method, c.raw.CallContext(ctx, result, method, args...))
}

// BatchElem is one call inside a BatchCall: its method and arguments, the
// value to decode the result into, and the per-element error.
type BatchElem struct {
	Method string
	Args   []interface{}
	Result interface{}
	Error  error
}

// BatchCall posts one HTTP request carrying all given calls and correlates
// responses by id (spec.md §4.2, §6), under the send timeout. Each element's
// Result/Error is filled in place; BatchCall itself only fails on
// transport-level problems.
func (c *RpcClient) BatchCall(ctx context.Context, elems []BatchElem) error {
	if len(elems) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, params.SendTimeout)
	defer cancel()
	batch := make([]ethrpc.BatchElem, len(elems))
	for i, e := range elems {
		batch[i] = ethrpc.BatchElem{Method: e.Method, Args: e.Args, Result: e.Result}
	}
	err := c.raw.BatchCallContext(ctx, batch)
	if err != nil {
		return classify("batch", err)
	}
	for i := range batch {
		elems[i].Result = batch[i].Result
		if batch[i].Error != nil {
			elems[i].Error = classify(batch[i].Method, batch[i].Error)
		}
	}
	return nil
}

// GetTxCount reads eth_getTransactionCount for addr at the given tag
// ("latest", "pending", ...).
func (c *RpcClient) GetTxCount(ctx context.Context, addr common.Address, tag string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, params.BalanceQueryTimeout)
	defer cancel()
	var result hexutil.Uint64
	if err := c.raw.CallContext(ctx, &result, "eth_getTransactionCount", addr, tag); err != nil {
		return 0, classify("eth_getTransactionCount", err)
	}
	return uint64(result), nil
}

// GetBalance reads eth_getBalance for addr at the given tag.
func (c *RpcClient) GetBalance(ctx context.Context, addr common.Address, tag string) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, params.BalanceQueryTimeout)
	defer cancel()
	var result hexutil.Big
	if err := c.raw.CallContext(ctx, &result, "eth_getBalance", addr, tag); err != nil {
		return nil, classify("eth_getBalance", err)
	}
	return (*big.Int)(&result), nil
}

// GetGasPrice reads eth_gasPrice.
func (c *RpcClient) GetGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()
	var result hexutil.Big
	if err := c.raw.CallContext(ctx, &result, "eth_gasPrice"); err != nil {
		return nil, classify("eth_gasPrice", err)
	}
	return (*big.Int)(&result), nil
}

// CallMsg mirrors the subset of eth_call/eth_estimateGas parameters this
// client needs.
type CallMsg struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
	Gas      hexutil.Uint64  `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
}

// EstimateGas reads eth_estimateGas for the given call.
func (c *RpcClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()
	var result hexutil.Uint64
	if err := c.raw.CallContext(ctx, &result, "eth_estimateGas", msg); err != nil {
		return 0, classify("eth_estimateGas", err)
	}
	return uint64(result), nil
}

// SendRaw submits a signed transaction via eth_sendRawTransaction.
func (c *RpcClient) SendRaw(ctx context.Context, raw []byte) (common.Hash, error) {
	ctx, cancel := context.WithTimeout(ctx, params.SendTimeout)
	defer cancel()
	var result common.Hash
	if err := c.raw.CallContext(ctx, &result, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, classify("eth_sendRawTransaction", err)
	}
	return result, nil
}

// ChainID reads eth_chainId.
func (c *RpcClient) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()
	var result hexutil.Big
	if err := c.raw.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return nil, classify("eth_chainId", err)
	}
	return (*big.Int)(&result), nil
}

// GetBlock reads eth_getBlockByNumber with transaction hashes only. tag may
// be a block tag ("latest", "pending") or a 0x-prefixed hex height.
func (c *RpcClient) GetBlock(ctx context.Context, tag string) (*RPCBlock, error) {
	return c.getBlock(ctx, tag, false)
}

// GetBlockWithTxs reads eth_getBlockByNumber(height, true) with full
// transaction objects, for a known block height.
func (c *RpcClient) GetBlockWithTxs(ctx context.Context, height uint64) (*RPCBlock, error) {
	return c.getBlock(ctx, hexutil.EncodeUint64(height), true)
}

func (c *RpcClient) getBlock(ctx context.Context, tag string, full bool) (*RPCBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()

	var wire *rpcBlockWire
	if err := c.raw.CallContext(ctx, &wire, "eth_getBlockByNumber", tag, full); err != nil {
		return nil, classify("eth_getBlockByNumber", err)
	}
	if wire == nil {
		return nil, nil
	}

	block := &RPCBlock{
		Number:     wire.Number,
		Hash:       wire.Hash,
		ParentHash: wire.ParentHash,
		Timestamp:  wire.Timestamp,
		GasUsed:    wire.GasUsed,
		GasLimit:   wire.GasLimit,
	}

	if full {
		block.FullTxs = make([]RPCTransaction, 0, len(wire.Transactions))
		for _, raw := range wire.Transactions {
			var tx RPCTransaction
			if err := json.Unmarshal(raw, &tx); err != nil {
				return nil, classify("eth_getBlockByNumber", errMalformed)
			}
			block.FullTxs = append(block.FullTxs, tx)
		}
	} else {
		block.Transactions = make([]common.Hash, 0, len(wire.Transactions))
		for _, raw := range wire.Transactions {
			var h common.Hash
			if err := json.Unmarshal(raw, &h); err != nil {
				return nil, classify("eth_getBlockByNumber", errMalformed)
			}
			block.Transactions = append(block.Transactions, h)
		}
	}
	return block, nil
}

// GetReceipt reads eth_getTransactionReceipt. A nil result (result, nil)
// means the transaction is not yet mined.
func (c *RpcClient) GetReceipt(ctx context.Context, hash common.Hash) (*RPCReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()
	var result *RPCReceipt
	if err := c.raw.CallContext(ctx, &result, "eth_getTransactionReceipt", hash); err != nil {
		return nil, classify("eth_getTransactionReceipt", err)
	}
	return result, nil
}

// GetBlockTxCount reads eth_getBlockTransactionCountByNumber(tag).
func (c *RpcClient) GetBlockTxCount(ctx context.Context, tag string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()
	var result hexutil.Uint64
	if err := c.raw.CallContext(ctx, &result, "eth_getBlockTransactionCountByNumber", tag); err != nil {
		return 0, classify("eth_getBlockTransactionCountByNumber", err)
	}
	return uint64(result), nil
}

// TxPoolStatus reads txpool_status, returning the pending count.
func (c *RpcClient) TxPoolStatus(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, params.QuickReadTimeout)
	defer cancel()
	var result struct {
		Pending hexutil.Uint64 `json:"pending"`
		Queued  hexutil.Uint64 `json:"queued"`
	}
	if err := c.raw.CallContext(ctx, &result, "txpool_status"); err != nil {
		return 0, classify("txpool_status", err)
	}
	return uint64(result.Pending), nil
}

// PendingTxCount implements spec.md §4.10's fallback chain: txpool_status,
// then eth_getBlockTransactionCountByNumber("pending"), then
// eth_getTransactionCount(0x0, "pending") as a weak upper bound. The first
// method that responds without error wins.
func (c *RpcClient) PendingTxCount(ctx context.Context) (uint64, error) {
	if n, err := c.TxPoolStatus(ctx); err == nil {
		return n, nil
	}
	if n, err := c.GetBlockTxCount(ctx, "pending"); err == nil {
		return n, nil
	}
	return c.GetTxCount(ctx, common.Address{}, "pending")
}

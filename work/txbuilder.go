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

// This file is derived from the teacher's blockchain/types/tx_internal_data_*
// family, which models each Klaytn transaction "shape" with its own
// constructor; here each load-generator Mode gets its own builder function
// sharing one queue type (spec.md §4.6).

package work

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/accounts"
	"github.com/klaytn/loadgen/contracts"
	"github.com/klaytn/loadgen/l1addr"
	"github.com/klaytn/loadgen/params"
)

// BuilderConfig carries everything TxBuilder needs beyond the ready
// account set and tx count.
type BuilderConfig struct {
	Mode     Mode
	NumTx    int
	ChainID  *big.Int
	GasPrice *big.Int

	EOAGasLimit uint64
	EOAValue    *big.Int

	ERC20Contract  common.Address
	ERC20GasLimit  uint64
	ERC721Contract common.Address
	ERC721GasLimit uint64

	MoatContract common.Address
	TargetL1Addr string // base58check
	MinValue     *big.Int
	WithdrawGas  uint64
}

// TxBuilder populates and enqueues per-sender transaction lists (spec.md
// §4.6). Inputs: the ready sender accounts and a tx count; output: one
// queue per sender position such that the total count equals NumTx.
type TxBuilder struct {
	cfg    BuilderConfig
	nonces *accounts.NonceBook
}

func NewTxBuilder(cfg BuilderConfig, nonces *accounts.NonceBook) *TxBuilder {
	return &TxBuilder{cfg: cfg, nonces: nonces}
}

// Build returns one TxSpec queue per sender in readyAccounts, in sender
// order, such that the concatenation totals cfg.NumTx transactions, and for
// transaction i sender is readyAccounts[i%N] and (where applicable) receiver
// is readyAccounts[(i+1)%N] (spec.md §4.6 pairing rule).
func (b *TxBuilder) Build(readyAccounts []*accounts.Account) ([][]TxSpec, error) {
	n := len(readyAccounts)
	if n == 0 {
		return nil, fmt.Errorf("txbuilder: no ready accounts")
	}

	var target [20]byte
	if b.cfg.Mode == ModeWithdrawal {
		var err error
		target, err = l1addr.Decode(b.cfg.TargetL1Addr)
		if err != nil {
			return nil, fmt.Errorf("txbuilder: %w", err)
		}
	}

	queues := make([][]TxSpec, n)
	for i := 0; i < b.cfg.NumTx; i++ {
		senderIdx := i % n
		receiverIdx := (i + 1) % n
		sender := readyAccounts[senderIdx]
		receiver := readyAccounts[receiverIdx]

		nonce := b.nonces.Reserve(sender.Address, 1)[0]

		// i is the global transaction counter: unlike nonce (local to
		// sender, so it repeats across senders), it is unique across the
		// whole run and is what the withdrawal uid and ERC-721 tokenID
		// must be derived from (spec.md §4.6).
		spec, err := b.buildOne(sender, receiver, nonce, uint64(i), target)
		if err != nil {
			return nil, err
		}
		queues[senderIdx] = append(queues[senderIdx], spec)
	}
	return queues, nil
}

func (b *TxBuilder) buildOne(sender, receiver *accounts.Account, nonce, uid uint64, target [20]byte) (TxSpec, error) {
	base := TxSpec{
		From:     sender.Address,
		Nonce:    nonce,
		GasPrice: b.cfg.GasPrice,
		ChainID:  b.cfg.ChainID,
	}

	switch b.cfg.Mode {
	case ModeEOA:
		base.To = receiver.Address
		base.Value = b.cfg.EOAValue
		base.GasLimit = b.cfg.EOAGasLimit
		return base, nil

	case ModeERC20:
		base.To = b.cfg.ERC20Contract
		base.Value = big.NewInt(0)
		base.Data = contracts.ERC20Transfer(receiver.Address, big.NewInt(params.ERC20TransferAmount))
		base.GasLimit = b.cfg.ERC20GasLimit
		return base, nil

	case ModeERC721:
		base.To = b.cfg.ERC721Contract
		base.Value = big.NewInt(0)
		tokenID := new(big.Int).SetUint64(uid)
		base.Data = contracts.ERC721Mint(receiver.Address, tokenID)
		base.GasLimit = b.cfg.ERC721GasLimit
		return base, nil

	case ModeWithdrawal:
		base.To = b.cfg.MoatContract
		base.Data = contracts.WithdrawToL1(target)
		base.GasLimit = b.cfg.WithdrawGas
		// value is computed so that a unique uid = (value - minValue) / 1e10
		// is emitted on-chain for each tx (spec.md §4.6). uid must be the
		// global transaction counter, not the per-sender nonce, since the
		// latter repeats across senders and collides as the txs table's
		// primary key (storage/database/models.go).
		offset := new(big.Int).Mul(new(big.Int).SetUint64(uid), params.UIDDivisor)
		base.Value = new(big.Int).Add(b.cfg.MinValue, offset)
		return base, nil

	default:
		return TxSpec{}, fmt.Errorf("txbuilder: unsupported mode %s", b.cfg.Mode)
	}
}

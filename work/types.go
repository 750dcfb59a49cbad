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

// Package work holds the transaction construction, signing, submission and
// statistics-collection pipeline (spec.md §4.4-§4.10). It is modeled on the
// teacher's work package, which held the analogous block-sealing pipeline
// (work/worker.go): a Task/Agent shape generalized here to
// TxSpec/SignedTx/worker.
package work

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

var logger = log.New("module", "work")

// Mode selects which kind of load the Run orchestrator generates.
type Mode int

const (
	ModeEOA Mode = iota
	ModeERC20
	ModeERC721
	ModeWithdrawal
	ModeClearPending
	ModeGetPendingCount
)

func (m Mode) String() string {
	switch m {
	case ModeEOA:
		return "EOA"
	case ModeERC20:
		return "ERC20"
	case ModeERC721:
		return "ERC721"
	case ModeWithdrawal:
		return "WITHDRAWAL"
	case ModeClearPending:
		return "CLEAR_PENDING"
	case ModeGetPendingCount:
		return "GET_PENDING_COUNT"
	default:
		return "UNKNOWN"
	}
}

// TxSpec is a fully populated, not-yet-signed transaction (spec.md §3).
type TxSpec struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
	GasPrice *big.Int
	Nonce    uint64
	ChainID  *big.Int
}

// SignedTx is the output of the Signer: a raw signed transaction plus the
// bookkeeping the Submitter needs to preserve per-sender ordering.
type SignedTx struct {
	From  common.Address
	Nonce uint64
	Raw   []byte
	Hash  common.Hash
}

// TxStat is recorded by StatCollector for each submitted hash that was
// found mined (spec.md §3).
type TxStat struct {
	Hash        common.Hash
	BlockHeight uint64
}

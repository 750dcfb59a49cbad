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

// Package params holds protocol and run-level constants for the load
// generator. It plays the role the teacher's params package plays for a
// full node: a single place other packages pull tunable numbers from
// instead of scattering magic literals.
package params

import (
	"math/big"
	"time"
)

// Derivation path components, per BIP-44: m/44'/60'/0'/0/index.
const (
	Bip44Purpose      = 44
	Bip44CoinTypeEVM  = 60
	Bip44Account      = 0
	Bip44ChangeExtern = 0
	FunderIndex       = 0
)

// Timeout budgets, one per JSON-RPC operation category (spec §4.2, §5).
const (
	QuickReadTimeout    = 5 * time.Second
	BalanceQueryTimeout = 5 * time.Second
	SendTimeout         = 15 * time.Second
	ConfirmWaitTimeout  = 18 * time.Second
	BlockWaitTimeout    = 10 * time.Second
)

// Default run-level knobs, overridable by CLI flags.
const (
	DefaultSubAccounts  = 10
	DefaultTransactions = 2000
	DefaultBatchSize    = 20
	DefaultConcurrency  = 10
	FixedGasPriceWei    = 1_000_000_000 // 1 gwei
	EOATransferWei      = 1_000_000_000_000_000
	ERC20TransferAmount = 1
)

// Gas limits per TxBuilder mode (spec.md §4.6) and TokenRuntime deploys
// (spec.md §4.5). These are conservative fixed ceilings rather than
// per-transaction estimates, matching the fixed-gasLimit behavior described
// for Withdrawal mode and generalized to every mode for uniformity.
const (
	EOAGasLimit      = 21_000
	ERC20GasLimit    = 65_000
	ERC721GasLimit   = 90_000
	WithdrawGasLimit = 100_000
	ERC20DeployGas   = 1_500_000
	ERC721DeployGas  = 2_000_000
)

// WithdrawalMinValue is the floor value every Withdrawal-mode transaction
// carries; the per-tx uid is encoded as the amount above this floor, in
// units of UIDDivisor (spec.md §4.6).
func WithdrawalMinValue() *big.Int {
	return big.NewInt(1_000_000_000_000) // 1e12 wei
}

// DefaultEOAValue is the fixed small amount an EOA-mode transfer moves
// (spec.md §4.6).
func DefaultEOAValue() *big.Int {
	return big.NewInt(EOATransferWei)
}

// UIDDivisor converts an L2 withdrawal amount in wei into the compact join
// key shared by both sides of the reconciler; on L1 the matched output's
// satoshi value is used as that key directly, undivided. The source
// is ambiguous about whether this is a wire contract or a local convention
// (spec.md §9); it is kept as a named, overridable constant rather than an
// inline literal so either interpretation can be honored without touching
// call sites.
var UIDDivisor = big.NewInt(10_000_000_000) // 1e10

// ProgressReportEvery is how often the Signer worker pool reports progress.
const ProgressReportEvery = 256

// L1RawBlockMinBytes is the minimum legal size of a raw L1 block payload
// received over the ZMQ feed (an 80-byte header is the floor).
const L1RawBlockMinBytes = 80

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

// Package contracts builds ABI call payloads by hand instead of through a
// generated binding. Contract artifact loading is explicitly out of scope
// (spec.md §1 Out of scope); what TxBuilder needs is only a handful of
// fixed call shapes (ERC-20 transfer, ERC-721 mint, the moat withdrawal),
// so a minimal packer is grounded enough without pulling in
// accounts/abi/bind's full JSON-artifact machinery.
package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Selector returns the 4-byte function selector for an ABI signature such
// as "transfer(address,uint256)".
func Selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// EventTopic returns the 32-byte topic-0 for an event signature.
func EventTopic(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

// packAddress left-pads an address into a 32-byte ABI word.
func packAddress(addr common.Address) []byte {
	word := make([]byte, 32)
	copy(word[12:], addr.Bytes())
	return word
}

// packUint256 left-pads a big-endian integer into a 32-byte ABI word.
func packUint256(v *big.Int) []byte {
	word := make([]byte, 32)
	b := v.Bytes()
	copy(word[32-len(b):], b)
	return word
}

// packBytes20 right-pads a fixed bytes20 value into a 32-byte ABI word, per
// Solidity's fixed-size byte array encoding (value occupies the high-order
// bytes, zero-padded on the low side).
func packBytes20(v [20]byte) []byte {
	word := make([]byte, 32)
	copy(word[:20], v[:])
	return word
}

// ERC20Transfer packs a call to transfer(address,uint256).
func ERC20Transfer(to common.Address, amount *big.Int) []byte {
	data := Selector("transfer(address,uint256)")
	data = append(data, packAddress(to)...)
	data = append(data, packUint256(amount)...)
	return data
}

// ERC721Mint packs a call to mint(address,uint256), where tokenID is the
// receiver-encoded identifier for the minted token (spec.md §4.6).
func ERC721Mint(to common.Address, tokenID *big.Int) []byte {
	data := Selector("mint(address,uint256)")
	data = append(data, packAddress(to)...)
	data = append(data, packUint256(tokenID)...)
	return data
}

// WithdrawToL1 packs a call to the moat contract's withdrawal entry point
// (spec.md §4.6, §GLOSSARY): withdrawToL1(bytes20 targetHash).
func WithdrawToL1(target [20]byte) []byte {
	data := Selector("withdrawToL1(bytes20)")
	data = append(data, packBytes20(target)...)
	return data
}

// WithdrawalQueuedEventSignature names the event the moat contract emits on
// a successful withdrawal request. The spec leaves its full parameter list
// unspecified beyond "(…,amount,…)"; this signature is a design decision
// naming a plausible concrete shape so topic-0 can be computed once and
// compared against log data at runtime.
const WithdrawalQueuedEventSignature = "WithdrawalQueued(address,address,uint256,uint256)"

// WithdrawalQueuedTopic0 is the precomputed topic-0 for the event above.
var WithdrawalQueuedTopic0 = EventTopic(WithdrawalQueuedEventSignature)

// ERC20InitCode and ERC721InitCode are the contract-creation payloads
// TokenRuntime deploys (spec.md §4.5). Loading a real compiled artifact is
// out of scope (spec.md §1), so these are minimal valid init code (PUSH1 0
// PUSH1 0 RETURN: deploy succeeds and returns empty runtime code) standing
// in for whichever ERC-20/ERC-721 artifact an operator points a real build
// at; TokenRuntime only depends on the deploy producing a contract address.
var (
	ERC20InitCode  = []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
	ERC721InitCode = []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
)

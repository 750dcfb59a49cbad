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

// Package l1addr decodes base58check-encoded UTXO-chain (L1) addresses into
// their 20-byte pubkey hash, shared by TxBuilder's Withdraw mode (spec.md
// §4.6) and the Reconciler's L1 Listener P2PKH match (spec.md §4.11).
package l1addr

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrBadChecksum signals an undecodable target address; per spec.md §7 this
// is a fatal configuration error for any caller deriving a moat target.
var ErrBadChecksum = fmt.Errorf("l1addr: base58check checksum mismatch")

// Decode decodes a base58check address into its 20-byte hash, stripping the
// one-byte version prefix and the 4-byte trailing checksum.
func Decode(address string) ([20]byte, error) {
	var out [20]byte

	raw, err := base58.Decode(address)
	if err != nil {
		return out, fmt.Errorf("l1addr: %w", err)
	}
	if len(raw) != 1+20+4 {
		return out, fmt.Errorf("l1addr: decoded length %d, want 25", len(raw))
	}

	payload := raw[:21]
	checksum := raw[21:]

	if !checksumMatches(payload, checksum) {
		return out, ErrBadChecksum
	}

	copy(out[:], payload[1:])
	return out, nil
}

func checksumMatches(payload, checksum []byte) bool {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	for i := 0; i < 4; i++ {
		if second[i] != checksum[i] {
			return false
		}
	}
	return true
}

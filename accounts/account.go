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

package accounts

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Account is a single derived sub-account. Index 0 is reserved for the
// funder (spec.md §3). The account's next nonce is not stored here; it is
// tracked per address in a NonceBook and advanced through NonceBook.Reserve.
type Account struct {
	Index     uint64
	Address   common.Address
	PrivateKey *ecdsa.PrivateKey
}

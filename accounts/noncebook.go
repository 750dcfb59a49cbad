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

// This file is derived from the teacher's common/cache.go pattern: a small
// mutex-guarded map type with a package-level contextual logger.

package accounts

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceSource reads the node's "latest" view of an address's next nonce.
// client.RpcClient's GetTxCount also takes a block-tag argument, so it does
// not satisfy this interface directly.
type NonceSource interface {
	GetTxCount(ctx context.Context, addr common.Address) (uint64, error)
}

// NonceBook is an in-process map of address to next-nonce (spec.md §4.3).
// Single-writer per address is guaranteed by callers (Distributor,
// TokenRuntime, TxBuilder) never calling Reserve concurrently for the same
// address; the Clear-Pending utility does not use a NonceBook at all;
// the mutex here only protects the map structure itself, not cross-call
// ordering for a given address.
type NonceBook struct {
	mu     sync.Mutex
	nonces map[common.Address]uint64
}

// NewNonceBook returns an empty book.
func NewNonceBook() *NonceBook {
	return &NonceBook{nonces: make(map[common.Address]uint64)}
}

// Initialize seeds the book for addr from the node's "latest" tag.
func (nb *NonceBook) Initialize(ctx context.Context, src NonceSource, addr common.Address) (uint64, error) {
	n, err := src.GetTxCount(ctx, addr)
	if err != nil {
		return 0, err
	}
	nb.mu.Lock()
	nb.nonces[addr] = n
	nb.mu.Unlock()
	return n, nil
}

// Seed sets the book's value for addr directly, without a node round-trip.
func (nb *NonceBook) Seed(addr common.Address, n uint64) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	nb.nonces[addr] = n
}

// Reserve returns an ordered block [base, base+1, ..., base+n-1] for addr
// and advances the stored value past it.
func (nb *NonceBook) Reserve(addr common.Address, n uint64) []uint64 {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	base := nb.nonces[addr]
	block := make([]uint64, n)
	for i := uint64(0); i < n; i++ {
		block[i] = base + i
	}
	nb.nonces[addr] = base + n
	return block
}

// Peek returns the current next-nonce for addr without reserving it.
func (nb *NonceBook) Peek(addr common.Address) uint64 {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.nonces[addr]
}

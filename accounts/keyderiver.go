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

// This file is derived from the teacher's accounts/keystore address-derivation
// flow (2018/06/04), generalized from a single keystore-resident key to a
// deterministic BIP-32/44 fleet derived from one seed.

package accounts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/klaytn/loadgen/params"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

var logger = log.New("module", "accounts")

// KeyDeriver derives a signing key and address for a sub-account index from
// a single mnemonic seed. It is pure and stateless: calling Derive twice
// with the same index always yields the same Account.
type KeyDeriver struct {
	seed []byte
}

// NewKeyDeriver validates the mnemonic and expands it into a BIP-39 seed.
// An invalid mnemonic is a fatal configuration error (spec.md §4.1).
func NewKeyDeriver(mnemonic string) (*KeyDeriver, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.Wrap(ErrInvalidSeed, "mnemonic failed checksum validation")
	}
	seed := bip39.NewSeed(mnemonic, "")
	return &KeyDeriver{seed: seed}, nil
}

// ErrInvalidSeed signals a fatal configuration error: the given mnemonic
// cannot be used to derive any account.
var ErrInvalidSeed = fmt.Errorf("key deriver: invalid seed")

// Derive returns the Account at m/44'/60'/0'/0/index.
func (kd *KeyDeriver) Derive(index uint64) (*Account, error) {
	master, err := bip32.NewMasterKey(kd.seed)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSeed, err.Error())
	}

	path := []uint32{
		bip32.FirstHardenedChild + params.Bip44Purpose,
		bip32.FirstHardenedChild + params.Bip44CoinTypeEVM,
		bip32.FirstHardenedChild + params.Bip44Account,
		params.Bip44ChangeExtern,
		uint32(index),
	}

	key := master
	for _, segment := range path {
		key, err = key.NewChildKey(segment)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidSeed, "derive child %d: %v", segment, err)
		}
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSeed, err.Error())
	}

	addr := crypto.PubkeyToAddress(privateKey.PublicKey)
	logger.Debug("derived sub-account", "index", index, "address", addr)

	return &Account{
		Index:      index,
		Address:    addr,
		PrivateKey: privateKey,
	}, nil
}

// DeriveRange derives accounts [0, n) in index order, index 0 being the
// funder (spec.md §3, §GLOSSARY).
func (kd *KeyDeriver) DeriveRange(n uint64) ([]*Account, error) {
	accounts := make([]*Account, n)
	for i := uint64(0); i < n; i++ {
		acc, err := kd.Derive(i)
		if err != nil {
			return nil, err
		}
		accounts[i] = acc
	}
	return accounts, nil
}

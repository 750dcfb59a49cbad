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

// This file replaces the teacher's LevelDB/BadgerDB chain-state store
// (db_manager.go) with a relational schema: the reconciler's state is
// joined rows across two chains, not a key-value trie (spec.md §3, §6).

package database

// L1Header is one parsed raw L1 block header (spec.md §4.11).
type L1Header struct {
	Height     uint64 `gorm:"primaryKey"`
	Hash       string `gorm:"index"`
	Version    int32
	PrevHash   string
	MerkleRoot string
	Timestamp  uint32
	CreateAt   int64
	Bits       uint32
	Nonce      uint32
	SizeBytes  int
}

func (L1Header) TableName() string { return "l1_headers" }

// L2Header is one observed L2 block header, kept for reorg detection
// (spec.md §4.11).
type L2Header struct {
	Height    uint64 `gorm:"primaryKey"`
	Hash      string `gorm:"index"`
	Timestamp uint64
	CreateAt  int64
}

func (L2Header) TableName() string { return "l2_headers" }

// TxJoinRow is a single row of the `txs` join table: the uid links one L1
// output to one L2 withdrawal event (spec.md §3). Either side may be
// populated independently; a row is "reconciled" once both are.
type TxJoinRow struct {
	UID         uint64 `gorm:"primaryKey"`
	L2TxHash    string
	L2Height    uint64
	L2Timestamp uint64
	L1TxHash    string
	L1Height    uint64
	L1Timestamp uint32
}

func (TxJoinRow) TableName() string { return "txs" }

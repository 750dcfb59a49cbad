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

// This file is derived from the teacher's db_manager.go: the same
// single-exported-constructor, single-writer-per-process shape, now backed
// by an embedded SQLite file through gorm instead of LevelDB/BadgerDB
// (spec.md §3, §5, §6).

package database

import (
	"github.com/ethereum/go-ethereum/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var logger = log.New("module", "database")

// L1Match is one P2PKH output that matched the configured target hash,
// ready to be upserted into the txs join table (spec.md §4.11).
type L1Match struct {
	UID         uint64
	L1TxHash    string
	L1Height    uint64
	L1Timestamp uint32
}

// L2Withdrawal is one decoded WithdrawalQueued event, ready to be upserted
// into the txs join table (spec.md §4.11).
type L2Withdrawal struct {
	UID         uint64
	L2TxHash    string
	L2Height    uint64
	L2Timestamp uint64
}

// DBManager is the reconciler's single-writer persistence surface. Each of
// ApplyL1Block/ApplyL2Block commits its header row plus any join-table
// upserts inside one database transaction (spec.md §4.11, §5).
type DBManager interface {
	Close() error

	// ApplyL1Block inserts header and upserts one txs row per match.
	ApplyL1Block(header *L1Header, matches []L1Match) error

	// ApplyL2Block rolls back the orphaned height (if any), then inserts
	// the new header and upserts one txs row per withdrawal.
	ApplyL2Block(header *L2Header, withdrawals []L2Withdrawal, reorgHeight *uint64) error

	GetL2Header(height uint64) (*L2Header, error)
	GetTxJoinRow(uid uint64) (*TxJoinRow, error)
}

type gormDBManager struct {
	db *gorm.DB
}

// NewDBManager opens (creating if absent) a single SQLite file at path and
// migrates the three tables spec.md §6 names.
func NewDBManager(path string) (DBManager, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&L1Header{}, &L2Header{}, &TxJoinRow{}); err != nil {
		return nil, err
	}
	return &gormDBManager{db: db}, nil
}

// NewMemoryDBManager returns a DBManager backed by an in-process SQLite
// database, for tests that need real SQL semantics without a file on disk.
func NewMemoryDBManager() (DBManager, error) {
	return NewDBManager("file::memory:?cache=shared")
}

func (m *gormDBManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ApplyL1Block inserts header and upserts one txs row per match, all in one
// transaction (spec.md §4.11: "on each block with known height, in a single
// database transaction, insert the header and upsert one txs row per tx").
func (m *gormDBManager) ApplyL1Block(header *L1Header, matches []L1Match) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(header).Error; err != nil {
			return err
		}
		for _, match := range matches {
			row := TxJoinRow{UID: match.UID, L1TxHash: match.L1TxHash, L1Height: match.L1Height, L1Timestamp: match.L1Timestamp}
			if err := tx.Where(TxJoinRow{UID: match.UID}).
				Assign(map[string]interface{}{
					"l1_tx_hash":   row.L1TxHash,
					"l1_height":    row.L1Height,
					"l1_timestamp": row.L1Timestamp,
				}).
				FirstOrCreate(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyL2Block rolls back the orphaned height (if any), deletes its header
// and clears the txs rows tagged to it, then inserts the new header and
// upserts one txs row per withdrawal, all in one transaction (spec.md
// §4.11's L2 Follower reorg-rollback step).
func (m *gormDBManager) ApplyL2Block(header *L2Header, withdrawals []L2Withdrawal, reorgHeight *uint64) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if reorgHeight != nil {
			if err := tx.Delete(&L2Header{}, "height = ?", *reorgHeight).Error; err != nil {
				return err
			}
			if err := tx.Model(&TxJoinRow{}).
				Where("l2_height = ?", *reorgHeight).
				Updates(map[string]interface{}{
					"l2_tx_hash":   "",
					"l2_height":    0,
					"l2_timestamp": 0,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Save(header).Error; err != nil {
			return err
		}
		for _, w := range withdrawals {
			row := TxJoinRow{UID: w.UID, L2TxHash: w.L2TxHash, L2Height: w.L2Height, L2Timestamp: w.L2Timestamp}
			if err := tx.Where(TxJoinRow{UID: w.UID}).
				Assign(map[string]interface{}{
					"l2_tx_hash":   row.L2TxHash,
					"l2_height":    row.L2Height,
					"l2_timestamp": row.L2Timestamp,
				}).
				FirstOrCreate(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *gormDBManager) GetL2Header(height uint64) (*L2Header, error) {
	var h L2Header
	err := m.db.First(&h, "height = ?", height).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (m *gormDBManager) GetTxJoinRow(uid uint64) (*TxJoinRow, error) {
	var row TxJoinRow
	err := m.db.First(&row, "uid = ?", uid).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
